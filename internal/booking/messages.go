package booking

import "fmt"

// msgCancelledEdit is reported with KindAlreadyCancelled when a cancelled
// booking is edited rather than cancelled again.
const msgCancelledEdit Kind = "cancelled_booking_edit"

var catalog = map[string]map[Kind]string{
	"en": {
		KindAlreadyCancelled:           "The booking is already cancelled and cannot be cancelled again.",
		msgCancelledEdit:               "The booking is cancelled and can no longer be changed.",
		KindMissingTrip:                "Trip is required.",
		KindTripAlreadyDeparted:        "Cannot book a trip that has already departed.",
		KindMissingSeatCount:           "Number of seats is required.",
		KindInvalidSeatCount:           "Number of seats must be at least 1.",
		KindInsufficientAvailableSeats: "Only %d seat(s) available.",
		KindDuplicateBooking:           "You have already booked this trip.",
		KindSeatCapExceeded:            "You cannot book more than %d seats at once.",
		KindAggregateCapacityExceeded:  "Only %d seat(s) left on this trip.",
	},
	"ar": {
		KindAlreadyCancelled:           "الحجز ملغى بالفعل ولا يمكن إلغاؤه مرة أخرى.",
		msgCancelledEdit:               "الحجز ملغى ولا يمكن تعديله.",
		KindMissingTrip:                "الرحلة مطلوبة.",
		KindTripAlreadyDeparted:        "لا يمكن حجز رحلة في الماضي.",
		KindMissingSeatCount:           "عدد المقاعد مطلوب.",
		KindInvalidSeatCount:           "يجب أن يكون عدد المقاعد 1 على الأقل.",
		KindInsufficientAvailableSeats: "فقط %d مقعد(مقاعد) متاح(ة).",
		KindDuplicateBooking:           "لقد قمت بالفعل بحجز هذه الرحلة.",
		KindSeatCapExceeded:            "لا يمكنك حجز أكثر من %d مقاعد دفعة واحدة.",
		KindAggregateCapacityExceeded:  "فقط %d مقعد(مقاعد) متاح(ة) في هذه الرحلة.",
	},
}

// SupportedLocale reports whether messages exist for the locale.
func SupportedLocale(locale string) bool {
	_, ok := catalog[locale]
	return ok
}

func message(locale string, kind Kind, args ...any) string {
	msgs, ok := catalog[locale]
	if !ok {
		msgs = catalog["en"]
	}
	format := msgs[kind]
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
