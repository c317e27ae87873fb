package models

const (
	// DefaultMaxSeatsPerBooking ограничение на количество мест в одной заявке
	DefaultMaxSeatsPerBooking = 5

	// DefaultLocale язык сообщений об ошибках валидации
	DefaultLocale = "en"

	// DefaultLockTTL время жизни блокировки рейса в секундах
	DefaultLockTTL = 10

	// DefaultLockWait максимальное ожидание блокировки рейса в секундах
	DefaultLockWait = 5

	// DefaultTripsPageSize размер списка рейсов по умолчанию
	DefaultTripsPageSize = 50
)
