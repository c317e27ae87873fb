package models

import "time"

type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	FullName  string    `json:"full_name" yaml:"full_name"`
	Phone     string    `json:"phone" yaml:"phone"`
	IsManager bool      `json:"is_manager" yaml:"is_manager"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// DisplayName is used for the booking's user snapshot when the request omits one.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
