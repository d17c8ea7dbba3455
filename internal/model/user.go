package model

import (
	"time"
)

type User struct {
	ID          string    `db:"id" json:"id"`
	TelegramID  int64     `db:"telegram_id" json:"telegramId"`
	DisplayName string    `db:"display_name" json:"displayName"`
	Username    *string   `db:"username" json:"username,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateUserParams struct {
	TelegramID  int64
	DisplayName string
	Username    *string
}
