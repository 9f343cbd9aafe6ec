package model

import "time"

// Activity type tags written by the admin flows and content handlers.
const (
	ActivityLogin          = "login"
	ActivityPasswordChange = "password-change"
	ActivityNews           = "news"
	ActivitySlides         = "slides"
	ActivityTeachers       = "teachers"
	ActivityDownloads      = "downloads"
	ActivitySettings       = "settings"
)

// Activity is a single append-only entry in the activity log.
type Activity struct {
	ID          int64     `json:"id" db:"id"`
	UserID      *int64    `json:"user_id" db:"user_id"`
	Type        string    `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
