package model

import "time"

// News is a news article shown on the site's front page.
type News struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Slide is one image of the home page carousel.
type Slide struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	Link      string    `json:"link" db:"link"`
	OrderNum  int       `json:"order_num" db:"order_num"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Teacher is a staff profile.
type Teacher struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Title        string    `json:"title" db:"title"`
	Department   string    `json:"department" db:"department"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	Introduction string    `json:"introduction" db:"introduction"`
	OrderNum     int       `json:"order_num" db:"order_num"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Download is a file published for visitors to download. The file body lives
// in upload storage; StoredName is never exposed to clients.
type Download struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	Category      string    `json:"category" db:"category"`
	FileName      string    `json:"file_name" db:"file_name"`
	StoredName    string    `json:"-" db:"stored_name"`
	FileType      string    `json:"file_type" db:"file_type"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	DownloadCount int64     `json:"download_count" db:"download_count"`
	UploadDate    time.Time `json:"upload_date" db:"upload_date"`
}

// Setting is a single site-wide key/value configuration entry.
type Setting struct {
	ID          int64     `json:"id" db:"id"`
	Key         string    `json:"key" db:"setting_key"`
	Value       string    `json:"value" db:"value"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
