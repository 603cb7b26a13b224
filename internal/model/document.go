package model

import "time"

// Document is the metadata row for an uploaded PDF. The extracted text is
// transient: it is chunked and indexed at upload time, never stored here.
type Document struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Filename         string    `gorm:"size:256;not null" json:"filename"`
	OriginalFilename string    `gorm:"size:256;not null" json:"original_filename"`
	StoragePath      string    `gorm:"size:512" json:"storage_path"`
	CreatedAt        time.Time `json:"created_at"`
}
