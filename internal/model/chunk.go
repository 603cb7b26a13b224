package model

import "time"

// Chunk is one embedded slice of a document's extracted text. Chunks are
// immutable once stored; re-ingesting a document appends a new set.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  Vector    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Chunk) TableName() string {
	return "pdf_chunks"
}
