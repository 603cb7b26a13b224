package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"pdfchat/internal/model"
	"pdfchat/internal/rag"
)

// ChunkRepository persists embedded chunks and runs the ranked similarity
// query. Ranking happens entirely in Postgres via the pgvector cosine
// operator; rows come back already ordered by descending similarity.
type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) InsertRows(ctx context.Context, rows []model.Chunk) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert pdf chunks failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) Query(ctx context.Context, documentID uint, embedding []float32, limit int) ([]rag.RetrievedPassage, error) {
	if limit <= 0 {
		return nil, nil
	}

	literal, err := model.Vector(embedding).Value()
	if err != nil || literal == nil {
		return nil, fmt.Errorf("query embedding is empty")
	}

	// similarity = 1 - cosine distance, so higher means more relevant.
	var hits []struct {
		Content    string
		Similarity float64
	}
	err = r.db.WithContext(ctx).Raw(
		`SELECT content, 1 - (embedding <=> ?::vector) AS similarity
		 FROM pdf_chunks
		 WHERE document_id = ?
		 ORDER BY embedding <=> ?::vector
		 LIMIT ?`,
		literal, documentID, literal, limit,
	).Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	passages := make([]rag.RetrievedPassage, 0, len(hits))
	for _, h := range hits {
		if h.Content == "" {
			continue
		}
		passages = append(passages, rag.RetrievedPassage{
			Text:       h.Content,
			Similarity: h.Similarity,
		})
	}
	return passages, nil
}

func (r *ChunkRepository) DeleteByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).
		Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete pdf chunks by document failed: %w", err)
	}
	return nil
}
