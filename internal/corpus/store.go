// Package corpus implements the chunk store client: embedding chunks into
// batched vector-index inserts and running top-k similarity search against a
// single document's partition.
package corpus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pdfchat/internal/model"
	"pdfchat/internal/rag"
)

// Embedder is the remote embedding capability.
type Embedder interface {
	Embed(ctx context.Context, text, apiKey string) ([]float32, error)
}

// VectorIndex is the persistence collaborator. Ranking is its job: Query
// returns passages ordered by descending similarity and the store never
// recomputes scores locally.
type VectorIndex interface {
	InsertRows(ctx context.Context, rows []model.Chunk) error
	Query(ctx context.Context, documentID uint, embedding []float32, limit int) ([]rag.RetrievedPassage, error)
}

const defaultBatchSize = 60

// Store buffers embedded chunks and flushes them in bounded batches, keeping
// each request under the collaborator's payload limits while minimizing
// round trips.
type Store struct {
	embedder  Embedder
	index     VectorIndex
	batchSize int
	log       *zap.Logger
}

func NewStore(embedder Embedder, index VectorIndex, batchSize int, log *zap.Logger) *Store {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
		log:       log,
	}
}

// InsertChunks embeds each chunk sequentially and persists the rows in
// batches of at most batchSize, always flushing the final partial batch. An
// embedding or flush failure aborts the call; batches already flushed are
// not rolled back, so callers must tolerate a partially indexed document.
// An empty chunk sequence is a no-op.
func (s *Store) InsertChunks(ctx context.Context, documentID, ownerID uint, chunks []string, apiKey string) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]model.Chunk, 0, s.batchSize)
	for _, chunk := range chunks {
		emb, err := s.embedder.Embed(ctx, chunk, apiKey)
		if err != nil {
			return fmt.Errorf("embed chunk failed: %w", err)
		}
		rows = append(rows, model.Chunk{
			DocumentID: documentID,
			UserID:     ownerID,
			Content:    chunk,
			Embedding:  model.Vector(emb),
		})

		if len(rows) >= s.batchSize {
			if err := s.flush(ctx, rows); err != nil {
				return err
			}
			rows = make([]model.Chunk, 0, s.batchSize)
		}
	}

	if len(rows) > 0 {
		if err := s.flush(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) flush(ctx context.Context, rows []model.Chunk) error {
	if err := s.index.InsertRows(ctx, rows); err != nil {
		return &rag.StoreWriteError{Err: err}
	}
	s.log.Debug("chunk batch flushed", zap.Int("rows", len(rows)))
	return nil
}

// Search embeds the query and returns the top-k passages for the document,
// ranked by the index. An empty result is a valid outcome, distinct from an
// error.
func (s *Store) Search(ctx context.Context, documentID uint, query string, topK int, apiKey string) ([]rag.RetrievedPassage, error) {
	emb, err := s.embedder.Embed(ctx, query, apiKey)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	return s.index.Query(ctx, documentID, emb, topK)
}
