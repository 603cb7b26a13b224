package rag

import (
	"context"
	"errors"
	"fmt"
)

// RetrievedPassage is one ranked search hit: chunk text plus the store's
// similarity score, higher meaning more relevant. Never persisted.
type RetrievedPassage struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// CorpusStore is the retrieval collaborator: batched chunk ingestion and
// top-k similarity search scoped to one document.
type CorpusStore interface {
	InsertChunks(ctx context.Context, documentID, ownerID uint, chunks []string, apiKey string) error
	Search(ctx context.Context, documentID uint, query string, topK int, apiKey string) ([]RetrievedPassage, error)
}

// Stage identifies where an ingestion run failed.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
	StageStoreWrite Stage = "store-write"
)

// StageError tags a pipeline failure with the stage it happened in. Batches
// flushed before the failure stay persisted; the document is reported failed
// and left partially indexed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StoreWriteError marks a failed batch flush, as opposed to an embedding
// failure inside the same insert run.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// FilterBySimilarity keeps passages strictly above threshold, order
// preserved.
func FilterBySimilarity(passages []RetrievedPassage, threshold float64) []RetrievedPassage {
	var kept []RetrievedPassage
	for _, p := range passages {
		if p.Similarity > threshold {
			kept = append(kept, p)
		}
	}
	return kept
}

func stageOf(err error) Stage {
	var sw *StoreWriteError
	if errors.As(err, &sw) {
		return StageStoreWrite
	}
	return StageEmbedding
}
