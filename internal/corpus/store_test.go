package corpus_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/corpus"
	"pdfchat/internal/model"
	"pdfchat/internal/rag"
)

type stubEmbedder struct {
	calls  int
	inputs []string
	keys   []string
	failAt int // 1-based call index that fails; 0 means never
}

func (e *stubEmbedder) Embed(_ context.Context, text, apiKey string) ([]float32, error) {
	e.calls++
	e.inputs = append(e.inputs, text)
	e.keys = append(e.keys, apiKey)
	if e.failAt > 0 && e.calls == e.failAt {
		return nil, assert.AnError
	}
	return []float32{float32(e.calls), 0.5}, nil
}

type stubIndex struct {
	batches     [][]model.Chunk
	insertErr   error
	queryResult []rag.RetrievedPassage
	queryCalls  int
	queryLimit  int
}

func (i *stubIndex) InsertRows(_ context.Context, rows []model.Chunk) error {
	if i.insertErr != nil {
		return i.insertErr
	}
	i.batches = append(i.batches, rows)
	return nil
}

func (i *stubIndex) Query(_ context.Context, _ uint, _ []float32, limit int) ([]rag.RetrievedPassage, error) {
	i.queryCalls++
	i.queryLimit = limit
	return i.queryResult, nil
}

func chunkFixture(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("chunk %03d", i)
	}
	return out
}

func TestInsertChunksBatching(t *testing.T) {
	embedder := &stubEmbedder{}
	index := &stubIndex{}
	store := corpus.NewStore(embedder, index, 60, nil)

	err := store.InsertChunks(context.Background(), 7, 3, chunkFixture(125), "key")
	require.NoError(t, err)

	assert.Equal(t, 125, embedder.calls, "every chunk is embedded exactly once")
	require.Len(t, index.batches, 3)
	assert.Len(t, index.batches[0], 60)
	assert.Len(t, index.batches[1], 60)
	assert.Len(t, index.batches[2], 5)

	first := index.batches[0][0]
	assert.Equal(t, uint(7), first.DocumentID)
	assert.Equal(t, uint(3), first.UserID)
	assert.Equal(t, "chunk 000", first.Content)
	assert.Equal(t, model.Vector{1, 0.5}, first.Embedding)
}

func TestInsertChunksExactBatchBoundary(t *testing.T) {
	index := &stubIndex{}
	store := corpus.NewStore(&stubEmbedder{}, index, 60, nil)

	require.NoError(t, store.InsertChunks(context.Background(), 1, 1, chunkFixture(60), "key"))
	require.Len(t, index.batches, 1, "no trailing empty flush after a full batch")
	assert.Len(t, index.batches[0], 60)
}

func TestInsertChunksEmptyIsNoOp(t *testing.T) {
	embedder := &stubEmbedder{}
	index := &stubIndex{}
	store := corpus.NewStore(embedder, index, 60, nil)

	require.NoError(t, store.InsertChunks(context.Background(), 1, 1, nil, "key"))
	assert.Zero(t, embedder.calls)
	assert.Empty(t, index.batches)
}

func TestInsertChunksEmbedFailureAborts(t *testing.T) {
	embedder := &stubEmbedder{failAt: 3}
	index := &stubIndex{}
	store := corpus.NewStore(embedder, index, 60, nil)

	err := store.InsertChunks(context.Background(), 1, 1, chunkFixture(10), "key")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	var sw *rag.StoreWriteError
	assert.False(t, errors.As(err, &sw), "embedding failures are not store-write failures")
	assert.Equal(t, 3, embedder.calls, "embedding stops at the failure")
	assert.Empty(t, index.batches, "nothing flushed before the first batch filled")
}

func TestInsertChunksFlushFailure(t *testing.T) {
	index := &stubIndex{insertErr: assert.AnError}
	store := corpus.NewStore(&stubEmbedder{}, index, 60, nil)

	err := store.InsertChunks(context.Background(), 1, 1, chunkFixture(5), "key")
	var sw *rag.StoreWriteError
	require.True(t, errors.As(err, &sw))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSearchEmbedsQueryAndDelegatesRanking(t *testing.T) {
	embedder := &stubEmbedder{}
	index := &stubIndex{queryResult: []rag.RetrievedPassage{
		{Text: "hit", Similarity: 0.9},
	}}
	store := corpus.NewStore(embedder, index, 60, nil)

	passages, err := store.Search(context.Background(), 7, "the question", 8, "key")
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "hit", passages[0].Text)

	require.Equal(t, 1, embedder.calls)
	assert.Equal(t, "the question", embedder.inputs[0])
	assert.Equal(t, "key", embedder.keys[0])
	assert.Equal(t, 1, index.queryCalls)
	assert.Equal(t, 8, index.queryLimit)
}

func TestSearchEmbedFailure(t *testing.T) {
	embedder := &stubEmbedder{failAt: 1}
	index := &stubIndex{}
	store := corpus.NewStore(embedder, index, 60, nil)

	_, err := store.Search(context.Background(), 7, "q", 8, "key")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, index.queryCalls)
}
