package rag_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/rag"
)

type searchCall struct {
	query string
	topK  int
}

type stubCorpusStore struct {
	insertChunks [][]string
	insertErr    error

	searchCalls  []searchCall
	searchResult []rag.RetrievedPassage
	searchErr    error
}

func (s *stubCorpusStore) InsertChunks(_ context.Context, _, _ uint, chunks []string, _ string) error {
	s.insertChunks = append(s.insertChunks, chunks)
	return s.insertErr
}

func (s *stubCorpusStore) Search(_ context.Context, _ uint, query string, topK int, _ string) ([]rag.RetrievedPassage, error) {
	s.searchCalls = append(s.searchCalls, searchCall{query: query, topK: topK})
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchResult, nil
}

func newTestPipeline(store *stubCorpusStore, gen *stubGenerator) *rag.Pipeline {
	return rag.NewPipeline(store, rag.NewComposer(gen), rag.PipelineConfig{}, nil)
}

func TestIngestChunksAndInserts(t *testing.T) {
	store := &stubCorpusStore{}
	p := newTestPipeline(store, &stubGenerator{})

	text := strings.Repeat("x", 2_000)
	err := p.Ingest(context.Background(), 1, 2, text, "key")
	require.NoError(t, err)

	require.Len(t, store.insertChunks, 1)
	assert.Len(t, store.insertChunks[0], 3, "2000 runes at window 1000 / overlap 150 yields three windows")
}

func TestIngestEmptyTextIsNoOp(t *testing.T) {
	store := &stubCorpusStore{}
	p := newTestPipeline(store, &stubGenerator{})

	require.NoError(t, p.Ingest(context.Background(), 1, 2, "", "key"))
	require.NoError(t, p.Ingest(context.Background(), 1, 2, "   \n\t ", "key"))
	assert.Empty(t, store.insertChunks)
}

func TestIngestTagsStoreWriteStage(t *testing.T) {
	store := &stubCorpusStore{insertErr: &rag.StoreWriteError{Err: assert.AnError}}
	p := newTestPipeline(store, &stubGenerator{})

	err := p.Ingest(context.Background(), 1, 2, strings.Repeat("x", 1_000), "key")
	var stageErr *rag.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, rag.StageStoreWrite, stageErr.Stage)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestIngestTagsEmbeddingStage(t *testing.T) {
	store := &stubCorpusStore{insertErr: assert.AnError}
	p := newTestPipeline(store, &stubGenerator{})

	err := p.Ingest(context.Background(), 1, 2, strings.Repeat("x", 1_000), "key")
	var stageErr *rag.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, rag.StageEmbedding, stageErr.Stage)
}

func TestAnswerDirectQuestion(t *testing.T) {
	store := &stubCorpusStore{searchResult: []rag.RetrievedPassage{
		{Text: "relevant passage", Similarity: 0.7},
		{Text: "noise", Similarity: 0.1},
	}}
	gen := &stubGenerator{answer: "Grounded answer."}
	p := newTestPipeline(store, gen)

	outcome, err := p.Answer(context.Background(), 5, "what is covered?", "key")
	require.NoError(t, err)
	assert.Equal(t, rag.Answered, outcome.Kind)
	assert.Equal(t, "Grounded answer.", outcome.Answer)

	require.Len(t, store.searchCalls, 1)
	assert.Equal(t, "what is covered?", store.searchCalls[0].query)
	assert.Equal(t, 8, store.searchCalls[0].topK)

	require.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.prompts[0], "relevant passage")
	assert.NotContains(t, gen.prompts[0], "noise", "below-threshold passages never reach the prompt")
}

func TestAnswerRefusesWithoutInvokingModel(t *testing.T) {
	store := &stubCorpusStore{searchResult: []rag.RetrievedPassage{
		{Text: "weak", Similarity: 0.05},
	}}
	gen := &stubGenerator{answer: "should never be used"}
	p := newTestPipeline(store, gen)

	outcome, err := p.Answer(context.Background(), 5, "unrelated question", "key")
	require.NoError(t, err)
	assert.Equal(t, rag.Refused, outcome.Kind)
	assert.Equal(t, rag.RefusalAnswer, outcome.Answer)
	assert.Zero(t, gen.calls, "refusal is decided before generation")
}

func TestAnswerSummaryMode(t *testing.T) {
	store := &stubCorpusStore{searchResult: []rag.RetrievedPassage{
		{Text: "intro", Similarity: 0.12},
		{Text: "conclusion", Similarity: 0.30},
	}}
	gen := &stubGenerator{answer: "- point one\n- point two"}
	p := newTestPipeline(store, gen)

	outcome, err := p.Answer(context.Background(), 5, "give me a summary", "key")
	require.NoError(t, err)
	assert.Equal(t, rag.Answered, outcome.Kind)

	require.Len(t, store.searchCalls, 1)
	assert.Equal(t, "overall document summary", store.searchCalls[0].query,
		"summary retrieval probes broadly instead of echoing the question")
	assert.Equal(t, 10, store.searchCalls[0].topK)

	require.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.prompts[0], "intro",
		"summary mode bypasses the similarity threshold")
	assert.Contains(t, gen.prompts[0], "Give a clean structured summary of this PDF in bullet points.")
}

func TestAnswerSummaryUnavailable(t *testing.T) {
	store := &stubCorpusStore{}
	gen := &stubGenerator{}
	p := newTestPipeline(store, gen)

	outcome, err := p.Answer(context.Background(), 5, "summarize this", "key")
	require.NoError(t, err)
	assert.Equal(t, rag.Refused, outcome.Kind)
	assert.Equal(t, rag.SummaryUnavailableAnswer, outcome.Answer)
	assert.Zero(t, gen.calls)
}

func TestAnswerPropagatesSearchError(t *testing.T) {
	store := &stubCorpusStore{searchErr: assert.AnError}
	p := newTestPipeline(store, &stubGenerator{})

	_, err := p.Answer(context.Background(), 5, "question", "key")
	assert.ErrorIs(t, err, assert.AnError)
}
