package rag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/rag"
)

type stubGenerator struct {
	calls   int
	prompts []string
	keys    []string
	answer  string
	err     error
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt, apiKey string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.keys = append(g.keys, apiKey)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func TestComposeBuildsGroundingPrompt(t *testing.T) {
	gen := &stubGenerator{answer: "  The warranty lasts two years.  "}
	composer := rag.NewComposer(gen)

	passages := []rag.RetrievedPassage{
		{Text: "Warranty coverage is 24 months.", Similarity: 0.8},
		{Text: "Claims require proof of purchase.", Similarity: 0.6},
	}
	answer, err := composer.Compose(context.Background(), "How long is the warranty?", passages, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "The warranty lasts two years.", answer, "answer is whitespace-trimmed")

	require.Equal(t, 1, gen.calls)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Answer ONLY using the provided PDF context.")
	assert.Contains(t, prompt, "Is PDF me iska answer available nahi hai.")
	assert.Contains(t, prompt, "Warranty coverage is 24 months.\n\nClaims require proof of purchase.")
	assert.Contains(t, prompt, "User Question:\nHow long is the warranty?")
	assert.Equal(t, "key-1", gen.keys[0])
}

func TestComposePropagatesGeneratorError(t *testing.T) {
	wantErr := assert.AnError
	gen := &stubGenerator{err: wantErr}
	composer := rag.NewComposer(gen)

	_, err := composer.Compose(context.Background(), "q", nil, "")
	assert.ErrorIs(t, err, wantErr)
}

func TestIsSummaryQuery(t *testing.T) {
	assert.True(t, rag.IsSummaryQuery("Give me a SUMMARY of this"))
	assert.True(t, rag.IsSummaryQuery("please summarize chapter 3"))
	assert.False(t, rag.IsSummaryQuery("what does chapter 3 say?"))
}

func TestSummaryDirective(t *testing.T) {
	assert.Equal(t,
		"Give a short summary of this PDF in 6-8 bullet points.",
		rag.SummaryDirective("short summary please"))
	assert.Equal(t,
		"Give a clean structured summary of this PDF in bullet points.",
		rag.SummaryDirective("summarize the document"))
}

func TestFilterBySimilarity(t *testing.T) {
	passages := []rag.RetrievedPassage{
		{Text: "a", Similarity: 0.5},
		{Text: "b", Similarity: 0.1},
		{Text: "c", Similarity: 0.25},
	}
	kept := rag.FilterBySimilarity(passages, 0.20)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].Text)
	assert.Equal(t, "c", kept[1].Text)

	assert.Empty(t, rag.FilterBySimilarity(passages, 0.9))
	assert.Empty(t, rag.FilterBySimilarity([]rag.RetrievedPassage{{Text: "d", Similarity: 0.20}}, 0.20),
		"exact threshold matches are dropped")
}
