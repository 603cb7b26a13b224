package rag

import (
	"context"
	"strings"
)

// TextGenerator is the remote generation capability the composer runs
// prompts through.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt, apiKey string) (string, error)
}

// The grounding prompt is a content policy, not a technical constraint: the
// model must answer strictly from the supplied context, avoid rich-text
// formatting, and emit the exact fallback sentence when the context does not
// hold the answer. Downstream behavior depends on this wording; do not
// reword it.
const groundingPromptTemplate = `
You are a helpful PDF assistant.
Answer ONLY using the provided PDF context.

Rules:
- Do NOT use markdown formatting like **bold**, headings, code blocks.
- Write in clean plain text.
- If answer is not in context, reply exactly:
Is PDF me iska answer available nahi hai.

PDF Context:
%CONTEXT%

User Question:
%QUESTION%

Answer:
`

// Summary directives sent in place of the user question in summary mode.
const (
	summaryDirectiveShort      = "Give a short summary of this PDF in 6-8 bullet points."
	summaryDirectiveStructured = "Give a clean structured summary of this PDF in bullet points."
)

// IsSummaryQuery reports whether the question carries a summarization cue.
func IsSummaryQuery(question string) bool {
	q := strings.ToLower(question)
	return strings.Contains(q, "summary") || strings.Contains(q, "summarize")
}

// SummaryDirective picks the short or structured digest depending on the
// secondary "short" cue.
func SummaryDirective(question string) string {
	if strings.Contains(strings.ToLower(question), "short") {
		return summaryDirectiveShort
	}
	return summaryDirectiveStructured
}

// Composer turns retrieved passages plus a question into a generated answer.
type Composer struct {
	gen TextGenerator
}

func NewComposer(gen TextGenerator) *Composer {
	return &Composer{gen: gen}
}

// Compose builds the grounding prompt from passages and question and runs
// the generation model. The answer is whitespace-trimmed, nothing else.
func (c *Composer) Compose(ctx context.Context, question string, passages []RetrievedPassage, apiKey string) (string, error) {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	contextBlock := strings.Join(texts, "\n\n")

	prompt := strings.Replace(groundingPromptTemplate, "%CONTEXT%", contextBlock, 1)
	prompt = strings.Replace(prompt, "%QUESTION%", question, 1)

	answer, err := c.gen.GenerateText(ctx, prompt, apiKey)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
