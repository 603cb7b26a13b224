package rag

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Fixed user-facing answers for the refusal paths. These are normal
// outcomes, not errors, and are recorded in chat history like any answer.
const (
	RefusalAnswer            = "❌ Is PDF me iska answer available nahi hai."
	SummaryUnavailableAnswer = "❌ Summary generate nahi ho paya, because PDF indexing incomplete hai. Please re-upload PDF."
)

// summaryProbe replaces the user question for summary-mode retrieval to pull
// broadly representative passages instead of question-specific ones.
const summaryProbe = "overall document summary"

// PipelineConfig tunes retrieval. Zero values take the production defaults.
type PipelineConfig struct {
	TopK                int
	SummaryTopK         int
	SimilarityThreshold float64
	ChunkOptions        ChunkOptions
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.TopK <= 0 {
		c.TopK = 8
	}
	if c.SummaryTopK <= 0 {
		c.SummaryTopK = 10
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.20
	}
	return c
}

// OutcomeKind tags the result of an answer run.
type OutcomeKind int

const (
	// Answered means the model produced a grounded answer.
	Answered OutcomeKind = iota
	// Refused means retrieval found nothing usable; Answer holds the fixed
	// refusal text and the generation model was never invoked.
	Refused
)

// Outcome is the result of a successful answer run. Provider and store
// failures are returned as errors instead, never folded into an Outcome.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Answer string      `json:"answer"`
}

// Pipeline orchestrates the ingestion path (chunk, embed, insert) and the
// query path (search, filter, compose or refuse). Stateless per call.
type Pipeline struct {
	store    CorpusStore
	composer *Composer
	cfg      PipelineConfig
	log      *zap.Logger
}

func NewPipeline(store CorpusStore, composer *Composer, cfg PipelineConfig, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		store:    store,
		composer: composer,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// Ingest chunks text and indexes every chunk under the document. A failure
// aborts the run with its stage attached; batches already flushed stay
// persisted and the document is left partially indexed.
func (p *Pipeline) Ingest(ctx context.Context, documentID, ownerID uint, text, apiKey string) error {
	chunks := Chunk(text, p.cfg.ChunkOptions)
	if len(chunks) == 0 {
		p.log.Info("document produced no chunks, nothing to index",
			zap.Uint("document_id", documentID))
		return nil
	}
	maxChunks := p.cfg.ChunkOptions.withDefaults().MaxChunks
	if len(chunks) == maxChunks {
		p.log.Warn("chunk cap reached, document will be partially indexed",
			zap.Uint("document_id", documentID),
			zap.Int("max_chunks", maxChunks))
	}

	if err := p.store.InsertChunks(ctx, documentID, ownerID, chunks, apiKey); err != nil {
		return &StageError{Stage: stageOf(err), Err: err}
	}

	p.log.Info("document indexed",
		zap.Uint("document_id", documentID),
		zap.Int("chunks", len(chunks)))
	return nil
}

// Answer resolves a question against the document corpus. Summary cues
// switch to a broader retrieval with the threshold filter bypassed;
// otherwise passages below the similarity threshold are dropped and an empty
// remainder yields a Refused outcome without invoking the model.
func (p *Pipeline) Answer(ctx context.Context, documentID uint, question, apiKey string) (Outcome, error) {
	question = strings.TrimSpace(question)

	if IsSummaryQuery(question) {
		return p.answerSummary(ctx, documentID, question, apiKey)
	}

	passages, err := p.store.Search(ctx, documentID, question, p.cfg.TopK, apiKey)
	if err != nil {
		return Outcome{}, err
	}
	filtered := FilterBySimilarity(passages, p.cfg.SimilarityThreshold)
	if len(filtered) == 0 {
		return Outcome{Kind: Refused, Answer: RefusalAnswer}, nil
	}

	answer, err := p.composer.Compose(ctx, question, filtered, apiKey)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: Answered, Answer: answer}, nil
}

func (p *Pipeline) answerSummary(ctx context.Context, documentID uint, question, apiKey string) (Outcome, error) {
	passages, err := p.store.Search(ctx, documentID, summaryProbe, p.cfg.SummaryTopK, apiKey)
	if err != nil {
		return Outcome{}, err
	}
	if len(passages) == 0 {
		return Outcome{Kind: Refused, Answer: SummaryUnavailableAnswer}, nil
	}

	answer, err := p.composer.Compose(ctx, SummaryDirective(question), passages, apiKey)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: Answered, Answer: answer}, nil
}
