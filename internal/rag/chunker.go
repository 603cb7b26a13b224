package rag

import "strings"

// SizeBand maps a total-length range onto a window size: total lengths below
// UpTo (in runes) use Size. UpTo zero marks the open-ended last band.
type SizeBand struct {
	UpTo int
	Size int
}

// ChunkOptions bounds the sliding window. Zero values fall back to the
// defaults below; ChunkSize zero selects the size from the band table by
// total text length, Overlap zero derives it from the percentage knobs.
type ChunkOptions struct {
	ChunkSize         int
	Overlap           int
	SizeBands         []SizeBand
	OverlapPercent    int
	MaxOverlapPercent int
	MinOverlap        int
	MinChunkSize      int
	MaxChunkSize      int
	MaxChunks         int
}

const (
	defaultMinChunkSize      = 900
	defaultMaxChunkSize      = 1800
	defaultMaxChunks         = 250
	defaultOverlapPercent    = 15
	defaultMaxOverlapPercent = 30
	defaultMinOverlap        = 120
)

// Hand-tuned production bands: short texts get smaller windows, very large
// ones the maximum.
func defaultSizeBands() []SizeBand {
	return []SizeBand{
		{UpTo: 15_000, Size: 1000},
		{UpTo: 80_000, Size: 1200},
		{UpTo: 200_000, Size: 1500},
		{Size: 1800},
	}
}

func (o ChunkOptions) withDefaults() ChunkOptions {
	if len(o.SizeBands) == 0 {
		o.SizeBands = defaultSizeBands()
	}
	if o.OverlapPercent <= 0 {
		o.OverlapPercent = defaultOverlapPercent
	}
	if o.MaxOverlapPercent <= 0 {
		o.MaxOverlapPercent = defaultMaxOverlapPercent
	}
	if o.MinOverlap <= 0 {
		o.MinOverlap = defaultMinOverlap
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = defaultMinChunkSize
	}
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = defaultMaxChunkSize
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = defaultMaxChunks
	}
	return o
}

func (o ChunkOptions) sizeFor(total int) int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	for _, band := range o.SizeBands {
		if band.UpTo <= 0 || total < band.UpTo {
			return band.Size
		}
	}
	return o.MaxChunkSize
}

// Chunk splits text into overlapping windows sized for unknown PDF lengths.
// Pure function of its inputs: no randomness, no external calls.
//
//   - Window size, unless overridden, comes from the band table keyed by the
//     total length. The result is always clamped into
//     [MinChunkSize, MaxChunkSize].
//   - Overlap defaults to OverlapPercent of the window, clamped into
//     [MinOverlap, MaxOverlapPercent of the window], so context spanning a
//     boundary stays retrievable.
//   - Windows are whitespace-trimmed; empty ones are skipped.
//   - At most MaxChunks windows are produced; the tail of a pathologically
//     large document is dropped rather than failing the ingestion.
func Chunk(text string, opts ChunkOptions) []string {
	if text == "" {
		return nil
	}
	opts = opts.withDefaults()

	runes := []rune(text)
	total := len(runes)

	size := opts.sizeFor(total)
	if size < opts.MinChunkSize {
		size = opts.MinChunkSize
	}
	if size > opts.MaxChunkSize {
		size = opts.MaxChunkSize
	}

	overlap := opts.Overlap
	if overlap <= 0 {
		overlap = size * opts.OverlapPercent / 100
	}
	if max := size * opts.MaxOverlapPercent / 100; overlap > max {
		overlap = max
	}
	if overlap < opts.MinOverlap {
		overlap = opts.MinOverlap
	}
	// the window must advance
	if overlap >= size {
		overlap = size / 2
	}

	var chunks []string
	start := 0
	for start < total && len(chunks) < opts.MaxChunks {
		end := start + size
		sliceEnd := end
		if sliceEnd > total {
			sliceEnd = total
		}
		piece := strings.TrimSpace(string(runes[start:sliceEnd]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		start = end - overlap
	}
	return chunks
}
