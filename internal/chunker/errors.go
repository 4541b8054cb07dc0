package chunker

import "errors"

// Sentinel errors surfaced by Chunk/StreamChunks/ChunkWithPriority, per
// spec.md §7.
var (
	ErrEmptyInput      = errors.New("chunker: empty input")
	ErrCircuitOpen     = errors.New("chunker: circuit breaker open")
	ErrTimeout         = errors.New("chunker: processing timeout exceeded")
	ErrMemorySafety    = errors.New("chunker: aborted to protect memory safety")
	ErrStrategyFailure = errors.New("chunker: strategy failed after retry")
)
