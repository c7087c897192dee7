package audiocapture

import (
	"time"

	"github.com/google/uuid"
)

// Session is one utterance: the blocks captured between an activate and
// the deactivate that ends it, in arrival order.
type Session struct {
	ID         string
	Started    time.Time
	SampleRate int

	blocks  [][]float32
	samples int
}

// NewSession starts an empty session.
func NewSession(sampleRate int) *Session {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	return &Session{
		ID:         uuid.New().String(),
		Started:    time.Now(),
		SampleRate: sampleRate,
	}
}

// Append adds a block. The session keeps the slice; callers hand over a copy.
func (s *Session) Append(block []float32) {
	if len(block) == 0 {
		return
	}
	s.blocks = append(s.blocks, block)
	s.samples += len(block)
}

// Blocks returns the number of blocks captured.
func (s *Session) Blocks() int {
	return len(s.blocks)
}

// Len returns the total number of samples captured.
func (s *Session) Len() int {
	return s.samples
}

// Empty reports whether no audio was captured.
func (s *Session) Empty() bool {
	return s.samples == 0
}

// Duration is the sum of the block durations.
func (s *Session) Duration() time.Duration {
	return BlockDuration(s.samples, s.SampleRate)
}

// Samples concatenates all blocks.
func (s *Session) Samples() []float32 {
	out := make([]float32, 0, s.samples)
	for _, b := range s.blocks {
		out = append(out, b...)
	}
	return out
}
