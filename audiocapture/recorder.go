package audiocapture

import (
	"fmt"
	"log/slog"
	"sync"
)

// blockQueue bounds the handoff between the capture callback and the
// goroutine that owns the session.
const blockQueue = 64

// Recorder arms a Capturer for one session at a time.
type Recorder struct {
	capturer Capturer
}

// NewRecorder returns a Recorder on top of c.
func NewRecorder(c Capturer) *Recorder {
	return &Recorder{capturer: c}
}

// Stream is an armed capture feeding one session.
type Stream struct {
	capturer Capturer
	session  *Session

	mu      sync.RWMutex
	stopped bool
	blocks  chan []float32
	drained chan struct{}

	once sync.Once
	err  error
}

// Arm starts the device and appends every delivered block to session until
// the stream is disarmed. The session must not be touched until Disarm
// returns.
func (r *Recorder) Arm(session *Session) (*Stream, error) {
	s := &Stream{
		capturer: r.capturer,
		session:  session,
		blocks:   make(chan []float32, blockQueue),
		drained:  make(chan struct{}),
	}
	go s.drain()

	if err := r.capturer.Start(s.deliver); err != nil {
		s.fence()
		<-s.drained
		return nil, fmt.Errorf("arm capture: %w", err)
	}

	slog.Debug("capture armed", "session", session.ID)
	return s, nil
}

// deliver runs on the capture thread. It blocks while the queue is full
// rather than dropping audio, and drops anything arriving after Disarm.
func (s *Stream) deliver(samples []float32) {
	if len(samples) == 0 {
		return
	}
	block := make([]float32, len(samples))
	copy(block, samples)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return
	}
	s.blocks <- block
}

func (s *Stream) drain() {
	defer close(s.drained)
	for block := range s.blocks {
		s.session.Append(block)
	}
}

// fence stops accepting blocks and closes the queue. In-flight deliveries
// finish first because they hold the read lock.
func (s *Stream) fence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.blocks)
}

// Disarm stops the device and waits until every accepted block has been
// appended to the session. Calling it again is a no-op.
func (s *Stream) Disarm() error {
	s.once.Do(func() {
		s.fence()
		if err := s.capturer.Stop(); err != nil {
			s.err = fmt.Errorf("disarm capture: %w", err)
		}
		<-s.drained
		slog.Debug("capture disarmed", "session", s.session.ID, "blocks", s.session.Blocks())
	})
	return s.err
}

// Session returns the session fed by this stream.
func (s *Stream) Session() *Session {
	return s.session
}
