package audiocapture

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio captures from the default input device through PortAudio.
type PortAudio struct {
	sampleRate      int
	framesPerBuffer int

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
}

// NewPortAudio creates a mono PortAudio capturer. Zero values select
// SampleRate and FramesPerBuffer.
func NewPortAudio(sampleRate, framesPerBuffer int) *PortAudio {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	if framesPerBuffer <= 0 {
		framesPerBuffer = FramesPerBuffer
	}
	return &PortAudio{sampleRate: sampleRate, framesPerBuffer: framesPerBuffer}
}

// Start opens the default input stream.
func (p *PortAudio) Start(handler AudioHandler) error {
	if handler == nil {
		return fmt.Errorf("audiocapture: nil handler")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrRunning
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize portaudio: %v", ErrDeviceUnavailable, err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(p.sampleRate), p.framesPerBuffer, func(in []float32) {
		handler(in)
	})
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: open input stream: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: start input stream: %v", ErrDeviceUnavailable, err)
	}

	p.stream = stream
	p.running = true
	return nil
}

// Stop stops the stream and waits for pending callbacks to finish.
func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false

	var firstErr error
	if err := p.stream.Stop(); err != nil {
		firstErr = fmt.Errorf("stop input stream: %w", err)
	}
	if err := p.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close input stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("terminate portaudio: %w", err)
	}
	p.stream = nil
	return firstErr
}
