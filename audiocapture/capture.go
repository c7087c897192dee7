// Package audiocapture records microphone audio into dictation sessions.
package audiocapture

import (
	"errors"
	"time"
)

// SampleRate is the capture rate in Hz. Whisper expects 16 kHz mono.
const SampleRate = 16000

// FramesPerBuffer is the number of samples delivered per block.
const FramesPerBuffer = 1024

// ErrRunning is returned when trying to start a capturer that is already running.
var ErrRunning = errors.New("audiocapture: already running")

// ErrDeviceUnavailable is returned when no input device can be opened.
var ErrDeviceUnavailable = errors.New("audiocapture: input device unavailable")

// AudioHandler receives blocks of float32 samples in the range [-1, 1].
// The slice is only valid until the handler returns.
type AudioHandler func(samples []float32)

// Capturer owns a live input stream.
type Capturer interface {
	// Start opens the device and begins delivering blocks to handler.
	Start(handler AudioHandler) error
	// Stop stops and releases the device. Once it returns no further
	// blocks are delivered. Stopping a stopped capturer is a no-op.
	Stop() error
}

// BlockDuration returns the playback duration of n samples at rate.
func BlockDuration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}
