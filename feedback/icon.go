package feedback

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"go.aimuz.me/dictator/dictation"
)

const (
	iconSize   = 64
	iconRadius = 28
)

var stateColors = map[dictation.State]color.RGBA{
	dictation.StateIdle:       {R: 0x06, G: 0xb6, B: 0xd4, A: 0xff},
	dictation.StateRecording:  {R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	dictation.StateProcessing: {R: 0xea, G: 0xb3, B: 0x08, A: 0xff},
}

var (
	iconOnce sync.Once
	icons    map[dictation.State][]byte
)

// Icon returns a PNG of a filled circle in the color of state.
func Icon(state dictation.State) []byte {
	iconOnce.Do(func() {
		icons = make(map[dictation.State][]byte, len(stateColors))
		for st, c := range stateColors {
			icons[st] = drawCircle(c)
		}
	})
	if icon, ok := icons[state]; ok {
		return icon
	}
	return icons[dictation.StateIdle]
}

func drawCircle(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			if dx*dx+dy*dy <= iconRadius*iconRadius {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory RGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
