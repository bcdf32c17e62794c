package tts

import (
	"context"
	"time"
)

type mockSynth struct {
	audio []byte
}

// NewMockSynth returns a Synthesizer that yields a fixed payload without
// touching the network. Used by tests and by voxd's mock mode.
func NewMockSynth(audio []byte) Synthesizer {
	return &mockSynth{audio: audio}
}

func (m *mockSynth) Synthesize(ctx context.Context, req SynthRequest) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, &Error{Message: ctx.Err().Error()}
	case <-time.After(10 * time.Millisecond):
	}
	if len(m.audio) == 0 {
		return nil, &Error{Message: "empty audio in response"}
	}
	out := make([]byte, len(m.audio))
	copy(out, m.audio)
	return out, nil
}
