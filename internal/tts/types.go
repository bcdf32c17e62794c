package tts

import "context"

// Task is one unit of synthesis work. Indices are dense and 0-based,
// assigned by whatever parsed the input; tasks are not mutated after
// construction.
type Task struct {
	Index        int
	Text         string
	Voice        string
	ContextTexts []string
	SectionID    string
}

// Result pairs a task index with either synthesized audio or an error
// string. Exactly one of Audio/Err is populated.
type Result struct {
	Index int
	Text  string
	Audio []byte
	Err   string
}

// Success reports whether the task produced audio.
func (r Result) Success() bool {
	return len(r.Audio) > 0 && r.Err == ""
}

// SynthRequest contains parameters to synthesize speech.
type SynthRequest struct {
	Text         string
	Voice        string
	ContextTexts []string
	SectionID    string
}

// Synthesizer is the contract for producing audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) ([]byte, error)
}
