package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxbatch/voxbatch/internal/tts"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubSynth echoes the text back as audio. Texts starting with "fail" error,
// "boom" panics, and a per-text sleep keeps completion order unpredictable.
type stubSynth struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *stubSynth) Synthesize(ctx context.Context, req tts.SynthRequest) ([]byte, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		max := s.maxInFlight.Load()
		if current <= max || s.maxInFlight.CompareAndSwap(max, current) {
			break
		}
	}

	time.Sleep(time.Duration(len(req.Text)%5) * time.Millisecond)

	if strings.HasPrefix(req.Text, "boom") {
		panic("synthesizer exploded")
	}
	if strings.HasPrefix(req.Text, "fail") {
		return nil, &tts.Error{Message: "synthesis refused"}
	}
	return []byte(req.Text), nil
}

func makeTasks(n int) []tts.Task {
	tasks := make([]tts.Task, n)
	for i := range tasks {
		tasks[i] = tts.Task{Index: i, Text: fmt.Sprintf("line %d", i), Voice: "v"}
	}
	return tasks
}

func TestProcessReturnsOrderedResults(t *testing.T) {
	proc := NewProcessor(&stubSynth{}, 4, newLogger())
	tasks := makeTasks(25)

	calls := 0
	results := proc.Process(context.Background(), tasks, func(tts.Result) { calls++ })

	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}
	if calls != len(tasks) {
		t.Fatalf("expected %d callbacks, got %d", len(tasks), calls)
	}
	for i, res := range results {
		if res.Index != i {
			t.Fatalf("result %d has index %d", i, res.Index)
		}
		if !res.Success() {
			t.Fatalf("result %d failed: %s", i, res.Err)
		}
		if string(res.Audio) != tasks[i].Text {
			t.Fatalf("result %d echoes wrong audio: %q", i, res.Audio)
		}
	}
}

func TestProcessEmptyInput(t *testing.T) {
	proc := NewProcessor(&stubSynth{}, 4, newLogger())

	calls := 0
	results := proc.Process(context.Background(), nil, func(tts.Result) { calls++ })

	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if calls != 0 {
		t.Fatalf("expected no callbacks, got %d", calls)
	}
}

func TestProcessIsolatesFailures(t *testing.T) {
	proc := NewProcessor(&stubSynth{}, 3, newLogger())
	tasks := []tts.Task{
		{Index: 0, Text: "first", Voice: "v"},
		{Index: 1, Text: "fail me", Voice: "v"},
		{Index: 2, Text: "boom now", Voice: "v"},
		{Index: 3, Text: "last", Voice: "v"},
	}

	results := proc.Process(context.Background(), tasks, nil)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].Success() || !results[3].Success() {
		t.Fatalf("sibling tasks must not be affected: %+v", results)
	}
	if results[1].Success() || results[1].Err == "" {
		t.Fatalf("expected failure result at index 1: %+v", results[1])
	}
	if !strings.Contains(results[1].Err, "synthesis refused") {
		t.Fatalf("expected client error message, got %q", results[1].Err)
	}
	if !strings.Contains(results[2].Err, "unknown error") {
		t.Fatalf("panics must surface as unknown errors, got %q", results[2].Err)
	}
	if results[2].Audio != nil {
		t.Fatalf("failure result must not carry audio")
	}
}

func TestProcessBoundsConcurrency(t *testing.T) {
	synth := &stubSynth{}
	proc := NewProcessor(synth, 3, newLogger())

	proc.Process(context.Background(), makeTasks(30), nil)

	if max := synth.maxInFlight.Load(); max > 3 {
		t.Fatalf("expected at most 3 concurrent calls, saw %d", max)
	}
}

func TestProcessDeterministicAcrossRuns(t *testing.T) {
	proc := NewProcessor(&stubSynth{}, 5, newLogger())
	tasks := makeTasks(40)

	first := proc.Process(context.Background(), tasks, nil)
	for run := 0; run < 4; run++ {
		again := proc.Process(context.Background(), tasks, nil)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced a different ordered result set", run)
		}
	}
}

func TestProcessCallbackSeesCompleteResults(t *testing.T) {
	proc := NewProcessor(&stubSynth{}, 4, newLogger())
	tasks := makeTasks(10)

	seen := make(map[int]bool)
	proc.Process(context.Background(), tasks, func(res tts.Result) {
		if seen[res.Index] {
			t.Errorf("index %d reported twice", res.Index)
		}
		seen[res.Index] = true
		if res.Text != tasks[res.Index].Text {
			t.Errorf("result %d echoes wrong text: %q", res.Index, res.Text)
		}
	})

	if len(seen) != len(tasks) {
		t.Fatalf("expected %d distinct callbacks, got %d", len(tasks), len(seen))
	}
}
