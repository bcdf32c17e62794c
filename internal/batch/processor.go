package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/voxbatch/voxbatch/internal/tts"
)

// DefaultMaxWorkers bounds concurrent synthesis calls when no explicit
// worker count is configured.
const DefaultMaxWorkers = 10

// Processor fans synthesis tasks out across a bounded set of workers and
// fans completions back through a callback.
type Processor struct {
	synth   tts.Synthesizer
	workers int
	log     *slog.Logger
}

func NewProcessor(synth tts.Synthesizer, maxWorkers int, logger *slog.Logger) *Processor {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Processor{
		synth:   synth,
		workers: maxWorkers,
		log:     logger.With(slog.String("component", "batch")),
	}
}

// Process runs every task through the synthesizer, at most maxWorkers at a
// time. Per-task failures of any kind become Results carrying an error
// string; they never abort the batch. onResult, when non-nil, is invoked
// exactly once per task in completion order, serialized by the accumulator
// lock. The returned slice is sorted ascending by task index and always has
// one entry per submitted task.
func (p *Processor) Process(ctx context.Context, tasks []tts.Task, onResult func(tts.Result)) []tts.Result {
	if len(tasks) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		results = make(map[int]tts.Result, len(tasks))
		wg      sync.WaitGroup
		sema    = make(chan struct{}, p.workers)
	)

	for _, task := range tasks {
		wg.Add(1)
		go func(task tts.Task) {
			defer wg.Done()
			sema <- struct{}{}
			defer func() { <-sema }()

			res := p.runTask(ctx, task)

			mu.Lock()
			results[res.Index] = res
			if onResult != nil {
				onResult(res)
			}
			mu.Unlock()
		}(task)
	}
	wg.Wait()

	indices := make([]int, 0, len(results))
	for idx := range results {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	ordered := make([]tts.Result, 0, len(indices))
	for _, idx := range indices {
		ordered = append(ordered, results[idx])
	}
	return ordered
}

func (p *Processor) runTask(ctx context.Context, task tts.Task) (res tts.Result) {
	res = tts.Result{Index: task.Index, Text: task.Text}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("synthesis task panicked",
				slog.Int("index", task.Index), slog.Any("panic", r))
			res.Audio = nil
			res.Err = fmt.Sprintf("unknown error: %v", r)
		}
	}()

	audio, err := p.synth.Synthesize(ctx, tts.SynthRequest{
		Text:         task.Text,
		Voice:        task.Voice,
		ContextTexts: task.ContextTexts,
		SectionID:    task.SectionID,
	})
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Audio = audio
	return res
}
