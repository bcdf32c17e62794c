package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxbatch/voxbatch/internal/archive"
	"github.com/voxbatch/voxbatch/internal/batch"
	"github.com/voxbatch/voxbatch/internal/config"
	"github.com/voxbatch/voxbatch/internal/taskset"
	"github.com/voxbatch/voxbatch/internal/tts"
)

var version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'synth', 'batch' or 'version'")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "synth":
		if err := runSynth(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "batch":
		if err := runBatch(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func runSynth(args []string) error {
	var (
		configPath string
		text       string
		voice      string
		contexts   string
		sectionID  string
		outPath    string
	)
	cmd := flag.NewFlagSet("synth", flag.ExitOnError)
	cmd.StringVar(&configPath, "config", "", "Path to configuration file (optional, env overrides apply)")
	cmd.StringVar(&text, "text", "", "Text to synthesize")
	cmd.StringVar(&voice, "voice", "", "Voice identifier (defaults to configured voice)")
	cmd.StringVar(&contexts, "context", "", "Comma-separated instruction texts")
	cmd.StringVar(&sectionID, "section", "", "Section id for request correlation")
	cmd.StringVar(&outPath, "out", "out.mp3", "Output file")
	cmd.Parse(args)

	if text == "" {
		return fmt.Errorf("synth: -text must not be empty")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if voice == "" {
		voice = cfg.TTS.DefaultVoice
	}

	audio, err := buildSynthesizer(cfg).Synthesize(context.Background(), tts.SynthRequest{
		Text:         text,
		Voice:        voice,
		ContextTexts: taskset.SplitContext(contexts),
		SectionID:    sectionID,
	})
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", outPath, len(audio))
	return nil
}

func runBatch(args []string) error {
	var (
		configPath string
		inPath     string
		voice      string
		contexts   string
		sectionID  string
		outPath    string
		workers    int
	)
	cmd := flag.NewFlagSet("batch", flag.ExitOnError)
	cmd.StringVar(&configPath, "config", "", "Path to configuration file (optional, env overrides apply)")
	cmd.StringVar(&inPath, "in", "", "Input file: .csv with headers, anything else is line-delimited text")
	cmd.StringVar(&voice, "voice", "", "Default voice identifier")
	cmd.StringVar(&contexts, "context", "", "Comma-separated instruction texts applied to every line (text input only)")
	cmd.StringVar(&sectionID, "section", "", "Section id applied to every line (text input only)")
	cmd.StringVar(&outPath, "out", "out.zip", "Output archive")
	cmd.IntVar(&workers, "workers", 0, "Concurrent synthesis calls (0 = configured value)")
	cmd.Parse(args)

	if inPath == "" {
		return fmt.Errorf("batch: -in must not be empty")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if voice == "" {
		voice = cfg.TTS.DefaultVoice
	}
	if workers <= 0 {
		workers = cfg.Batch.MaxWorkers
	}

	tasks, err := loadTasks(inPath, voice, taskset.SplitContext(contexts), sectionID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no synthesizable lines in %s", inPath)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	proc := batch.NewProcessor(buildSynthesizer(cfg), workers, logger)

	done := 0
	results := proc.Process(context.Background(), tasks, func(res tts.Result) {
		done++
		if res.Success() {
			fmt.Fprintf(os.Stderr, "[%d/%d] ok   %s\n", done, len(tasks), archive.SafeFilename(res.Text, res.Index))
		} else {
			fmt.Fprintf(os.Stderr, "[%d/%d] fail #%d: %s\n", done, len(tasks), res.Index, res.Err)
		}
	})

	failed := 0
	for _, res := range results {
		if !res.Success() {
			failed++
		}
	}
	if failed == len(results) {
		return fmt.Errorf("all %d items failed, first error: %s", failed, results[0].Err)
	}

	zipData, err := archive.BuildZip(results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, zipData, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s: %d ok, %d failed\n", outPath, len(results)-failed, failed)
	return nil
}

func loadTasks(path, voice string, contextTexts []string, sectionID string) ([]tts.Task, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return taskset.ParseCSV(f, voice)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return taskset.ParseLines(string(data), voice, contextTexts, sectionID), nil
}

func buildSynthesizer(cfg config.Config) tts.Synthesizer {
	if cfg.TTS.Mode == "mock" {
		return tts.NewMockSynth([]byte("voxbatch-mock-audio"))
	}
	return tts.NewClient(cfg.TTS)
}
