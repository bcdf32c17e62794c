package taskset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/voxbatch/voxbatch/internal/tts"
)

// Column aliases accepted for each logical field, checked in order with
// case-insensitive matching. The Chinese forms are carried for compatibility
// with the spreadsheets this tool historically consumed.
var (
	textCols    = []string{"#文本", "text", "文本", "内容", "文字", "句子", "query", "问题"}
	voiceCols   = []string{"voice_type", "voice", "音色", "音色类型", "情感/状态类型"}
	contextCols = []string{"#语音指令", "context_texts", "context", "语音指令", "指令"}
	sectionCols = []string{"section_id", "section", "会话ID", "分段ID"}
)

var actionRE = regexp.MustCompile(`【[^】]*】`)

// StripActionText removes bracketed stage directions, keeping only the
// dialogue text.
func StripActionText(s string) string {
	return strings.TrimSpace(actionRE.ReplaceAllString(s, ""))
}

var contextSplitRE = regexp.MustCompile(`[,，\n]+`)

// SplitContext splits a raw instruction cell on commas (ASCII or fullwidth)
// and newlines, dropping empty parts.
func SplitContext(raw string) []string {
	var parts []string
	for _, p := range contextSplitRE.Split(raw, -1) {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// ParseLines builds one task per non-empty line of text. Lines starting with
// '#' are comments. contextTexts and sectionID apply to every task.
func ParseLines(text, voice string, contextTexts []string, sectionID string) []tts.Task {
	var tasks []tts.Task
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tasks = append(tasks, tts.Task{
			Index:        len(tasks),
			Text:         line,
			Voice:        voice,
			ContextTexts: contextTexts,
			SectionID:    sectionID,
		})
	}
	return tasks
}

// ParseCSV reads a header-driven CSV into tasks. A text column is required;
// voice, context and section columns are optional, with the per-row voice
// falling back to defaultVoice. Rows whose text is empty after stripping
// action directions are skipped, so indices stay dense.
func ParseCSV(r io.Reader, defaultVoice string) ([]tts.Task, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv input is empty")
	}

	header := records[0]
	textIdx := findColumn(header, textCols)
	if textIdx < 0 {
		return nil, fmt.Errorf("no text column found, expected one of %v", textCols)
	}
	voiceIdx := findColumn(header, voiceCols)
	contextIdx := findColumn(header, contextCols)
	sectionIdx := findColumn(header, sectionCols)

	var tasks []tts.Task
	for _, row := range records[1:] {
		text := StripActionText(cell(row, textIdx))
		if text == "" {
			continue
		}

		voice := defaultVoice
		if v := cell(row, voiceIdx); v != "" {
			voice = v
		}

		var contextTexts []string
		if raw := cell(row, contextIdx); raw != "" {
			contextTexts = SplitContext(raw)
		}

		tasks = append(tasks, tts.Task{
			Index:        len(tasks),
			Text:         text,
			Voice:        voice,
			ContextTexts: contextTexts,
			SectionID:    cell(row, sectionIdx),
		})
	}
	return tasks, nil
}

func findColumn(header []string, candidates []string) int {
	for _, c := range candidates {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), c) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
