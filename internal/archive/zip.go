package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/voxbatch/voxbatch/internal/tts"
)

var unsafeRE = regexp.MustCompile("[\\\\/:*?\"<>|\n\r\t]")

// SafeFilename derives the archive entry name for one result: the 1-based
// zero-padded index, an underscore, and the first 20 runes of the text with
// filesystem-unsafe characters removed.
func SafeFilename(text string, index int) string {
	clean := strings.TrimSpace(unsafeRE.ReplaceAllString(text, ""))
	runes := []rune(clean)
	if len(runes) > 20 {
		runes = runes[:20]
	}
	return fmt.Sprintf("%03d_%s.mp3", index+1, string(runes))
}

// BuildZip packs the successful results into an in-memory deflated zip.
// Failed results are skipped. Entry names are unique because every result
// carries a distinct index prefix.
func BuildZip(results []tts.Result) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, res := range results {
		if !res.Success() {
			continue
		}
		w, err := zw.Create(SafeFilename(res.Text, res.Index))
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("create zip entry: %w", err)
		}
		if _, err := w.Write(res.Audio); err != nil {
			zw.Close()
			return nil, fmt.Errorf("write zip entry: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}
