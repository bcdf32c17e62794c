package protocol

import "time"

// BatchItem reports completion of a single synthesis task within a batch.
// Items are published in completion order, not index order.
type BatchItem struct {
	BatchID   string    `json:"batch_id"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	AudioSize int       `json:"audio_size,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchDone summarizes a finished batch.
type BatchDone struct {
	BatchID   string    `json:"batch_id"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectBatchItem = "tts.batch.item"
	SubjectBatchDone = "tts.batch.done"
)
