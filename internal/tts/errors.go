package tts

// Error is the failure type surfaced by the Client. StatusCode carries the
// HTTP status of a non-200 response or the API-level code from a stream
// line; it is zero for transport and content failures. Body holds up to
// 500 bytes of the response for diagnostics.
type Error struct {
	Message    string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return e.Message
}
