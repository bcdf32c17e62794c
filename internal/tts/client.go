package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxbatch/voxbatch/internal/config"
)

// codeStreamEnd marks clean stream termination. The service reports it as a
// non-zero code but it is not an error.
const codeStreamEnd = 20000000

const maxBodySnippet = 500

// A single stream line carries a whole base64 audio fragment, which can run
// well past bufio's default token size.
const (
	scanInitialBuf = 64 * 1024
	scanMaxBuf     = 10 * 1024 * 1024
)

// Client performs synchronous synthesis calls against the remote speech
// service's unidirectional streaming endpoint.
type Client struct {
	cfg        config.TTSConfig
	httpClient *http.Client
}

func NewClient(cfg config.TTSConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type synthPayload struct {
	Namespace string      `json:"namespace"`
	ReqParams synthParams `json:"req_params"`
}

type synthParams struct {
	Text        string      `json:"text"`
	Speaker     string      `json:"speaker"`
	AudioParams audioParams `json:"audio_params"`
	// Additions is itself a JSON document, carried as a string. The service
	// requires this double encoding.
	Additions string `json:"additions,omitempty"`
}

type audioParams struct {
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

type synthAdditions struct {
	ContextTexts []string `json:"context_texts,omitempty"`
	SectionID    string   `json:"section_id,omitempty"`
}

type streamLine struct {
	Data    string `json:"data"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Synthesize sends one request and consumes the newline-delimited JSON
// response, concatenating base64 audio fragments in arrival order. Every
// failure is returned as a *Error.
func (c *Client) Synthesize(ctx context.Context, req SynthRequest) ([]byte, error) {
	payload := synthPayload{
		Namespace: "BidirectionalTTS",
		ReqParams: synthParams{
			Text:    req.Text,
			Speaker: req.Voice,
			AudioParams: audioParams{
				Format:     c.cfg.Format,
				SampleRate: c.cfg.SampleRate,
			},
		},
	}
	if len(req.ContextTexts) > 0 || req.SectionID != "" {
		additions, err := json.Marshal(synthAdditions{
			ContextTexts: req.ContextTexts,
			SectionID:    req.SectionID,
		})
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("encode additions: %v", err)}
		}
		payload.ReqParams.Additions = string(additions)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("encode request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("X-Api-App-Id", c.cfg.AppID)
	httpReq.Header.Set("X-Api-Access-Key", c.cfg.AccessToken)
	httpReq.Header.Set("X-Api-Resource-Id", c.cfg.ResourceID)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
		return nil, &Error{
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	var audio []byte
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, scanInitialBuf), scanMaxBuf)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk streamLine
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Heartbeat or other non-JSON framing; skip it.
			continue
		}
		if chunk.Data != "" {
			fragment, err := base64.StdEncoding.DecodeString(chunk.Data)
			if err != nil {
				return nil, &Error{Message: fmt.Sprintf("decode audio fragment: %v", err)}
			}
			audio = append(audio, fragment...)
		}
		if chunk.Code != 0 && chunk.Code != codeStreamEnd {
			return nil, &Error{
				Message:    fmt.Sprintf("api error: code=%d, message=%s", chunk.Code, chunk.Message),
				StatusCode: chunk.Code,
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Message: fmt.Sprintf("read response stream: %v", err)}
	}

	if len(audio) == 0 {
		return nil, &Error{Message: "empty audio in response"}
	}

	return audio, nil
}
