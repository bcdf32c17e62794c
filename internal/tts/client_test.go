package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voxbatch/voxbatch/internal/config"
)

func testTTSConfig(endpoint string) config.TTSConfig {
	return config.TTSConfig{
		Mode:             "remote",
		Endpoint:         endpoint,
		AppID:            "app-1",
		AccessToken:      "token-1",
		ResourceID:       "resource-1",
		Format:           "mp3",
		SampleRate:       24000,
		RequestTimeoutMS: 5000,
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestSynthesizeConcatenatesFragmentsInOrder(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		fmt.Fprintf(w, "{\"data\":%q}\n", b64("Hel"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "heartbeat")
		fmt.Fprintf(w, "{\"data\":%q,\"code\":0}\n", b64("lo wo"))
		fmt.Fprintf(w, "{\"data\":%q}\n", b64("rld"))
		fmt.Fprintln(w, `{"code":20000000}`)
	}))
	defer srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	audio, err := client.Synthesize(context.Background(), SynthRequest{Text: "hello", Voice: "voice-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "Hello world" {
		t.Fatalf("expected fragments concatenated in order, got %q", audio)
	}

	if gotHeaders.Get("X-Api-App-Id") != "app-1" ||
		gotHeaders.Get("X-Api-Access-Key") != "token-1" ||
		gotHeaders.Get("X-Api-Resource-Id") != "resource-1" {
		t.Fatalf("missing auth headers: %v", gotHeaders)
	}
	if gotHeaders.Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type, got %q", gotHeaders.Get("Content-Type"))
	}

	if gotBody["namespace"] != "BidirectionalTTS" {
		t.Fatalf("expected namespace BidirectionalTTS, got %v", gotBody["namespace"])
	}
	params, ok := gotBody["req_params"].(map[string]any)
	if !ok {
		t.Fatalf("missing req_params: %v", gotBody)
	}
	if params["text"] != "hello" || params["speaker"] != "voice-a" {
		t.Fatalf("unexpected req_params: %v", params)
	}
	audioParams, ok := params["audio_params"].(map[string]any)
	if !ok || audioParams["format"] != "mp3" || audioParams["sample_rate"] != float64(24000) {
		t.Fatalf("unexpected audio_params: %v", params["audio_params"])
	}
	if _, present := params["additions"]; present {
		t.Fatalf("additions must be absent without context texts or section id")
	}
}

func TestSynthesizeEncodesAdditionsAsJSONString(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		fmt.Fprintf(w, "{\"data\":%q}\n", b64("x"))
	}))
	defer srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	_, err := client.Synthesize(context.Background(), SynthRequest{
		Text:         "hi",
		Voice:        "voice-a",
		ContextTexts: []string{"cheerful", "slow"},
		SectionID:    "sec-9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := gotBody["req_params"].(map[string]any)
	raw, ok := params["additions"].(string)
	if !ok {
		t.Fatalf("additions must be a JSON-encoded string, got %T", params["additions"])
	}
	var additions struct {
		ContextTexts []string `json:"context_texts"`
		SectionID    string   `json:"section_id"`
	}
	if err := json.Unmarshal([]byte(raw), &additions); err != nil {
		t.Fatalf("additions is not valid JSON: %v", err)
	}
	if len(additions.ContextTexts) != 2 || additions.ContextTexts[0] != "cheerful" {
		t.Fatalf("unexpected context_texts: %v", additions.ContextTexts)
	}
	if additions.SectionID != "sec-9" {
		t.Fatalf("unexpected section_id: %q", additions.SectionID)
	}
}

func TestSynthesizeSectionIDOnlyAdditions(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		fmt.Fprintf(w, "{\"data\":%q}\n", b64("x"))
	}))
	defer srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	if _, err := client.Synthesize(context.Background(), SynthRequest{Text: "hi", Voice: "v", SectionID: "s1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := gotBody["req_params"].(map[string]any)["additions"].(string)
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("additions is not valid JSON: %v", err)
	}
	if decoded["section_id"] != "s1" {
		t.Fatalf("unexpected section_id: %v", decoded)
	}
	if _, present := decoded["context_texts"]; present {
		t.Fatalf("empty context_texts must be omitted: %v", decoded)
	}
}

func TestSynthesizeAPIErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "{\"data\":%q}\n", b64("partial"))
		fmt.Fprintln(w, `{"code":45000001,"message":"quota exceeded"}`)
		fmt.Fprintf(w, "{\"data\":%q}\n", b64("never"))
	}))
	defer srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	_, err := client.Synthesize(context.Background(), SynthRequest{Text: "hi", Voice: "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	terr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.StatusCode != 45000001 {
		t.Fatalf("expected code 45000001, got %d", terr.StatusCode)
	}
	if !strings.Contains(terr.Message, "quota exceeded") {
		t.Fatalf("expected message to carry api detail, got %q", terr.Message)
	}
}

func TestSynthesizeBenignCodesAreNotErrors(t *testing.T) {
	for _, code := range []int{0, 20000000} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "{\"data\":%q,\"code\":%d}\n", b64("ok"), code)
		}))
		client := NewClient(testTTSConfig(srv.URL))
		audio, err := client.Synthesize(context.Background(), SynthRequest{Text: "hi", Voice: "v"})
		srv.Close()
		if err != nil {
			t.Fatalf("code %d must not be an error: %v", code, err)
		}
		if string(audio) != "ok" {
			t.Fatalf("unexpected audio for code %d: %q", code, audio)
		}
	}
}

func TestSynthesizeHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, strings.Repeat("x", 600))
	}))
	defer srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	_, err := client.Synthesize(context.Background(), SynthRequest{Text: "hi", Voice: "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	terr := err.(*Error)
	if terr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", terr.StatusCode)
	}
	if len(terr.Body) != 500 {
		t.Fatalf("expected body snippet capped at 500 bytes, got %d", len(terr.Body))
	}
}

func TestSynthesizeEmptyAudioIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"code":0}`)
		fmt.Fprintln(w, `{"code":20000000}`)
	}))
	defer srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	_, err := client.Synthesize(context.Background(), SynthRequest{Text: "hi", Voice: "v"})
	if err == nil {
		t.Fatal("expected empty-audio error")
	}
	if !strings.Contains(err.Error(), "empty audio") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSynthesizeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	_, err := client.Synthesize(context.Background(), SynthRequest{Text: "hi", Voice: "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	terr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.StatusCode != 0 {
		t.Fatalf("transport failures must not carry a status code, got %d", terr.StatusCode)
	}
}

func TestSynthesizeInvalidBase64IsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"data":"%%%not-base64%%%"}`)
	}))
	defer srv.Close()

	client := NewClient(testTTSConfig(srv.URL))
	_, err := client.Synthesize(context.Background(), SynthRequest{Text: "hi", Voice: "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "decode audio fragment") {
		t.Fatalf("unexpected error: %v", err)
	}
}
