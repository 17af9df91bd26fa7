package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	xtlang "golang.org/x/text/language"
)

// Word is a single transcript token with its time span in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Phrase is a transcript sentence-ish span as returned by the service.
type Phrase struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is a verbose transcription. Words may be empty when the service
// does not support word granularity; callers fall back to distributing
// phrase text evenly.
type Result struct {
	Text     string   `json:"text"`
	Duration float64  `json:"duration"`
	Words    []Word   `json:"words"`
	Segments []Phrase `json:"segments"`
}

// Client talks to an OpenAI-compatible audio transcription endpoint.
type Client struct {
	url        string
	apiKey     string
	model      string
	lang       string
	httpClient *http.Client
}

func NewClient(url, apiKey, model string) *Client {
	if model == "" {
		model = "whisper-1"
	}
	return &Client{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		lang:       "en",
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// WithLanguage sets the transcription language hint. The tag is normalized
// to its BCP 47 base; unparseable values keep the current hint.
func (c *Client) WithLanguage(tag string) *Client {
	parsed, err := xtlang.Parse(tag)
	if err != nil || parsed == xtlang.Und {
		return c
	}
	base, _ := parsed.Base()
	c.lang = base.String()
	return c
}

// Transcribe uploads an audio file and returns word-level timing. Transient
// failures (connection errors, 429, 5xx) retry with exponential backoff;
// 4xx responses fail immediately.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	body, contentType, err := c.buildRequestBody(audioPath)
	if err != nil {
		return nil, err
	}

	var result *Result
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("transcription request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32*1024*1024))
		if err != nil {
			return fmt.Errorf("read transcription response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("transcription service returned %d: %s",
				resp.StatusCode, truncate(string(respBody), 300))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}

		var r Result
		if err := json.Unmarshal(respBody, &r); err != nil {
			return backoff.Permanent(fmt.Errorf("decode transcription response: %w", err))
		}
		result = &r
		return nil
	}

	retry := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, retry); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) buildRequestBody(audioPath string) ([]byte, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read audio file: %w", err)
	}

	fields := map[string]string{
		"model":                     c.model,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "word",
		"language":                  c.lang,
		"temperature":               "0",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
