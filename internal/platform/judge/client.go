package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusProcessing is the highest non-terminal status id in the judge's
// enumeration (1 = in queue, 2 = processing). Everything above it is a
// finished outcome: accepted, wrong answer, runtime error, compile error,
// time limit exceeded and so on. Treating "id > 2" as terminal keeps the
// client forward-compatible with statuses the judge adds later.
const StatusProcessing = 2

type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Terminal reports whether the job will not change further.
func (s Status) Terminal() bool {
	return s.ID > StatusProcessing
}

// Snapshot is one observation of a submitted job.
type Snapshot struct {
	Token         string  `json:"token"`
	Status        Status  `json:"status"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	CompileOutput string  `json:"compile_output"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
}

type Submission struct {
	SourceCode             string `json:"source_code"`
	LanguageID             int    `json:"language_id"`
	Stdin                  string `json:"stdin"`
	RedirectStderrToStdout bool   `json:"redirect_stderr_to_stdout"`
}

// Client is the judge transport. The HTTP implementation talks to a
// Judge0-compatible API; tests substitute a fake.
type Client interface {
	// Submit sends one job and returns the judge's submission token.
	Submit(ctx context.Context, sub Submission) (string, error)
	// Result fetches the current state of a submitted job by token.
	Result(ctx context.Context, token string) (Snapshot, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	apiHost string
	httpc   *http.Client
}

func NewHTTPClient(baseURL, apiKey, apiHost string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		apiHost: apiHost,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// fieldFlags requests plain-text payloads and the full field set.
const fieldFlags = "base64_encoded=false&fields=*"

func (c *HTTPClient) Submit(ctx context.Context, sub Submission) (string, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("judge: marshal submission: %w", err)
	}

	url := c.baseURL + "/submissions?" + fieldFlags
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("judge: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("judge: submit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("judge: submit returned status %d: %s", resp.StatusCode, payload)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("judge: decode submit response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("judge: submit response carried no token")
	}
	return out.Token, nil
}

func (c *HTTPClient) Result(ctx context.Context, token string) (Snapshot, error) {
	url := c.baseURL + "/submissions/" + token + "?" + fieldFlags
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("judge: build result request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("judge: result request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Snapshot{}, fmt.Errorf("judge: result returned status %d: %s", resp.StatusCode, payload)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("judge: decode result response: %w", err)
	}
	return snap, nil
}

func (c *HTTPClient) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	}
}
