// Package exec submits code to the external Judge0 execution service and
// polls for the result. The service is a narrow request/response boundary;
// faults here never touch the live collaborative session.
package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for the submit-then-poll cycle. The poll loop is bounded: a
// submission that never reaches a terminal status gives up after MaxAttempts
// instead of waiting forever.
const (
	DefaultEndpoint     = "https://judge0-ce.p.rapidapi.com"
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 30
)

var (
	// ErrMissingAPIKey is a configuration fault surfaced at the boundary of
	// the request that needed the key, not at process start.
	ErrMissingAPIKey = errors.New("execution api key not configured")
	// ErrUnsupportedLanguage reports a language without a judge mapping.
	ErrUnsupportedLanguage = errors.New("language not supported for execution")
	// ErrPollTimeout reports a submission still running after the attempt cap.
	ErrPollTimeout = errors.New("execution result polling exceeded attempt cap")
)

// languageIDs maps friendly language names to Judge0 language ids.
var languageIDs = map[string]int{
	"javascript": 93,
	"typescript": 94,
	"python":     71,
	"java":       62,
}

// clientSideLanguages render in the browser and never reach the judge.
var clientSideLanguages = map[string]bool{
	"html": true,
	"css":  true,
}

// IsClientSide reports whether a language is rendered client-side rather
// than executed.
func IsClientSide(language string) bool {
	return clientSideLanguages[language]
}

// Result is the outcome of a finished run. A failing program (non-empty
// Stderr or CompileOutput) is still a successful execution, distinct from a
// service fault.
type Result struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Status        string `json:"status"`
	Time          string `json:"time"`
	Memory        int    `json:"memory"`
}

// Client talks to a Judge0-compatible endpoint.
type Client struct {
	endpoint     string
	host         string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxAttempts  int
	log          *zerolog.Logger
}

// NewClient builds a judge client. An empty endpoint picks the default; the
// api key may be empty, in which case every Run fails with ErrMissingAPIKey.
func NewClient(endpoint, apiKey string, logger *zerolog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	host := ""
	if u, err := url.Parse(endpoint); err == nil {
		host = u.Host
	}
	return &Client{
		endpoint:     endpoint,
		host:         host,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		log:          logger,
	}
}

// WithPolling overrides the poll cadence. Useful for tests and for
// deployments fronting a fast self-hosted judge.
func (c *Client) WithPolling(interval time.Duration, maxAttempts int) *Client {
	if interval > 0 {
		c.pollInterval = interval
	}
	if maxAttempts > 0 {
		c.maxAttempts = maxAttempts
	}
	return c
}

type submissionRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
}

type submissionResponse struct {
	Token string `json:"token"`
}

type pollResponse struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Time          string `json:"time"`
	Memory        int    `json:"memory"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Run submits the source and polls until a terminal status or the attempt
// cap. Status ids 1 (in queue) and 2 (processing) are non-terminal.
func (c *Client) Run(ctx context.Context, source, language string) (*Result, error) {
	languageID, ok := languageIDs[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	token, err := c.submit(ctx, source, languageID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		poll, err := c.poll(ctx, token)
		if err != nil {
			return nil, err
		}
		if poll.Status.ID > 2 {
			return &Result{
				Stdout:        poll.Stdout,
				Stderr:        poll.Stderr,
				CompileOutput: poll.CompileOutput,
				Status:        poll.Status.Description,
				Time:          poll.Time,
				Memory:        poll.Memory,
			}, nil
		}
	}

	return nil, ErrPollTimeout
}

func (c *Client) submit(ctx context.Context, source string, languageID int) (string, error) {
	payload, err := json.Marshal(submissionRequest{SourceCode: source, LanguageID: languageID})
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}

	submitURL := c.endpoint + "/submissions?base64_encoded=false&wait=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit to judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("judge submission failed with status %d", resp.StatusCode)
	}

	var sub submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return "", fmt.Errorf("decode submission response: %w", err)
	}
	if sub.Token == "" {
		return "", errors.New("judge returned no submission token")
	}

	if c.log != nil {
		c.log.Debug().Str("token", sub.Token).Msg("judge submission created")
	}
	return sub.Token, nil
}

func (c *Client) poll(ctx context.Context, token string) (*pollResponse, error) {
	pollURL := fmt.Sprintf("%s/submissions/%s?base64_encoded=false", c.endpoint, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("judge poll failed with status %d", resp.StatusCode)
	}

	var poll pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&poll); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &poll, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	if c.host != "" {
		req.Header.Set("X-RapidAPI-Host", c.host)
	}
}
