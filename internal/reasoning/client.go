// Package reasoning provides a typed client for the local text-generation
// service that supplies natural-language rationale throughout the
// engine. Every failure mode collapses to "unavailable"; the client
// never retries (§4.4 — retry policy is the caller's concern, and in
// practice the caller's policy is "don't, degrade gracefully").
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Params enumerates exactly the fields §4.4 allows a caller to set.
type Params struct {
	Model      string
	MaxTokens  int
	Temperature float64
	Stop       []string
}

// request is the Ollama-style wire shape spec §6 specifies.
type request struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type options struct {
	NumPredict  int      `json:"num_predict"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop"`
}

type response struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Client talks to the reasoning endpoint. It holds no per-request state;
// a single instance is shared across concurrent callers (§5, "the
// Reasoning Client's connection is shared").
type Client struct {
	baseURL string
	http    *http.Client
	breaker *CircuitBreaker
}

// NewClient builds a Client pointed at addr (host:port, no scheme).
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: timeout},
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
	}
}

// Healthy probes the endpoint with a bounded-latency request. It is used
// only to decide whether to attempt Complete at all; Complete is always
// safe to call regardless of Healthy's answer.
func (c *Client) Healthy(ctx context.Context) bool {
	if c.breaker.State() == StateOpen {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// Complete issues a single-shot completion. unavailable is reported as
// (ok=false); it is never an error return, matching §4.4's "first-class
// return, not an exception."
func (c *Client) Complete(ctx context.Context, prompt string, params Params) (text string, ok bool) {
	err := c.breaker.Execute(ctx, func() error {
		out, cerr := c.complete(ctx, prompt, params)
		if cerr != nil {
			return cerr
		}
		text = out
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Msg("reasoning client unavailable")
		return "", false
	}
	return text, true
}

func (c *Client) complete(ctx context.Context, prompt string, params Params) (string, error) {
	payload := request{
		Model:  params.Model,
		Prompt: prompt,
		Stream: false,
		Options: options{
			NumPredict:  params.MaxTokens,
			Temperature: params.Temperature,
			Stop:        params.Stop,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("reasoning service returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Response, nil
}
