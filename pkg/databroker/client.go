// Package databroker provides a client for the bulk extraction provider:
// status checks for asynchronous extraction jobs and archive downloads.
package databroker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/dnx-plataformas/crm-leads/internal/resilience"
)

// ErrNotFound is returned when the provider does not know the extraction
// (lost job, expired or never produced archive).
var ErrNotFound = errors.New("databroker: extraction not found")

// DownloadError is a non-2xx archive download response other than 404.
type DownloadError struct {
	StatusCode int
	Message    string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("databroker: download failed with status %d: %s", e.StatusCode, e.Message)
}

// Client defines the extraction provider operations.
type Client interface {
	// Status fetches the current provider-side state of an extraction.
	Status(ctx context.Context, providerID string) (*StatusResponse, error)
	// Download fetches the finished extraction archive.
	Download(ctx context.Context, providerID string) (*Archive, error)
}

// StatusResponse is the provider's status payload.
type StatusResponse struct {
	Status            string `json:"status"`
	QuantityRequested int    `json:"quantidadeSolicitada"`
	QuantityReturned  int    `json:"quantidadeRetornada"`
	FinishedAt        string `json:"dataFinalizacao"`
}

// FinishedTime parses FinishedAt. Returns nil when empty or unparseable.
func (s *StatusResponse) FinishedTime() *time.Time {
	v := strings.TrimSpace(s.FinishedAt)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "02/01/2006 15:04:05", "02/01/2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// Archive is a downloaded extraction archive.
type Archive struct {
	Filename string
	Data     []byte
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter paces all requests made by the client.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a provider client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.databroker.com.br/v1/extracoes",
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) endpoint(path, providerID string) string {
	q := url.Values{}
	q.Set("id", providerID)
	q.Set("apiKey", c.apiKey)
	return c.baseURL + path + "?" + q.Encode()
}

func (c *httpClient) do(ctx context.Context, reqURL string, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "databroker: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "databroker: create request")
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		// net/http errors embed the URL, which carries the api key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactKey(uerr.URL)
		}
		return nil, eris.Wrap(err, "databroker: request failed")
	}
	return resp, nil
}

func (c *httpClient) Status(ctx context.Context, providerID string) (*StatusResponse, error) {
	resp, err := c.do(ctx, c.endpoint("/status", providerID), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "databroker: read status body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resilience.HTTPStatusError("databroker", resp.StatusCode, providerMessage(body))
	}

	var result StatusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "databroker: unmarshal status")
	}
	return &result, nil
}

func (c *httpClient) Download(ctx context.Context, providerID string) (*Archive, error) {
	resp, err := c.do(ctx, c.endpoint("/download", providerID), "application/zip, application/octet-stream")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &DownloadError{StatusCode: resp.StatusCode, Message: providerMessage(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "databroker: read archive")
	}

	return &Archive{
		Filename: archiveFilename(resp.Header.Get("Content-Disposition"), providerID),
		Data:     data,
	}, nil
}

// providerMessage extracts the error text from a provider error body. The
// provider answers with {"message": "..."} or {"error": "..."} and sometimes
// plain text.
func providerMessage(body []byte) string {
	var payload struct {
		Message  string `json:"message"`
		Error    string `json:"error"`
		Mensagem string `json:"mensagem"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, m := range []string{payload.Message, payload.Mensagem, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "no error message"
	}
	return msg
}

func archiveFilename(disposition, providerID string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return name
			}
		}
	}
	return providerID + ".zip"
}

func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "****")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
