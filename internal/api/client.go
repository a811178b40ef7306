// Package api talks to the remote notes HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcus/notedeck/internal/note"
)

const (
	defaultTimeout = 10 * time.Second
	defaultPerPage = 12

	// maxErrorBody caps how much of an error response is read for the message.
	maxErrorBody = 4096
)

// NotesAPI is the subset of the remote API the client layer depends on.
type NotesAPI interface {
	FetchNotes(ctx context.Context, search string, page int, tag note.Tag) (note.ListResult, error)
	CreateNote(ctx context.Context, v note.Values) (note.Note, error)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	PerPage   int
	UserAgent string
	Logger    *slog.Logger

	// HTTPClient overrides the default transport (tests).
	HTTPClient *http.Client
}

// Client is an HTTP implementation of NotesAPI.
type Client struct {
	base      *url.URL
	token     string
	perPage   int
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// New creates a Client for the API rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", base.Scheme)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "notedeck"
	}

	return &Client{
		base:      base,
		token:     opts.Token,
		perPage:   perPage,
		userAgent: ua,
		http:      hc,
		logger:    logger,
	}, nil
}

// FetchNotes lists one page of notes. An empty search and the zero tag are
// omitted from the request.
func (c *Client) FetchNotes(ctx context.Context, search string, page int, tag note.Tag) (note.ListResult, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(c.perPage))
	if search != "" {
		q.Set("search", search)
	}
	if tag != "" {
		q.Set("tag", string(tag))
	}

	var out note.ListResult
	if err := c.do(ctx, http.MethodGet, "/notes", q, nil, &out); err != nil {
		return note.ListResult{}, fmt.Errorf("fetch notes: %w", err)
	}
	return out, nil
}

// CreateNote posts a new note and returns the stored copy.
func (c *Client) CreateNote(ctx context.Context, v note.Values) (note.Note, error) {
	var out note.Note
	if err := c.do(ctx, http.MethodPost, "/notes", nil, v, &out); err != nil {
		return note.Note{}, fmt.Errorf("create note: %w", err)
	}
	return out, nil
}

// do performs a JSON request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = u.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"method", method,
		"url", u.String(),
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp, requestID)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
