// Package searchclient talks to the address search endpoint and keeps the
// last known result set for one search box.
package searchclient

import (
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
	"sync"
	"time"
	"unicode/utf8"

	"github.com/UnknownOlympus/talentbridge/internal/models"
)

const (
	// SearchPath is the address search endpoint relative to the API base URL.
	SearchPath = "/api/address/search"
	// ResultCap is the number of candidates requested per search.
	ResultCap = 5
	// DefaultTimeout bounds a single search request when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	minQueryLength = 3
)

var (
	// ErrRequest is reported when the endpoint cannot be reached.
	ErrRequest = errors.New("address search request failed")
	// ErrStatus is reported when the endpoint answers with a non-2xx status.
	ErrStatus = errors.New("address search failed")
	// ErrDecode is reported when the endpoint answers with a body that is not a search result.
	ErrDecode = errors.New("address search returned an invalid response")
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// State is a snapshot of the client's last known search outcome.
type State struct {
	Addresses []models.Address // Last successful result set, never nil
	Loading   bool             // A search is in flight
	Err       string           // Human-readable failure of the last search, empty when none
}

// Client runs address searches in the background and publishes their outcome.
// Only the most recently issued search may write its result.
type Client struct {
	client   HTTPClient
	endpoint string
	timeout  time.Duration
	log      *slog.Logger

	mu          sync.Mutex
	state       State
	seq         uint64
	subscribers map[uint64]func(State)
	nextSubID   uint64
	inflight    sync.WaitGroup
}

// NewClient creates a Client for the API served at baseURL.
// A non-positive timeout falls back to DefaultTimeout.
func NewClient(client HTTPClient, baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		client:      client,
		endpoint:    strings.TrimRight(baseURL, "/") + SearchPath,
		timeout:     timeout,
		log:         log,
		state:       State{Addresses: []models.Address{}},
		subscribers: make(map[uint64]func(State)),
	}
}

// SearchAddresses starts a search for query and returns immediately.
// Queries shorter than three characters clear the result set without a request.
func (c *Client) SearchAddresses(query string) {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	c.seq++
	seq := c.seq

	if utf8.RuneCountInString(query) < minQueryLength {
		c.state.Addresses = []models.Address{}
		c.state.Loading = false
		snapshot := c.snapshotLocked()
		c.mu.Unlock()

		c.notify(snapshot)
		return
	}

	c.state.Loading = true
	c.state.Err = ""
	snapshot := c.snapshotLocked()
	c.inflight.Add(1)
	c.mu.Unlock()

	c.notify(snapshot)

	go func() {
		defer c.inflight.Done()

		addresses, err := c.fetch(query)
		c.apply(seq, query, addresses, err)
	}()
}

// ClearAddresses resets the result set and error. A search already in flight still
// writes its result when it completes.
func (c *Client) ClearAddresses() {
	c.mu.Lock()
	c.state.Addresses = []models.Address{}
	c.state.Err = ""
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

// State returns a snapshot of the current state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Subscribe registers fn to be called with a snapshot after every state change.
// The returned function removes the subscription.
func (c *Client) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

// Wait blocks until every search started so far has finished.
func (c *Client) Wait() {
	c.inflight.Wait()
}

func (c *Client) fetch(query string) ([]models.Address, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(ResultCap))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp.StatusCode, body)
	}

	var result models.SearchResult
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: search was not successful", ErrDecode)
	}

	return result.Addresses, nil
}

// statusError prefers the endpoint's own error message over the bare status code.
func statusError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return fmt.Errorf("%w: HTTP %d", ErrStatus, status)
	}
	if payload.Details != "" {
		return fmt.Errorf("%w: %s: %s", ErrStatus, payload.Error, payload.Details)
	}
	return fmt.Errorf("%w: %s", ErrStatus, payload.Error)
}

func (c *Client) apply(seq uint64, query string, addresses []models.Address, err error) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug("Discarding stale address search response", "query", query, "seq", seq)
		return
	}

	c.state.Loading = false
	if err != nil {
		c.state.Addresses = []models.Address{}
		c.state.Err = err.Error()
	} else {
		if addresses == nil {
			addresses = []models.Address{}
		}
		c.state.Addresses = addresses
		c.state.Err = ""
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("Address search failed", "query", query, "error", err)
	}
	c.notify(snapshot)
}

func (c *Client) snapshotLocked() State {
	addresses := make([]models.Address, len(c.state.Addresses))
	copy(addresses, c.state.Addresses)

	return State{
		Addresses: addresses,
		Loading:   c.state.Loading,
		Err:       c.state.Err,
	}
}

func (c *Client) notify(snapshot State) {
	c.mu.Lock()
	subscribers := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
