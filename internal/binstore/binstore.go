package binstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/diancan-pos/api/internal/model"
)

// ErrPayloadTooLarge is returned by Save when the bin rejects the document
// for exceeding its size limit. Callers surface this with a specific
// warning instead of the generic sync-failed message.
var ErrPayloadTooLarge = errors.New("remote document too large")

// Client talks to a hosted JSON bin holding a single {menu, orders}
// document. The bin has plain GET/PUT overwrite semantics: every Save
// replaces the whole document, and concurrent writers resolve by last
// write wins.
type Client struct {
	baseURL   string
	accessKey string
	http      *http.Client
}

// New creates a bin client. accessKey may be empty for public bins.
func New(baseURL, accessKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		accessKey: accessKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope matches the bin's read response: the document sits under "record".
type envelope struct {
	Record model.Document `json:"record"`
}

// Load fetches the remote document. Any failure (network error, non-2xx,
// undecodable body) yields def so a bad poll looks like "no change" rather
// than erasing state.
func (c *Client) Load(ctx context.Context, def model.Document) model.Document {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		log.Printf("ERROR: build bin request: %v", err)
		return def
	}
	c.setHeaders(req)

	res, err := c.http.Do(req)
	if err != nil {
		log.Printf("ERROR: fetch bin: %v", err)
		return def
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		log.Printf("ERROR: fetch bin: status %d", res.StatusCode)
		return def
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		log.Printf("ERROR: decode bin response: %v", err)
		return def
	}
	return env.Record
}

// Save replaces the remote document with doc.
func (c *Client) Save(ctx context.Context, doc model.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build bin request: %w", err)
	}
	c.setHeaders(req)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("put bin: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusRequestEntityTooLarge {
		return ErrPayloadTooLarge
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("put bin: status %d", res.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.accessKey != "" {
		req.Header.Set("X-Access-Key", c.accessKey)
	}
}
