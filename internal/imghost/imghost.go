package imghost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrNoURL is returned when the host accepts the upload but hands back no
// usable URL; the queue treats it like any other upload failure.
var ErrNoURL = errors.New("image host returned no url")

// Client uploads image payloads to an external host that responds with a
// durable URL.
type Client struct {
	uploadURL string
	apiKey    string
	http      *http.Client
}

// New creates an image host client.
func New(uploadURL, apiKey string) *Client {
	return &Client{
		uploadURL: uploadURL,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// response mirrors the host's upload reply; only the URL matters here.
type response struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
}

// Upload posts the payload as a multipart form and returns the durable URL.
func (c *Client) Upload(ctx context.Context, filename string, payload []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := fw.Write(payload); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	url := c.uploadURL
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("upload image: status %d", res.StatusCode)
	}

	var r response
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if !r.Success || r.Data.URL == "" {
		return "", ErrNoURL
	}
	return r.Data.URL, nil
}
