package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient wraps the standard HTTP client with PDU-specific functionality.
// Every request carries the device's HTTP basic auth credentials.
type HTTPClient struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	log      zerolog.Logger
}

// NewHTTPClient creates a new HTTP client for PDU communication.
func NewHTTPClient(address, username, password string, timeout time.Duration, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Don't follow redirects, we want to handle them ourselves
				return http.ErrUseLastResponse
			},
		},
		baseURL:  NormalizeBaseURL(address),
		username: username,
		password: password,
		log:      log,
	}
}

// NormalizeBaseURL ensures the device address carries a protocol prefix
// and no trailing slash.
func NormalizeBaseURL(address string) string {
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return strings.TrimRight(address, "/")
}

// Get performs an authenticated GET request against a device path.
func (h *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := h.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(h.username, h.password)
	req.Header.Set("User-Agent", "ippdu/1.0")

	h.log.Debug().Str("url", fullURL).Msg("GET")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	h.log.Debug().Str("status", resp.Status).Msg("response")

	return resp, nil
}

// ReadBody reads and returns the response body as a string.
func (h *HTTPClient) ReadBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	bodyStr := string(body)
	if len(bodyStr) > 0 {
		preview := bodyStr
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		h.log.Debug().Str("preview", preview).Msg("response body")
	}

	return bodyStr, nil
}

// BaseURL returns the normalized base URL.
func (h *HTTPClient) BaseURL() string {
	return h.baseURL
}

// SetTimeout updates the underlying client timeout.
func (h *HTTPClient) SetTimeout(timeout time.Duration) {
	h.client.Timeout = timeout
}
