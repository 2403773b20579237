package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"
)

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 512

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHTTPClient struct{ *http.Client }

func NewHTTPClient(timeout time.Duration) *DefaultHTTPClient {
	return &DefaultHTTPClient{Client: &http.Client{Timeout: timeout}}
}

// MakeHTTPRequest issues a GET against an https URL and returns the response
// only when the status is 200. The caller owns the body.
func MakeHTTPRequest(ctx context.Context, client HTTPClient, rawURL, userAgent string) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsedURL, err := utils.ParseSecureURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer utils.Try(resp.Body.Close)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return nil, fmt.Errorf("non-200 response from %s: %d: %s", parsedURL.Path, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("non-200 response from %s: %d", parsedURL.Path, resp.StatusCode)
	}

	return resp, nil
}

// GetJSON fetches rawURL and decodes the JSON body into out.
func GetJSON(ctx context.Context, client HTTPClient, rawURL, userAgent string, out any) error {
	start := time.Now()
	resp, err := MakeHTTPRequest(ctx, client, rawURL, userAgent)
	if err != nil {
		return err
	}
	defer utils.Try(resp.Body.Close)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}

	logger.DebugKV("GET", "url", rawURL, "took", time.Since(start).Truncate(time.Millisecond))
	return nil
}
