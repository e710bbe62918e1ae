package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

// maxBodySize caps how much of a product page we read. Availability signals
// live in the first portion of the document.
const maxBodySize = 2 << 20 // 2 MiB

// fetcher issues platform page fetches with browser-like headers.
type fetcher struct {
	client *http.Client
}

func newFetcher(timeout time.Duration) *fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get fetches a product page for the given pincode and returns the body.
// Transport failures and non-2xx responses map to NetworkError.
func (f *fetcher) Get(ctx context.Context, target models.Target) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.ProductURL, nil)
	if err != nil {
		return "", apperrors.NewFetchError(apperrors.InvalidTarget, target, err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Pincode hints; platforms that ignore headers still serve a generic page.
	req.Header.Set("X-Pincode", target.Pincode)
	req.Header.Set("Pincode", target.Pincode)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperrors.NewFetchError(apperrors.NetworkError, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewFetchError(apperrors.NetworkError, target,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", apperrors.NewFetchError(apperrors.NetworkError, target, err)
	}

	return string(body), nil
}
