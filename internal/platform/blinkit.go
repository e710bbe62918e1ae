package platform

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

// BlinkitAdapter checks product availability on Blinkit.
type BlinkitAdapter struct {
	fetcher *fetcher
}

// NewBlinkitAdapter creates a Blinkit adapter.
func NewBlinkitAdapter(f *fetcher) *BlinkitAdapter {
	return &BlinkitAdapter{fetcher: f}
}

// Name returns the platform tag.
func (a *BlinkitAdapter) Name() models.Platform {
	return models.PlatformBlinkit
}

// Fetch retrieves and classifies a Blinkit product page.
func (a *BlinkitAdapter) Fetch(ctx context.Context, target models.Target) (models.Observation, error) {
	if err := a.validate(target); err != nil {
		return models.Observation{}, err
	}

	body, err := a.fetcher.Get(ctx, target)
	if err != nil {
		return models.Observation{}, err
	}

	status := classify(body)
	if status == models.StatusUnknown {
		return models.Observation{}, apperrors.NewFetchError(apperrors.ParseError, target,
			errors.New("page matched no known availability pattern"))
	}

	price, oldPrice := extractPrices(body)
	return models.Observation{
		Status:    status,
		Price:     price,
		OldPrice:  oldPrice,
		FetchedAt: time.Now(),
	}, nil
}

// validate fails fast on URLs that do not fit Blinkit's product path shape.
func (a *BlinkitAdapter) validate(target models.Target) error {
	u, err := url.Parse(target.ProductURL)
	if err != nil || u.Scheme != "https" && u.Scheme != "http" {
		return invalidTarget(target, "product URL must be an absolute http(s) URL")
	}
	if !strings.Contains(strings.ToLower(u.Host), "blinkit.com") {
		return invalidTarget(target, "not a blinkit.com URL")
	}
	path := strings.ToLower(u.Path)
	if !strings.Contains(path, "/prn/") && !strings.Contains(path, "/products/") {
		return invalidTarget(target, "URL is not a blinkit product page")
	}
	return nil
}
