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

// ZeptoAdapter checks product availability on Zepto.
type ZeptoAdapter struct {
	fetcher *fetcher
}

// NewZeptoAdapter creates a Zepto adapter.
func NewZeptoAdapter(f *fetcher) *ZeptoAdapter {
	return &ZeptoAdapter{fetcher: f}
}

// Name returns the platform tag.
func (a *ZeptoAdapter) Name() models.Platform {
	return models.PlatformZepto
}

// Fetch retrieves and classifies a Zepto product page.
func (a *ZeptoAdapter) Fetch(ctx context.Context, target models.Target) (models.Observation, error) {
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

// validate fails fast on URLs that are not Zepto product pages.
func (a *ZeptoAdapter) validate(target models.Target) error {
	u, err := url.Parse(target.ProductURL)
	if err != nil || u.Scheme != "https" && u.Scheme != "http" {
		return invalidTarget(target, "product URL must be an absolute http(s) URL")
	}
	host := strings.ToLower(u.Host)
	if !strings.Contains(host, "zepto.com") && !strings.Contains(host, "zeptonow.com") {
		return invalidTarget(target, "not a zepto URL")
	}
	if !strings.Contains(strings.ToLower(u.Path), "/pn/") && !strings.Contains(strings.ToLower(u.Path), "/product") {
		return invalidTarget(target, "URL is not a zepto product page")
	}
	return nil
}
