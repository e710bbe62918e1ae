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

// SwiggyAdapter checks product availability on Swiggy Instamart.
type SwiggyAdapter struct {
	fetcher *fetcher
}

// NewSwiggyAdapter creates a Swiggy Instamart adapter.
func NewSwiggyAdapter(f *fetcher) *SwiggyAdapter {
	return &SwiggyAdapter{fetcher: f}
}

// Name returns the platform tag.
func (a *SwiggyAdapter) Name() models.Platform {
	return models.PlatformSwiggy
}

// Fetch retrieves and classifies a Swiggy Instamart product page.
func (a *SwiggyAdapter) Fetch(ctx context.Context, target models.Target) (models.Observation, error) {
	if err := a.validate(target); err != nil {
		return models.Observation{}, err
	}

	body, err := a.fetcher.Get(ctx, target)
	if err != nil {
		return models.Observation{}, err
	}

	// Instamart server-renders an error-state blob before any visible copy.
	// isError with a null item payload means the page itself broke, not the
	// stock; isError with item data present is how sold-out renders.
	if status, handled := a.classifyErrorState(body, target); handled {
		if status == models.StatusUnknown {
			return models.Observation{}, apperrors.NewFetchError(apperrors.ParseError, target,
				errors.New("instamart ssr error state with no item data"))
		}
		return models.Observation{Status: status, FetchedAt: time.Now()}, nil
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

// classifyErrorState inspects the SSR error blob. The second return value
// reports whether the blob was present and decisive.
func (a *SwiggyAdapter) classifyErrorState(body string, target models.Target) (models.StockStatus, bool) {
	if !strings.Contains(body, "ssrErrorState") {
		return models.StatusUnknown, false
	}
	if !strings.Contains(body, `"isError":true`) {
		return models.StatusUnknown, false
	}
	if strings.Contains(body, `"itemData":null`) {
		return models.StatusUnknown, true // page error, not a stock signal
	}
	return models.StatusOutOfStock, true
}

// validate fails fast on URLs that do not fit Instamart's item path shape.
func (a *SwiggyAdapter) validate(target models.Target) error {
	u, err := url.Parse(target.ProductURL)
	if err != nil || u.Scheme != "https" && u.Scheme != "http" {
		return invalidTarget(target, "product URL must be an absolute http(s) URL")
	}
	if !strings.Contains(strings.ToLower(u.Host), "swiggy.com") {
		return invalidTarget(target, "not a swiggy.com URL")
	}
	if !strings.Contains(strings.ToLower(u.Path), "/instamart") {
		return invalidTarget(target, "URL is not an instamart item page")
	}
	return nil
}
