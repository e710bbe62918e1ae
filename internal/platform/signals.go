package platform

import (
	"regexp"
	"strconv"
	"strings"

	"pinstock/internal/models"
)

// Availability phrase sets shared across platforms. Each adapter can extend
// these with platform-specific signatures.
var (
	outOfStockPhrases = []string{
		"out of stock",
		"not available",
		"unavailable",
		"sold out",
		"currently unavailable",
		"not in stock",
	}

	lowStockPhrases = []string{
		"only few left",
		"limited stock",
		"few left",
		"hurry",
		"only 1 left",
		"only 2 left",
		"only 3 left",
	}

	inStockPhrases = []string{
		"add to cart",
		"buy now",
		"order now",
		"in stock",
		"available",
	}
)

// classify maps raw page text to a stock status. Order matters: unavailability
// phrases beat low-stock phrases beat add-to-cart affordances, because product
// pages routinely render a disabled cart button alongside a sold-out banner.
// Returns StatusUnknown when no pattern matches (the caller treats that as a
// parse failure).
func classify(body string) models.StockStatus {
	text := strings.ToLower(body)

	for _, phrase := range outOfStockPhrases {
		if strings.Contains(text, phrase) {
			return models.StatusOutOfStock
		}
	}
	for _, phrase := range lowStockPhrases {
		if strings.Contains(text, phrase) {
			return models.StatusLowStock
		}
	}
	for _, phrase := range inStockPhrases {
		if strings.Contains(text, phrase) {
			return models.StatusInStock
		}
	}

	return models.StatusUnknown
}

// Price extraction patterns, in priority order: structured JSON fields first
// (SSR payloads carry them even when the DOM is obfuscated), rupee-prefixed
// amounts as fallback.
var (
	jsonPricePattern    = regexp.MustCompile(`"(?:price|selling_price|sellingPrice|offer_price)"\s*:\s*"?(\d+(?:\.\d+)?)`)
	jsonOldPricePattern = regexp.MustCompile(`"(?:mrp|max_retail_price|original_price|strikeOffPrice)"\s*:\s*"?(\d+(?:\.\d+)?)`)
	rupeePattern        = regexp.MustCompile(`₹\s*([\d,]+(?:\.\d+)?)`)
)

// extractPrices pulls the current and struck-through prices from a page.
// Either value may be absent.
func extractPrices(body string) (price, oldPrice *float64) {
	if m := jsonPricePattern.FindStringSubmatch(body); m != nil {
		price = parseAmount(m[1])
	}
	if m := jsonOldPricePattern.FindStringSubmatch(body); m != nil {
		oldPrice = parseAmount(m[1])
	}

	if price == nil {
		if m := rupeePattern.FindStringSubmatch(body); m != nil {
			price = parseAmount(m[1])
		}
	}

	// An MRP equal to the selling price is not a discount signal.
	if price != nil && oldPrice != nil && *oldPrice == *price {
		oldPrice = nil
	}

	return price, oldPrice
}

func parseAmount(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
