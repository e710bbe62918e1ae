// Package models provides domain models for the stock checking application.
package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Platform represents a supported quick-commerce platform.
type Platform string

const (
	PlatformBlinkit Platform = "blinkit"
	PlatformSwiggy  Platform = "swiggy"
	PlatformZepto   Platform = "zepto"
	PlatformUnknown Platform = "unknown"
)

// Platforms lists all supported platforms.
func Platforms() []Platform {
	return []Platform{PlatformBlinkit, PlatformSwiggy, PlatformZepto}
}

// ParsePlatform parses a platform name from configuration.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformBlinkit:
		return PlatformBlinkit, nil
	case PlatformSwiggy:
		return PlatformSwiggy, nil
	case PlatformZepto:
		return PlatformZepto, nil
	default:
		return PlatformUnknown, fmt.Errorf("unsupported platform: %s", s)
	}
}

// DetectPlatform detects the platform from a product URL.
func DetectPlatform(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "blinkit.com"):
		return PlatformBlinkit
	case strings.Contains(lower, "swiggy.com"):
		return PlatformSwiggy
	case strings.Contains(lower, "zepto.com"), strings.Contains(lower, "zeptonow.com"):
		return PlatformZepto
	default:
		return PlatformUnknown
	}
}

// pincodePattern matches a valid Indian postal code: six digits, first nonzero.
var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ValidPincode reports whether s is a syntactically valid pincode.
func ValidPincode(s string) bool {
	return pincodePattern.MatchString(s)
}

// Target is one monitored (product, pincode, platform) combination.
// Targets are built from configuration and immutable during a run.
type Target struct {
	ProductID   string
	ProductName string
	Platform    Platform
	ProductURL  string
	Pincode     string
}

// Key returns the stable store key for this target.
func (t Target) Key() string {
	return fmt.Sprintf("%s/%s/%s", t.ProductID, t.Pincode, t.Platform)
}

// String returns a human-readable target identity.
func (t Target) String() string {
	return fmt.Sprintf("%s @ %s (%s)", t.ProductName, t.Pincode, t.Platform)
}

// slugPattern strips everything that is not a letter, digit or hyphen.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ProductSlug derives a stable product identifier from a configured name.
func ProductSlug(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
