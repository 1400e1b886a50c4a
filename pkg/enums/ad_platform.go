package enums

import "fmt"

// AdPlatform identifies the advertising source of an ad spend row.
type AdPlatform string

const (
	AdPlatformGoogleAds AdPlatform = "google_ads"
)

var validAdPlatforms = []AdPlatform{
	AdPlatformGoogleAds,
}

// String implements fmt.Stringer.
func (a AdPlatform) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdPlatform.
func (a AdPlatform) IsValid() bool {
	for _, candidate := range validAdPlatforms {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdPlatform converts raw input into an AdPlatform.
func ParseAdPlatform(value string) (AdPlatform, error) {
	for _, candidate := range validAdPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ad platform %q", value)
}
