package commerce

import (
	"errors"
	"strings"
)

// StorefrontConfig holds configuration for the storefront admin API.
// The storefront is the e-commerce platform's customer store; the support
// desk treats it as the single source of truth for customer records.
type StorefrontConfig struct {
	// APIBaseURL is the base URL of the admin API, e.g. https://shop.example.com/admin/api
	APIBaseURL string
	// AccessToken is the admin API access token
	AccessToken string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for storefront configuration
var (
	ErrStorefrontConfigMissingBaseURL = errors.New("storefront: API base URL is required")
	ErrStorefrontConfigMissingToken   = errors.New("storefront: access token is required")
)

// NewStorefrontConfig creates a storefront configuration with defaults
func NewStorefrontConfig(baseURL, accessToken string) *StorefrontConfig {
	return &StorefrontConfig{
		APIBaseURL:     baseURL,
		AccessToken:    accessToken,
		TimeoutSeconds: 10,
	}
}

// Validate validates the storefront configuration
func (c *StorefrontConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrStorefrontConfigMissingBaseURL
	}
	if c.AccessToken == "" {
		return ErrStorefrontConfigMissingToken
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}
