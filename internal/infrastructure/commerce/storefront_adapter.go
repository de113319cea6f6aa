package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
)

// maxStorefrontResponseSize limits the response body size to prevent memory exhaustion
const maxStorefrontResponseSize = 10 * 1024 * 1024 // 10MB max response

// StorefrontAdapter implements CustomerPlatform against the storefront
// admin REST API. The store enforces email/phone uniqueness; this adapter
// translates its rejections and transport failures into the domain errors
// the resolution protocol keys on.
type StorefrontAdapter struct {
	config     *StorefrontConfig
	httpClient *http.Client
}

// NewStorefrontAdapter creates a new storefront adapter with the given configuration
func NewStorefrontAdapter(config *StorefrontConfig) (*StorefrontAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &StorefrontAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// FindByEmail looks up a single customer by normalized email
func (a *StorefrontAdapter) FindByEmail(ctx context.Context, email string) (*crm.Customer, error) {
	customers, err := a.search(ctx, "email:"+email)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		if customers[i].Email == email {
			return customers[i].ToDomain(), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByEmails resolves many email keys in a single search round trip
func (a *StorefrontAdapter) FindByEmails(ctx context.Context, emails []string) (map[string]*crm.Customer, error) {
	return a.bulkSearch(ctx, "email", emails, func(c *StorefrontCustomer) string { return c.Email })
}

// FindByPhones resolves many phone keys in a single search round trip
func (a *StorefrontAdapter) FindByPhones(ctx context.Context, phones []string) (map[string]*crm.Customer, error) {
	return a.bulkSearch(ctx, "phone", phones, func(c *StorefrontCustomer) string { return c.Phone })
}

// FindByExternalID returns the customer linked to a (provider, externalID) pair
func (a *StorefrontAdapter) FindByExternalID(ctx context.Context, provider, externalID string) (*crm.Customer, error) {
	customers, err := a.search(ctx, fmt.Sprintf("external_ref:%s/%s", provider, externalID))
	if err != nil {
		return nil, err
	}
	for i := range customers {
		c := &customers[i]
		for _, ref := range c.ExternalRefs {
			if ref.Provider == provider && ref.ExternalID == externalID {
				return c.ToDomain(), nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

// Create inserts a new customer and returns it with the store-assigned ID
func (a *StorefrontAdapter) Create(ctx context.Context, fields crm.CustomerFields) (*crm.Customer, error) {
	payload := StorefrontCustomerEnvelope{
		Customer: &StorefrontCustomer{
			Email:        fields.Email,
			Phone:        fields.Phone,
			FirstName:    fields.FirstName,
			LastName:     fields.LastName,
			Company:      fields.Company,
			ExternalRefs: storefrontRefsFromDomain(fields.Refs),
			Metadata:     fields.Metadata,
		},
	}

	body, status, err := a.doRequest(ctx, http.MethodPost, "/customers.json", nil, payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		var errResp StorefrontErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.HasUniquenessViolation() {
			return nil, shared.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("storefront: create rejected: %s", strings.TrimSpace(string(body)))
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, fmt.Errorf("storefront: create failed with HTTP %d", status)
	}

	var resp StorefrontCustomerEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("storefront: failed to parse response: %w", err)
	}
	if resp.Customer == nil {
		return nil, fmt.Errorf("storefront: create returned empty customer")
	}
	return resp.Customer.ToDomain(), nil
}

// Update overwrites the mutable profile fields of an existing customer
func (a *StorefrontAdapter) Update(ctx context.Context, customer *crm.Customer) error {
	payload := StorefrontCustomerEnvelope{
		Customer: storefrontCustomerFromDomain(customer),
	}

	path := fmt.Sprintf("/customers/%d.json", customer.ID)
	body, status, err := a.doRequest(ctx, http.MethodPut, path, nil, payload)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusNotFound:
		return shared.ErrNotFound
	case status >= 400:
		return fmt.Errorf("storefront: update failed with HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

// LinkExternalID attaches a (provider, externalID) pair to an existing customer
func (a *StorefrontAdapter) LinkExternalID(ctx context.Context, customerID int64, provider, externalID string) error {
	payload := StorefrontExternalRef{
		Provider:   provider,
		ExternalID: externalID,
	}

	path := fmt.Sprintf("/customers/%d/external_refs.json", customerID)
	body, status, err := a.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusNotFound:
		return shared.ErrNotFound
	case status >= 400:
		return fmt.Errorf("storefront: link failed with HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// search runs the customer search endpoint with the given query expression
func (a *StorefrontAdapter) search(ctx context.Context, query string) ([]StorefrontCustomer, error) {
	params := url.Values{}
	params.Set("query", query)

	body, status, err := a.doRequest(ctx, http.MethodGet, "/customers/search.json", params, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("storefront: search failed with HTTP %d", status)
	}

	var resp StorefrontCustomerListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("storefront: failed to parse response: %w", err)
	}
	return resp.Customers, nil
}

// bulkSearch resolves many keys of one field in a single OR-joined query.
// Unmatched keys are absent from the result map.
func (a *StorefrontAdapter) bulkSearch(ctx context.Context, field string, keys []string, keyOf func(*StorefrontCustomer) string) (map[string]*crm.Customer, error) {
	result := make(map[string]*crm.Customer, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	terms := make([]string, 0, len(keys))
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		terms = append(terms, field+":"+key)
		wanted[key] = struct{}{}
	}
	if len(terms) == 0 {
		return result, nil
	}

	customers, err := a.search(ctx, strings.Join(terms, " OR "))
	if err != nil {
		return nil, err
	}

	for i := range customers {
		key := keyOf(&customers[i])
		if _, ok := wanted[key]; ok {
			result[key] = customers[i].ToDomain()
		}
	}
	return result, nil
}

// doRequest performs an HTTP request against the storefront admin API.
// Transport failures, timeouts, rate limiting and server errors all map to
// shared.ErrRemoteUnavailable so callers can retry uniformly.
func (a *StorefrontAdapter) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, int, error) {
	requestURL := a.config.APIBaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("storefront: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("storefront: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Storefront-Access-Token", a.config.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStorefrontResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("storefront: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	}

	return body, resp.StatusCode, nil
}

// Ensure StorefrontAdapter implements CustomerPlatform interface
var _ crm.CustomerPlatform = (*StorefrontAdapter)(nil)
