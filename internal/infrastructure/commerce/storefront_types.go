package commerce

import (
	"strings"
	"time"

	"github.com/supportdesk/backend/internal/domain/crm"
)

// StorefrontExternalRef is the wire form of a provider link
type StorefrontExternalRef struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
}

// StorefrontCustomer is the wire form of a customer record
type StorefrontCustomer struct {
	ID           int64                   `json:"id"`
	Email        string                  `json:"email"`
	Phone        string                  `json:"phone"`
	FirstName    string                  `json:"first_name"`
	LastName     string                  `json:"last_name"`
	Company      string                  `json:"company"`
	ExternalRefs []StorefrontExternalRef `json:"external_refs,omitempty"`
	Metadata     map[string]string       `json:"metadata,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// StorefrontCustomerEnvelope wraps a single customer in requests and responses
type StorefrontCustomerEnvelope struct {
	Customer *StorefrontCustomer `json:"customer"`
}

// StorefrontCustomerListResponse is the response of the customer search endpoint
type StorefrontCustomerListResponse struct {
	Customers []StorefrontCustomer `json:"customers"`
}

// StorefrontErrorResponse is the error body returned on 4xx responses
type StorefrontErrorResponse struct {
	Errors map[string][]string `json:"errors"`
}

// HasUniquenessViolation reports whether the error body names an identity
// field rejected on the store's uniqueness constraint
func (r *StorefrontErrorResponse) HasUniquenessViolation() bool {
	for field, messages := range r.Errors {
		if field != "email" && field != "phone" {
			continue
		}
		for _, msg := range messages {
			lower := strings.ToLower(msg)
			if strings.Contains(lower, "taken") || strings.Contains(lower, "duplicate") {
				return true
			}
		}
	}
	return false
}

// ToDomain converts a wire customer to the domain model
func (c *StorefrontCustomer) ToDomain() *crm.Customer {
	refs := make([]crm.ExternalRef, 0, len(c.ExternalRefs))
	for _, ref := range c.ExternalRefs {
		refs = append(refs, crm.ExternalRef{
			Provider:   ref.Provider,
			ExternalID: ref.ExternalID,
		})
	}
	return &crm.Customer{
		ID:           c.ID,
		Email:        c.Email,
		Phone:        c.Phone,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Company:      c.Company,
		ExternalRefs: refs,
		Metadata:     c.Metadata,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func storefrontRefsFromDomain(refs []crm.ExternalRef) []StorefrontExternalRef {
	out := make([]StorefrontExternalRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, StorefrontExternalRef{
			Provider:   ref.Provider,
			ExternalID: ref.ExternalID,
		})
	}
	return out
}

// storefrontCustomerFromDomain converts a domain customer to wire form
func storefrontCustomerFromDomain(customer *crm.Customer) *StorefrontCustomer {
	return &StorefrontCustomer{
		ID:           customer.ID,
		Email:        customer.Email,
		Phone:        customer.Phone,
		FirstName:    customer.FirstName,
		LastName:     customer.LastName,
		Company:      customer.Company,
		ExternalRefs: storefrontRefsFromDomain(customer.ExternalRefs),
		Metadata:     customer.Metadata,
	}
}
