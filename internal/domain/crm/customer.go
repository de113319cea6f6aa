package crm

import (
	"time"
)

// ExternalRef links a customer to a record on an originating platform.
// One customer accumulates refs over time as the same person shows up
// through different channels.
type ExternalRef struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
}

// Customer is the canonical record a person's identity signals resolve to.
// The remote customer platform assigns the ID and is the sole arbiter of the
// email/phone uniqueness invariant; this process never fabricates IDs.
type Customer struct {
	ID           int64             `json:"id"`
	Email        string            `json:"email,omitempty"` // normalized
	Phone        string            `json:"phone,omitempty"` // normalized
	FirstName    string            `json:"first_name,omitempty"`
	LastName     string            `json:"last_name,omitempty"`
	Company      string            `json:"company,omitempty"`
	ExternalRefs []ExternalRef     `json:"external_refs,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// HasExternalRef reports whether the customer is already linked to the given
// provider record.
func (c *Customer) HasExternalRef(provider, externalID string) bool {
	for _, ref := range c.ExternalRefs {
		if ref.Provider == provider && ref.ExternalID == externalID {
			return true
		}
	}
	return false
}

// RefFor returns the external ID linked for a provider, if any.
func (c *Customer) RefFor(provider string) (string, bool) {
	for _, ref := range c.ExternalRefs {
		if ref.Provider == provider {
			return ref.ExternalID, true
		}
	}
	return "", false
}

// AddExternalRef attaches a new provider reference. Adding a ref never alters
// the customer's identity keys. Duplicate pairs are ignored.
func (c *Customer) AddExternalRef(provider, externalID string) bool {
	if provider == "" || externalID == "" {
		return false
	}
	if c.HasExternalRef(provider, externalID) {
		return false
	}
	c.ExternalRefs = append(c.ExternalRefs, ExternalRef{Provider: provider, ExternalID: externalID})
	c.UpdatedAt = time.Now()
	return true
}

// RefreshProfile overwrites the mutable profile fields from a newer signal.
// Last-write-wins is deliberate: for two concurrent writers describing the
// same person we guarantee one record, not whose name sticks.
func (c *Customer) RefreshProfile(firstName, lastName, company string, metadata map[string]string) {
	if firstName != "" {
		c.FirstName = firstName
	}
	if lastName != "" {
		c.LastName = lastName
	}
	if company != "" {
		c.Company = company
	}
	if len(metadata) > 0 {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
	c.UpdatedAt = time.Now()
}

// BackfillIdentity fills email or phone only where the customer has none yet.
// Identity keys already set are never overwritten.
func (c *Customer) BackfillIdentity(email, phone string) bool {
	changed := false
	if c.Email == "" && email != "" {
		c.Email = email
		changed = true
	}
	if c.Phone == "" && phone != "" {
		c.Phone = phone
		changed = true
	}
	if changed {
		c.UpdatedAt = time.Now()
	}
	return changed
}

// DisplayName returns the customer's name for logs and UI fallbacks.
func (c *Customer) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	case c.Company != "":
		return c.Company
	default:
		return c.Email
	}
}
