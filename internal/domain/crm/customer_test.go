package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomer_AddExternalRef(t *testing.T) {
	c := &Customer{ID: 1, Email: "jane@co.com"}

	assert.True(t, c.AddExternalRef("shopify", "42"))
	assert.True(t, c.HasExternalRef("shopify", "42"))

	// duplicate pair is ignored
	assert.False(t, c.AddExternalRef("shopify", "42"))
	assert.Len(t, c.ExternalRefs, 1)

	// same provider, different record
	assert.True(t, c.AddExternalRef("shopify", "43"))
	assert.Len(t, c.ExternalRefs, 2)

	// empty pairs are rejected
	assert.False(t, c.AddExternalRef("", "42"))
	assert.False(t, c.AddExternalRef("shopify", ""))
}

func TestCustomer_AddExternalRef_NeverAltersIdentityKeys(t *testing.T) {
	c := &Customer{ID: 1, Email: "jane@co.com", Phone: "5551234567"}

	c.AddExternalRef("zendesk", "77")

	assert.Equal(t, "jane@co.com", c.Email)
	assert.Equal(t, "5551234567", c.Phone)
}

func TestCustomer_RefFor(t *testing.T) {
	c := &Customer{ExternalRefs: []ExternalRef{{Provider: "shopify", ExternalID: "42"}}}

	id, ok := c.RefFor("shopify")
	assert.True(t, ok)
	assert.Equal(t, "42", id)

	_, ok = c.RefFor("zendesk")
	assert.False(t, ok)
}

func TestCustomer_RefreshProfile(t *testing.T) {
	c := &Customer{FirstName: "Jane", Company: "Acme", Metadata: map[string]string{"tier": "gold"}}

	c.RefreshProfile("Janet", "", "", map[string]string{"region": "emea"})

	assert.Equal(t, "Janet", c.FirstName)
	// empty incoming fields keep existing values
	assert.Equal(t, "Acme", c.Company)
	assert.Equal(t, "gold", c.Metadata["tier"])
	assert.Equal(t, "emea", c.Metadata["region"])
}

func TestCustomer_BackfillIdentity(t *testing.T) {
	t.Run("fills empty keys only", func(t *testing.T) {
		c := &Customer{Email: "jane@co.com"}
		changed := c.BackfillIdentity("other@co.com", "5551234567")

		assert.True(t, changed)
		assert.Equal(t, "jane@co.com", c.Email, "existing email never overwritten")
		assert.Equal(t, "5551234567", c.Phone)
	})

	t.Run("no change when keys already set", func(t *testing.T) {
		c := &Customer{Email: "jane@co.com", Phone: "5551234567"}
		assert.False(t, c.BackfillIdentity("other@co.com", "5559998888"))
	})
}

func TestCustomer_DisplayName(t *testing.T) {
	assert.Equal(t, "Jane Doe", (&Customer{FirstName: "Jane", LastName: "Doe"}).DisplayName())
	assert.Equal(t, "Jane", (&Customer{FirstName: "Jane"}).DisplayName())
	assert.Equal(t, "Acme", (&Customer{Company: "Acme"}).DisplayName())
	assert.Equal(t, "jane@co.com", (&Customer{Email: "jane@co.com"}).DisplayName())
}
