package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*StorefrontAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewStorefrontAdapter(NewStorefrontConfig(server.URL, "test-token"))
	require.NoError(t, err)
	return adapter, server
}

func writeCustomerList(t *testing.T, w http.ResponseWriter, customers ...StorefrontCustomer) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(StorefrontCustomerListResponse{Customers: customers}))
}

func TestStorefrontAdapter_RequiresConfig(t *testing.T) {
	_, err := NewStorefrontAdapter(&StorefrontConfig{AccessToken: "tok"})
	assert.ErrorIs(t, err, ErrStorefrontConfigMissingBaseURL)

	_, err = NewStorefrontAdapter(&StorefrontConfig{APIBaseURL: "https://shop.example.com"})
	assert.ErrorIs(t, err, ErrStorefrontConfigMissingToken)
}

func TestStorefrontAdapter_FindByEmail(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/search.json", r.URL.Path)
		assert.Equal(t, "email:jane@example.com", r.URL.Query().Get("query"))
		assert.Equal(t, "test-token", r.Header.Get("X-Storefront-Access-Token"))

		// search can return partial matches; only the exact one counts
		writeCustomerList(t, w,
			StorefrontCustomer{ID: 9, Email: "jane@example.com.au"},
			StorefrontCustomer{ID: 7, Email: "jane@example.com", FirstName: "Jane"},
		)
	})

	customer, err := adapter.FindByEmail(context.Background(), "jane@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(7), customer.ID)
	assert.Equal(t, "Jane", customer.FirstName)
}

func TestStorefrontAdapter_FindByEmail_NotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		writeCustomerList(t, w)
	})

	_, err := adapter.FindByEmail(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStorefrontAdapter_FindByEmails_BulkQuery(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "email:a@x.com OR email:b@x.com", r.URL.Query().Get("query"))
		writeCustomerList(t, w,
			StorefrontCustomer{ID: 1, Email: "a@x.com"},
			StorefrontCustomer{ID: 3, Email: "stray@x.com"},
		)
	})

	found, err := adapter.FindByEmails(context.Background(), []string{"a@x.com", "", "b@x.com"})

	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found["a@x.com"].ID)
	assert.NotContains(t, found, "b@x.com")
	assert.NotContains(t, found, "stray@x.com")
}

func TestStorefrontAdapter_FindByEmails_EmptyKeysSkipRequest(t *testing.T) {
	called := false
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	found, err := adapter.FindByEmails(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, found)
	assert.False(t, called)
}

func TestStorefrontAdapter_FindByExternalID(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "external_ref:zendesk/77", r.URL.Query().Get("query"))
		writeCustomerList(t, w, StorefrontCustomer{
			ID:    5,
			Email: "jane@example.com",
			ExternalRefs: []StorefrontExternalRef{
				{Provider: "zendesk", ExternalID: "77"},
			},
		})
	})

	customer, err := adapter.FindByExternalID(context.Background(), "zendesk", "77")

	require.NoError(t, err)
	assert.Equal(t, int64(5), customer.ID)
}

func TestStorefrontAdapter_Create(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/customers.json", r.URL.Path)

		var envelope StorefrontCustomerEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		require.NotNil(t, envelope.Customer)
		assert.Equal(t, "jane@example.com", envelope.Customer.Email)

		created := *envelope.Customer
		created.ID = 42
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(StorefrontCustomerEnvelope{Customer: &created}))
	})

	customer, err := adapter.Create(context.Background(), crm.CustomerFields{
		Email:     "jane@example.com",
		FirstName: "Jane",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), customer.ID)
	assert.Equal(t, "jane@example.com", customer.Email)
}

func TestStorefrontAdapter_Create_DuplicateIdentity(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"email":["has already been taken"]}}`))
	})

	_, err := adapter.Create(context.Background(), crm.CustomerFields{Email: "jane@example.com"})

	assert.ErrorIs(t, err, shared.ErrDuplicateIdentity)
}

func TestStorefrontAdapter_Create_OtherValidationError(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"first_name":["is too long"]}}`))
	})

	_, err := adapter.Create(context.Background(), crm.CustomerFields{Email: "jane@example.com"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrDuplicateIdentity)
}

func TestStorefrontAdapter_ServerErrorsMapToRemoteUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusTooManyRequests} {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := adapter.FindByEmail(context.Background(), "jane@example.com")

		assert.ErrorIs(t, err, shared.ErrRemoteUnavailable, "HTTP %d", status)
	}
}

func TestStorefrontAdapter_ConnectionRefusedMapsToRemoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // force connection failure

	adapter, err := NewStorefrontAdapter(NewStorefrontConfig(server.URL, "test-token"))
	require.NoError(t, err)

	_, err = adapter.FindByEmail(context.Background(), "jane@example.com")

	assert.ErrorIs(t, err, shared.ErrRemoteUnavailable)
}

func TestStorefrontAdapter_Update(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/customers/7.json", r.URL.Path)

		var envelope StorefrontCustomerEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		assert.Equal(t, "5551234567", envelope.Customer.Phone)
		w.WriteHeader(http.StatusOK)
	})

	err := adapter.Update(context.Background(), &crm.Customer{
		ID:    7,
		Email: "jane@example.com",
		Phone: "5551234567",
	})

	require.NoError(t, err)
}

func TestStorefrontAdapter_Update_NotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := adapter.Update(context.Background(), &crm.Customer{ID: 99})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStorefrontAdapter_LinkExternalID(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/customers/7/external_refs.json", r.URL.Path)

		var ref StorefrontExternalRef
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ref))
		assert.Equal(t, "zendesk", ref.Provider)
		assert.Equal(t, "77", ref.ExternalID)
		w.WriteHeader(http.StatusCreated)
	})

	err := adapter.LinkExternalID(context.Background(), 7, "zendesk", "77")

	require.NoError(t, err)
}

func TestStorefrontErrorResponse_HasUniquenessViolation(t *testing.T) {
	tests := []struct {
		name   string
		errors map[string][]string
		want   bool
	}{
		{"email taken", map[string][]string{"email": {"has already been taken"}}, true},
		{"phone duplicate", map[string][]string{"phone": {"Duplicate value"}}, true},
		{"unrelated field", map[string][]string{"first_name": {"has already been taken"}}, false},
		{"other email error", map[string][]string{"email": {"is invalid"}}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := StorefrontErrorResponse{Errors: tt.errors}
			assert.Equal(t, tt.want, resp.HasUniquenessViolation())
		})
	}
}
