package crm

import (
	"context"
)

// CustomerFields is the create payload handed to the platform. Email and
// Phone must already be normalized.
type CustomerFields struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Company   string
	Metadata  map[string]string
	Refs      []ExternalRef
}

// CustomerPlatform is the capability interface over the remote customer
// store. The remote store is the single source of truth and the sole arbiter
// of the email/phone uniqueness invariant; implementations translate its
// uniqueness rejections to shared.ErrDuplicateIdentity and transport failures
// to shared.ErrRemoteUnavailable.
//
// The minimum consistency assumed is that a successful Create is visible to a
// subsequent FindByEmail, which is what lets the duplicate-create recovery
// protocol terminate.
type CustomerPlatform interface {
	// FindByEmail looks up a single customer by normalized email.
	// Returns shared.ErrNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// FindByEmails is the bulk read side: many keys in, a key-to-customer map
	// out, in a single round trip. Unmatched keys are simply absent from the
	// result; absence is not an error.
	FindByEmails(ctx context.Context, emails []string) (map[string]*Customer, error)

	// FindByPhones is the bulk phone-key counterpart of FindByEmails.
	FindByPhones(ctx context.Context, phones []string) (map[string]*Customer, error)

	// FindByExternalID returns the customer linked to a (provider, externalID)
	// pair. Returns shared.ErrNotFound when none is linked.
	FindByExternalID(ctx context.Context, provider, externalID string) (*Customer, error)

	// Create inserts a new customer and returns it with the store-assigned ID.
	// Fails with shared.ErrDuplicateIdentity when the store rejects on its
	// uniqueness constraint; two racing creators for the same email will see
	// exactly one success.
	Create(ctx context.Context, fields CustomerFields) (*Customer, error)

	// Update overwrites the mutable profile fields and identity backfills of
	// an existing customer.
	Update(ctx context.Context, customer *Customer) error

	// LinkExternalID attaches a (provider, externalID) pair to an existing
	// customer without touching its identity keys.
	LinkExternalID(ctx context.Context, customerID int64, provider, externalID string) error
}
