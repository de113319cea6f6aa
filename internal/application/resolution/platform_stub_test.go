package resolution

import (
	"context"
	"sync"

	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
)

// fakePlatform is an in-memory CustomerPlatform that enforces the remote
// store's email/phone uniqueness constraint and counts write round trips.
type fakePlatform struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]*crm.Customer

	creates int
	updates int
	links   int

	// beforeCreate runs under the lock before each Create; a non-nil return
	// is handed back to the caller instead of creating. beforeFind is the
	// same hook for the lookup methods.
	beforeCreate func(p *fakePlatform) error
	beforeFind   func(p *fakePlatform) error
	findErr      error
	refErr       error
}

func (p *fakePlatform) findHookErr() error {
	if p.beforeFind != nil {
		if err := p.beforeFind(p); err != nil {
			return err
		}
	}
	return p.findErr
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		nextID:    100,
		customers: make(map[int64]*crm.Customer),
	}
}

func (p *fakePlatform) seed(c crm.Customer) *crm.Customer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.ID == 0 {
		p.nextID++
		c.ID = p.nextID
	}
	stored := c
	p.customers[stored.ID] = &stored
	return &stored
}

func (p *fakePlatform) get(id int64) *crm.Customer {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.customers[id]
	if !ok {
		return nil
	}
	return copyCustomer(c)
}

func (p *fakePlatform) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates + p.updates + p.links
}

func copyCustomer(c *crm.Customer) *crm.Customer {
	clone := *c
	clone.ExternalRefs = append([]crm.ExternalRef(nil), c.ExternalRefs...)
	if c.Metadata != nil {
		clone.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

func (p *fakePlatform) FindByEmail(_ context.Context, email string) (*crm.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.findHookErr(); err != nil {
		return nil, err
	}
	for _, c := range p.customers {
		if c.Email == email {
			return copyCustomer(c), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (p *fakePlatform) FindByEmails(_ context.Context, emails []string) (map[string]*crm.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.findHookErr(); err != nil {
		return nil, err
	}
	out := make(map[string]*crm.Customer)
	for _, email := range emails {
		for _, c := range p.customers {
			if c.Email == email {
				out[email] = copyCustomer(c)
				break
			}
		}
	}
	return out, nil
}

func (p *fakePlatform) FindByPhones(_ context.Context, phones []string) (map[string]*crm.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.findHookErr(); err != nil {
		return nil, err
	}
	out := make(map[string]*crm.Customer)
	for _, phone := range phones {
		for _, c := range p.customers {
			if c.Phone == phone {
				out[phone] = copyCustomer(c)
				break
			}
		}
	}
	return out, nil
}

func (p *fakePlatform) FindByExternalID(_ context.Context, provider, externalID string) (*crm.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.findHookErr(); err != nil {
		return nil, err
	}
	if p.refErr != nil {
		return nil, p.refErr
	}
	for _, c := range p.customers {
		if c.HasExternalRef(provider, externalID) {
			return copyCustomer(c), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (p *fakePlatform) Create(_ context.Context, fields crm.CustomerFields) (*crm.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++

	if p.beforeCreate != nil {
		if err := p.beforeCreate(p); err != nil {
			return nil, err
		}
	}

	for _, c := range p.customers {
		if (fields.Email != "" && c.Email == fields.Email) ||
			(fields.Phone != "" && c.Phone == fields.Phone) {
			return nil, shared.ErrDuplicateIdentity
		}
	}

	p.nextID++
	created := &crm.Customer{
		ID:           p.nextID,
		Email:        fields.Email,
		Phone:        fields.Phone,
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		Company:      fields.Company,
		Metadata:     fields.Metadata,
		ExternalRefs: fields.Refs,
	}
	p.customers[created.ID] = created
	return copyCustomer(created), nil
}

func (p *fakePlatform) Update(_ context.Context, customer *crm.Customer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates++
	if _, ok := p.customers[customer.ID]; !ok {
		return shared.ErrNotFound
	}
	p.customers[customer.ID] = copyCustomer(customer)
	return nil
}

func (p *fakePlatform) LinkExternalID(_ context.Context, customerID int64, provider, externalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.links++
	c, ok := p.customers[customerID]
	if !ok {
		return shared.ErrNotFound
	}
	c.AddExternalRef(provider, externalID)
	return nil
}

var _ crm.CustomerPlatform = (*fakePlatform)(nil)
