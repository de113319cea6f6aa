package ticketing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/application/event"
	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/domain/ticketing"
)

type stubOutboxRepo struct {
	saved   []*shared.OutboxEntry
	saveErr error
}

func (r *stubOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, entries...)
	return nil
}

func (r *stubOutboxRepo) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *stubOutboxRepo) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *stubOutboxRepo) FindByID(context.Context, uuid.UUID) (*shared.OutboxEntry, error) {
	return nil, shared.ErrNotFound
}

func (r *stubOutboxRepo) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *stubOutboxRepo) Update(context.Context, *shared.OutboxEntry) error { return nil }

func (r *stubOutboxRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func (r *stubOutboxRepo) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	return nil, nil
}

type stubTicketStore struct {
	nextID    int64
	tickets   map[int64]*ticketing.Ticket
	createErr error
}

func newStubTicketStore() *stubTicketStore {
	return &stubTicketStore{tickets: make(map[int64]*ticketing.Ticket)}
}

func (s *stubTicketStore) Create(_ context.Context, ticket *ticketing.Ticket) (*ticketing.Ticket, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	stored := *ticket
	stored.ID = s.nextID
	stored.CreatedAt = time.Now()
	s.tickets[stored.ID] = &stored
	return &stored, nil
}

func (s *stubTicketStore) FindByID(_ context.Context, id int64) (*ticketing.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func newTestService(store ticketing.Store, repo shared.OutboxRepository) *TicketService {
	sync := event.NewSyncService(repo, zap.NewNop(), nil)
	return NewTicketService(store, sync, zap.NewNop())
}

func TestCreate_PersistsTicketAndEnqueuesSync(t *testing.T) {
	store := newStubTicketStore()
	repo := &stubOutboxRepo{}
	svc := newTestService(store, repo)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{
		Subject:     "Order never arrived",
		Body:        "It has been two weeks.",
		SenderEmail: "jane@co.com",
		SenderName:  "Jane van der Berg",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), ticket.ID)
	assert.Equal(t, ticketing.TicketStatusOpen, ticket.Status)

	require.Len(t, repo.saved, 1)
	var payload event.SyncPayload
	require.NoError(t, json.Unmarshal(repo.saved[0].Payload, &payload))
	assert.Equal(t, "jane@co.com", payload.Email)
	assert.Equal(t, "Jane van der", payload.FirstName)
	assert.Equal(t, "Berg", payload.LastName)
	assert.Equal(t, ticket.ID, payload.TicketID)
}

func TestCreate_SucceedsWhenEnqueueFails(t *testing.T) {
	store := newStubTicketStore()
	repo := &stubOutboxRepo{saveErr: errors.New("outbox unavailable")}
	svc := newTestService(store, repo)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{
		Subject:     "Broken checkout",
		SenderEmail: "jane@co.com",
	})

	require.NoError(t, err, "ticket creation never fails because of enqueue failure")
	assert.NotZero(t, ticket.ID)
}

func TestCreate_RequiresSubject(t *testing.T) {
	svc := newTestService(newStubTicketStore(), &stubOutboxRepo{})

	_, err := svc.Create(context.Background(), CreateTicketInput{SenderEmail: "jane@co.com"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestCreate_PropagatesStoreFailure(t *testing.T) {
	store := newStubTicketStore()
	store.createErr = errors.New("store down")
	repo := &stubOutboxRepo{}
	svc := newTestService(store, repo)

	_, err := svc.Create(context.Background(), CreateTicketInput{Subject: "x"})

	require.Error(t, err)
	assert.Empty(t, repo.saved, "no sync enqueued when the ticket write fails")
}

func TestGet(t *testing.T) {
	store := newStubTicketStore()
	svc := newTestService(store, &stubOutboxRepo{})
	created, err := svc.Create(context.Background(), CreateTicketInput{Subject: "hello"})
	require.NoError(t, err)

	found, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", found.Subject)

	_, err = svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSplitSenderName(t *testing.T) {
	tests := []struct {
		input string
		first string
		last  string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Jane van der Berg", "Jane van der", "Berg"},
		{"Cher", "Cher", ""},
		{"  Jane   Doe  ", "Jane", "Doe"},
		{"", "", ""},
	}

	for _, tt := range tests {
		first, last := splitSenderName(tt.input)
		assert.Equal(t, tt.first, first, "input %q", tt.input)
		assert.Equal(t, tt.last, last, "input %q", tt.input)
	}
}
