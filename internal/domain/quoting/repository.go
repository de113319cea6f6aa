package quoting

import (
	"context"

	"github.com/google/uuid"
)

// QuoteRepository defines the interface for quote persistence
type QuoteRepository interface {
	Save(ctx context.Context, quote *Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	FindByCustomer(ctx context.Context, customerID int64, limit int) ([]*Quote, error)
	AttachCustomer(ctx context.Context, id uuid.UUID, customerID int64) error
}
