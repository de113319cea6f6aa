package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supportdesk/backend/internal/domain/quoting"
	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/infrastructure/persistence/models"
)

// GormQuoteRepository implements quoting.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// Save persists a quote
func (r *GormQuoteRepository) Save(ctx context.Context, quote *quoting.Quote) error {
	model, err := models.QuoteModelFromDomain(quote)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a quote by its ID
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quoting.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByCustomer finds the most recent quotes resolved to a customer
func (r *GormQuoteRepository) FindByCustomer(ctx context.Context, customerID int64, limit int) ([]*quoting.Quote, error) {
	if limit <= 0 {
		limit = 20
	}
	var quoteModels []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&quoteModels).Error; err != nil {
		return nil, err
	}

	quotes := make([]*quoting.Quote, 0, len(quoteModels))
	for i := range quoteModels {
		quote, err := quoteModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// AttachCustomer records the resolved customer on a quote
func (r *GormQuoteRepository) AttachCustomer(ctx context.Context, id uuid.UUID, customerID int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("id = ?", id).
		Update("customer_id", customerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ quoting.QuoteRepository = (*GormQuoteRepository)(nil)
