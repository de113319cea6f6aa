package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/supportdesk/backend/internal/domain/quoting"
	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/infrastructure/persistence/models"
)

func setupQuoteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.QuoteModel{}))
	return db
}

func newTestQuote(t *testing.T) *quoting.Quote {
	t.Helper()
	quote, err := quoting.NewQuote("USD", []quoting.QuoteLine{
		{
			Description: "Widget",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.RequireFromString("9.99"),
		},
	})
	require.NoError(t, err)
	quote.ContactEmail = "jane@example.com"
	quote.ContactName = "Jane Berg"
	return quote
}

func TestGormQuoteRepository_SaveAndFindByID(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	quote := newTestQuote(t)
	require.NoError(t, repo.Save(ctx, quote))

	found, err := repo.FindByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.ID, found.ID)
	assert.Equal(t, quoting.QuoteStatusDraft, found.Status)
	assert.Equal(t, "USD", found.Currency)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "Widget", found.Lines[0].Description)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("19.98")),
		"expected total 19.98, got %s", found.Total)
	assert.Equal(t, "jane@example.com", found.ContactEmail)
}

func TestGormQuoteRepository_FindByID_NotFound(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)

	found, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, found)
}

func TestGormQuoteRepository_AttachCustomer(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	t.Run("records resolved customer", func(t *testing.T) {
		quote := newTestQuote(t)
		require.NoError(t, repo.Save(ctx, quote))

		require.NoError(t, repo.AttachCustomer(ctx, quote.ID, 42))

		found, err := repo.FindByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(42), found.CustomerID)
	})

	t.Run("unknown quote", func(t *testing.T) {
		err := repo.AttachCustomer(ctx, uuid.New(), 42)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormQuoteRepository_FindByCustomer(t *testing.T) {
	db := setupQuoteTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	var quoteIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		quote := newTestQuote(t)
		require.NoError(t, repo.Save(ctx, quote))
		require.NoError(t, repo.AttachCustomer(ctx, quote.ID, 7))
		quoteIDs = append(quoteIDs, quote.ID)
	}

	other := newTestQuote(t)
	require.NoError(t, repo.Save(ctx, other))
	require.NoError(t, repo.AttachCustomer(ctx, other.ID, 8))

	quotes, err := repo.FindByCustomer(ctx, 7, 0)
	require.NoError(t, err)
	assert.Len(t, quotes, 3)
	for _, q := range quotes {
		assert.Equal(t, int64(7), q.CustomerID)
		assert.Contains(t, quoteIDs, q.ID)
	}

	limited, err := repo.FindByCustomer(ctx, 7, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
