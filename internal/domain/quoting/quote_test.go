package quoting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(qty, price string) QuoteLine {
	return QuoteLine{
		Description: "widget",
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
	}
}

func TestNewQuote(t *testing.T) {
	quote, err := NewQuote("EUR", []QuoteLine{line("2", "10.50"), line("1", "4.25")})
	require.NoError(t, err)

	assert.Equal(t, QuoteStatusDraft, quote.Status)
	assert.Equal(t, "EUR", quote.Currency)
	assert.True(t, decimal.RequireFromString("25.25").Equal(quote.Total))
	assert.NotEqual(t, [16]byte{}, [16]byte(quote.ID))
}

func TestNewQuote_DefaultsCurrency(t *testing.T) {
	quote, err := NewQuote("", []QuoteLine{line("1", "1")})
	require.NoError(t, err)
	assert.Equal(t, "USD", quote.Currency)
}

func TestNewQuote_RejectsEmptyLines(t *testing.T) {
	_, err := NewQuote("USD", nil)
	assert.Error(t, err)
}

func TestNewQuote_RejectsNegativeAmounts(t *testing.T) {
	_, err := NewQuote("USD", []QuoteLine{line("-1", "10")})
	assert.Error(t, err)

	_, err = NewQuote("USD", []QuoteLine{line("1", "-10")})
	assert.Error(t, err)
}

func TestQuoteLine_Total(t *testing.T) {
	l := line("3", "2.50")
	assert.True(t, decimal.RequireFromString("7.50").Equal(l.Total()))
}
