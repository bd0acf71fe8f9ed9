package domain_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViewError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  domain.ErrorKind
		field string
	}{
		{"transport", &domain.ErrExternalService{Service: "login", Err: errors.New("reset")}, domain.ErrorKindRetryable, ""},
		{"server error", &domain.ErrExternalService{Service: "login", Status: 500, Err: errors.New("x")}, domain.ErrorKindRetryable, ""},
		{"bad request", &domain.ErrExternalService{Service: "login", Status: 400, Err: errors.New("x")}, domain.ErrorKindTerminal, ""},
		{"circuit open", &domain.ErrCircuitOpen{Service: "stock-api"}, domain.ErrorKindRetryable, ""},
		{"validation", &domain.ErrValidation{Field: "price", Message: "preço inválido"}, domain.ErrorKindTerminal, "price"},
		{"unauthorized", &domain.ErrUnauthorized{}, domain.ErrorKindTerminal, ""},
		{"deadline", fmt.Errorf("login: %w", context.DeadlineExceeded), domain.ErrorKindRetryable, ""},
		{"wrapped retryable", &domain.ErrSignupIncomplete{UserID: "U1", Err: &domain.ErrCircuitOpen{}}, domain.ErrorKindRetryable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := domain.NewViewError("Erro", tt.err)
			require.NotNil(t, ve)
			assert.Equal(t, "Erro", ve.Message)
			assert.Equal(t, tt.kind, ve.Kind)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.Nil(t, domain.NewViewError("Erro", nil))
}

func TestNormalizeProduct_Defaults(t *testing.T) {
	zero := decimal.Zero
	p := domain.NormalizeProduct(domain.RawProduct{ID: "p1", Quantity: 3, PriceSale: &zero, ImageURL: "https://cdn/p.png"})

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, []string{}, p.Colors)
	assert.Nil(t, p.PriceSale)
	assert.Equal(t, domain.DefaultProductStatus, p.Status)
	assert.Equal(t, 3, p.Quantity)
	assert.Equal(t, "https://cdn/p.png", p.CoverURL)
}

func TestQuantity_DecodesLooseNumbers(t *testing.T) {
	tests := []struct {
		body string
		want domain.Quantity
	}{
		{body: `{"quantity":5}`, want: 5},
		{body: `{"quantity":5.0}`, want: 5},
		{body: `{"quantity":"5"}`, want: 5},
		{body: `{"quantity":" 7 "}`, want: 7},
		{body: `{"quantity":2.9}`, want: 2},
		{body: `{"quantity":null}`, want: 0},
		{body: `{}`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var raw domain.RawProduct
			require.NoError(t, json.Unmarshal([]byte(tt.body), &raw))
			assert.Equal(t, tt.want, raw.Quantity)
		})
	}

	var raw domain.RawProduct
	assert.Error(t, json.Unmarshal([]byte(`{"quantity":"muitos"}`), &raw))
	assert.Error(t, json.Unmarshal([]byte(`{"quantity":true}`), &raw))
}

func TestStockStatusFor(t *testing.T) {
	assert.Equal(t, domain.LabelLowStock, domain.StockStatusFor(5, 10).Label)
	assert.Equal(t, domain.LabelLowStock, domain.StockStatusFor(9, 10).Label)
	assert.Equal(t, domain.LabelInStock, domain.StockStatusFor(10, 10).Label)
}

func TestProductForm_Payload(t *testing.T) {
	payload, err := domain.ProductForm{Name: "Caneca", Price: " 19,90 ", Quantity: "12"}.Payload()
	require.NoError(t, err)
	assert.Equal(t, "19.9", payload.Price.String())
	assert.Equal(t, 12, payload.Quantity)

	empty, err := domain.ProductForm{}.Payload()
	require.NoError(t, err)
	assert.Equal(t, "0", empty.Price.String())
	assert.Zero(t, empty.Quantity)

	var validation *domain.ErrValidation
	_, err = domain.ProductForm{Price: "abc"}.Payload()
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "price", validation.Field)

	_, err = domain.ProductForm{Quantity: "2.5"}.Payload()
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "quantity", validation.Field)
}

func TestProductForm_SetRejectsImageURL(t *testing.T) {
	var f domain.ProductForm
	var validation *domain.ErrValidation
	assert.ErrorAs(t, f.Set("image_url", "https://evil"), &validation)
	assert.Empty(t, f.ImageURL)
}
