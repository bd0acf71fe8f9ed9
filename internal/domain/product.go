package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================
// Catalog: products, categories and localizations
// ============================================================

// DefaultProductStatus is used when the backend omits a status.
const DefaultProductStatus = "available"

// Stock status labels shown on each catalog card.
const (
	LabelLowStock = "Estoque Baixo"
	LabelInStock  = "Em Estoque"
)

// RawProduct is a product record as returned by GET /products.
type RawProduct struct {
	ID             string           `json:"_id"`
	Name           string           `json:"name"`
	Price          decimal.Decimal  `json:"price"`
	Quantity       Quantity         `json:"quantity"`
	ImageURL       string           `json:"image_url"`
	Colors         []string         `json:"colors"`
	PriceSale      *decimal.Decimal `json:"priceSale"`
	Status         string           `json:"status"`
	CategoryID     string           `json:"categoryId"`
	LocalizationID string           `json:"localizationId"`
	Code           string           `json:"code"`
	Description    string           `json:"description"`
}

// Quantity is a stock count as sent by the backend, which emits it as an
// integer, a float or a numeric string depending on how the record was
// written. Fractions are truncated and null decodes as zero.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*q = 0
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		*q = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("quantity %s: %w", b, err)
	}
	*q = Quantity(d.IntPart())
	return nil
}

// Product is the normalized record the catalog view works with.
type Product struct {
	ID             string
	Name           string
	Price          decimal.Decimal
	Quantity       int
	Status         string
	CoverURL       string
	Colors         []string
	PriceSale      *decimal.Decimal
	CategoryID     string
	LocalizationID string
	Code           string
	Description    string
}

// NormalizeProduct maps a raw backend record to the catalog shape:
// _id becomes ID, absent colors become an empty set, an absent or zero
// sale price becomes nil and an absent status becomes "available".
func NormalizeProduct(raw RawProduct) Product {
	p := Product{
		ID:             raw.ID,
		Name:           raw.Name,
		Price:          raw.Price,
		Quantity:       int(raw.Quantity),
		Status:         raw.Status,
		CoverURL:       raw.ImageURL,
		Colors:         raw.Colors,
		CategoryID:     raw.CategoryID,
		LocalizationID: raw.LocalizationID,
		Code:           raw.Code,
		Description:    raw.Description,
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.Status == "" {
		p.Status = DefaultProductStatus
	}
	if raw.PriceSale != nil && !raw.PriceSale.IsZero() {
		sale := *raw.PriceSale
		p.PriceSale = &sale
	}
	return p
}

// NormalizeProducts normalizes a full listing, preserving order.
func NormalizeProducts(raw []RawProduct) []Product {
	out := make([]Product, 0, len(raw))
	for _, r := range raw {
		out = append(out, NormalizeProduct(r))
	}
	return out
}

// StockStatus is the derived, view-only stock label of a product.
type StockStatus struct {
	Low   bool   `json:"low"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// StockStatusFor returns the low-stock label when quantity is below threshold.
func StockStatusFor(quantity, threshold int) StockStatus {
	if quantity < threshold {
		return StockStatus{Low: true, Label: LabelLowStock, Color: "error"}
	}
	return StockStatus{Label: LabelInStock, Color: "success"}
}

// Category is a reference entity used to populate the category selector.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Localization is a reference entity used to populate the location selector.
type Localization struct {
	ID      string `json:"_id"`
	Address string `json:"address"`
}

// UploadResult is the body returned by POST /upload.
type UploadResult struct {
	Image string `json:"image"`
}

// ProductForm holds the create-product form exactly as typed by the user.
type ProductForm struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	Code           string `json:"code"`
	Quantity       string `json:"quantity"`
	CategoryID     string `json:"categoryId"`
	LocalizationID string `json:"localizationId"`
	ImageURL       string `json:"image_url"`
}

// ProductPayload is the body for POST /products. Price and Quantity are
// serialized as JSON numbers.
type ProductPayload struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Price          json.Number `json:"price"`
	Code           string      `json:"code"`
	Quantity       int         `json:"quantity"`
	CategoryID     string      `json:"categoryId"`
	LocalizationID string      `json:"localizationId"`
	ImageURL       string      `json:"image_url"`
}

// Payload coerces the numeric form fields and builds the request body.
// Empty numeric fields count as zero.
func (f ProductForm) Payload() (ProductPayload, error) {
	price, err := parseNumber(f.Price)
	if err != nil {
		return ProductPayload{}, &ErrValidation{Field: "price", Message: "preço inválido"}
	}

	qty, err := parseNumber(f.Quantity)
	if err != nil || !qty.IsInteger() {
		return ProductPayload{}, &ErrValidation{Field: "quantity", Message: "quantidade inválida"}
	}

	return ProductPayload{
		Name:           f.Name,
		Description:    f.Description,
		Price:          json.Number(price.String()),
		Code:           f.Code,
		Quantity:       int(qty.IntPart()),
		CategoryID:     f.CategoryID,
		LocalizationID: f.LocalizationID,
		ImageURL:       f.ImageURL,
	}, nil
}

// Set assigns a form field by its wire name.
func (f *ProductForm) Set(name, value string) error {
	switch name {
	case "name":
		f.Name = value
	case "description":
		f.Description = value
	case "price":
		f.Price = value
	case "code":
		f.Code = value
	case "quantity":
		f.Quantity = value
	case "categoryId":
		f.CategoryID = value
	case "localizationId":
		f.LocalizationID = value
	default:
		return &ErrValidation{Field: name, Message: "campo desconhecido"}
	}
	return nil
}

func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
