package service

import (
	"github.com/boddenberg/stock-admin-panel-go/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ProductItem is the card the renderer draws for one product.
type ProductItem struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	CoverURL       string             `json:"coverUrl"`
	Colors         []string           `json:"colors"`
	Status         string             `json:"status"`
	Stock          domain.StockStatus `json:"stock"`
	Quantity       int                `json:"quantity"`
	Price          decimal.Decimal    `json:"price"`
	PriceLabel     string             `json:"priceLabel"`
	PriceSale      *decimal.Decimal   `json:"priceSale"`
	PriceSaleLabel string             `json:"priceSaleLabel,omitempty"`
	CategoryID     string             `json:"categoryId,omitempty"`
	LocalizationID string             `json:"localizationId,omitempty"`
	Code           string             `json:"code,omitempty"`
	Description    string             `json:"description,omitempty"`
}

type priceFormatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// newPriceFormatter falls back to pt-BR and BRL on unparseable settings.
func newPriceFormatter(locale, code string) *priceFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.BRL
	}
	return &priceFormatter{printer: message.NewPrinter(tag), unit: unit}
}

func (f *priceFormatter) format(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(v)))
}

func (v *CatalogView) item(p domain.Product) ProductItem {
	cover := p.CoverURL
	if cover == "" {
		cover = v.cfg.PlaceholderImage
	}
	it := ProductItem{
		ID:             p.ID,
		Name:           p.Name,
		CoverURL:       cover,
		Colors:         p.Colors,
		Status:         p.Status,
		Stock:          domain.StockStatusFor(p.Quantity, v.cfg.LowStockThreshold),
		Quantity:       p.Quantity,
		Price:          p.Price,
		PriceLabel:     v.prices.format(p.Price),
		PriceSale:      p.PriceSale,
		CategoryID:     p.CategoryID,
		LocalizationID: p.LocalizationID,
		Code:           p.Code,
		Description:    p.Description,
	}
	if p.PriceSale != nil {
		it.PriceSaleLabel = v.prices.format(*p.PriceSale)
	}
	return it
}
