package stockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"

	"go.uber.org/zap"
)

// UploadField is the multipart field the upload endpoint reads the file from.
const UploadField = "file"

// ListProducts fetches GET /products. Records that fail to decode are
// logged and skipped so one bad row does not blank the listing.
func (c *Client) ListProducts(ctx context.Context) ([]domain.RawProduct, error) {
	var records []json.RawMessage
	cl, _ := jsonCall("list_products", http.MethodGet, "/products", nil, &records)
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}

	out := make([]domain.RawProduct, 0, len(records))
	for i, rec := range records {
		var p domain.RawProduct
		if err := json.Unmarshal(rec, &p); err != nil {
			c.logger.Warn("stockapi: skipping malformed product",
				zap.Int("index", i),
				zap.String("record", truncate(rec)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// CreateProduct posts a product. The response body is ignored; callers
// refetch the listing.
func (c *Client) CreateProduct(ctx context.Context, payload domain.ProductPayload) error {
	cl, err := jsonCall("create_product", http.MethodPost, "/products", payload, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, cl)
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	cl, _ := jsonCall("list_categories", http.MethodGet, "/categories", nil, &out)
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListLocalizations(ctx context.Context) ([]domain.Localization, error) {
	var out []domain.Localization
	cl, _ := jsonCall("list_localizations", http.MethodGet, "/localizations", nil, &out)
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadImage sends content as multipart/form-data under the "file" field
// and returns the hosted image URL.
func (c *Client) UploadImage(ctx context.Context, filename string, content io.Reader) (*domain.UploadResult, error) {
	if filename == "" {
		filename = "image"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("upload_image: create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("upload_image: read content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload_image: close multipart: %w", err)
	}

	var out domain.UploadResult
	cl := call{
		operation:   "upload_image",
		method:      http.MethodPost,
		path:        "/upload",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		out:         &out,
	}
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return &out, nil
}
