package service

import (
	"context"
	"io"
	"sync"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	viewCatalog      = "catalog"
	viewProductImage = "product_image"
)

// CatalogConfig holds the display settings of the catalog.
type CatalogConfig struct {
	LowStockThreshold int
	PlaceholderImage  string
	Currency          string
	Locale            string
}

// ProductFormState is the renderable state of the create-product form.
type ProductFormState struct {
	Open       bool               `json:"open"`
	Values     domain.ProductForm `json:"values"`
	Uploading  bool               `json:"uploading"`
	Submitting bool               `json:"submitting"`
	Error      *domain.ViewError  `json:"error,omitempty"`
	ImageError *domain.ViewError  `json:"image_error,omitempty"`
}

// CatalogSnapshot is the renderable state of the product listing screen.
// Product cards are served page by page through Page.
type CatalogSnapshot struct {
	Mounted            bool                  `json:"mounted"`
	LoadingProducts    bool                  `json:"loading_products"`
	ProductCount       int                   `json:"product_count"`
	Categories         []domain.Category     `json:"categories"`
	Localizations      []domain.Localization `json:"localizations"`
	ProductsError      *domain.ViewError     `json:"products_error,omitempty"`
	CategoriesError    *domain.ViewError     `json:"categories_error,omitempty"`
	LocalizationsError *domain.ViewError     `json:"localizations_error,omitempty"`
	Form               ProductFormState      `json:"form"`
}

// CatalogView lists products and creates new ones.
//
// Every mount gets a generation number. Fetch results are applied only if
// their generation is still current, so responses that land after Unmount
// or after a newer mount are dropped.
type CatalogView struct {
	api     port.CatalogAPI
	cfg     CatalogConfig
	prices  *priceFormatter
	metrics *observability.Metrics
	logger  *zap.Logger

	mu              sync.Mutex
	generation      uint64
	cancel          context.CancelFunc
	mounted         bool
	products        []domain.Product
	categories      []domain.Category
	localizations   []domain.Localization
	loadingProducts bool
	productsErr     *domain.ViewError
	categoriesErr   *domain.ViewError
	localizationErr *domain.ViewError

	formOpen   bool
	form       domain.ProductForm
	uploading  bool
	submitting bool
	formErr    *domain.ViewError
	imageErr   *domain.ViewError
}

// NewCatalogView creates a CatalogView.
func NewCatalogView(api port.CatalogAPI, cfg CatalogConfig, metrics *observability.Metrics, logger *zap.Logger) *CatalogView {
	return &CatalogView{
		api:           api,
		cfg:           cfg,
		prices:        newPriceFormatter(cfg.Locale, cfg.Currency),
		metrics:       metrics,
		logger:        logger,
		products:      []domain.Product{},
		categories:    []domain.Category{},
		localizations: []domain.Localization{},
	}
}

// Mount starts the products, categories and localizations fetches and
// returns a channel closed once all three have settled. Each list is applied
// as soon as its own fetch resolves. The fetches outlive ctx's cancellation
// and stop on Unmount or on the next Mount.
func (v *CatalogView) Mount(ctx context.Context) <-chan struct{} {
	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	gen := v.generation
	v.cancel = cancel
	v.mounted = true
	v.loadingProducts = true
	v.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		// A plain Group: one failed list must not cancel the other two.
		var g errgroup.Group
		g.Go(func() error { return v.fetchProducts(lifetime, gen) })
		g.Go(func() error { return v.fetchCategories(lifetime, gen) })
		g.Go(func() error { return v.fetchLocalizations(lifetime, gen) })
		if err := g.Wait(); err != nil {
			v.logger.Warn("catalog: mount settled with failures", zap.Uint64("generation", gen), zap.Error(err))
		}
	}()
	return done
}

// Reload retries all three fetches. It is a remount that keeps the form.
func (v *CatalogView) Reload(ctx context.Context) <-chan struct{} {
	return v.Mount(ctx)
}

// Unmount cancels in-flight fetches and discards their late results.
func (v *CatalogView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.mounted = false
	v.loadingProducts = false
}

func (v *CatalogView) fetchProducts(ctx context.Context, gen uint64) error {
	ctx, span := viewTracer.Start(ctx, "CatalogView.fetchProducts")
	defer span.End()

	raw, err := v.api.ListProducts(ctx)
	v.applyProducts(gen, raw, err)
	return err
}

// applyProducts stores a products response if the view is still mounted
// at generation gen.
func (v *CatalogView) applyProducts(gen uint64, raw []domain.RawProduct, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted || gen != v.generation {
		return
	}
	v.loadingProducts = false
	if err != nil {
		v.productsErr = domain.NewViewError(msgFetchProducts, err)
		v.logger.Warn("catalog: fetch products failed", zap.Error(err))
		return
	}
	v.products = domain.NormalizeProducts(raw)
	v.productsErr = nil
}

func (v *CatalogView) fetchCategories(ctx context.Context, gen uint64) error {
	ctx, span := viewTracer.Start(ctx, "CatalogView.fetchCategories")
	defer span.End()

	cats, err := v.api.ListCategories(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return err
	}
	if err != nil {
		v.categoriesErr = domain.NewViewError(msgFetchCategories, err)
		v.logger.Warn("catalog: fetch categories failed", zap.Error(err))
		return err
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	v.categories = cats
	v.categoriesErr = nil
	return nil
}

func (v *CatalogView) fetchLocalizations(ctx context.Context, gen uint64) error {
	ctx, span := viewTracer.Start(ctx, "CatalogView.fetchLocalizations")
	defer span.End()

	locs, err := v.api.ListLocalizations(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return err
	}
	if err != nil {
		v.localizationErr = domain.NewViewError(msgFetchLocalizations, err)
		v.logger.Warn("catalog: fetch localizations failed", zap.Error(err))
		return err
	}
	if locs == nil {
		locs = []domain.Localization{}
	}
	v.localizations = locs
	v.localizationErr = nil
	return nil
}

func (v *CatalogView) OpenForm() {
	v.mu.Lock()
	v.formOpen = true
	v.mu.Unlock()
}

// CloseForm hides the form. The draft is kept until a successful submit.
func (v *CatalogView) CloseForm() {
	v.mu.Lock()
	v.formOpen = false
	v.mu.Unlock()
}

// SetField updates one text field of the create-product form.
func (v *CatalogView) SetField(name, value string) error {
	return v.SetFields(map[string]string{name: value})
}

// SetFields updates several form fields at once. Nothing changes if any of
// them is rejected.
func (v *CatalogView) SetFields(fields map[string]string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := setFields(v.form, fields, (*domain.ProductForm).Set)
	if err != nil {
		return err
	}
	v.form = next
	return nil
}

// UploadImage hosts an image for the product being created. The form stays
// editable while the upload runs. On failure image_url is left unset.
func (v *CatalogView) UploadImage(ctx context.Context, filename string, content io.Reader) error {
	v.mu.Lock()
	if v.uploading {
		v.mu.Unlock()
		return &domain.ErrInFlight{View: viewProductImage}
	}
	v.uploading = true
	v.imageErr = nil
	v.mu.Unlock()

	ctx, span := viewTracer.Start(ctx, "CatalogView.UploadImage")
	defer span.End()

	res, err := v.api.UploadImage(ctx, filename, content)
	if err == nil && (res == nil || res.Image == "") {
		err = &domain.ErrMalformedResponse{Service: "upload_image", Field: "image"}
	}

	v.mu.Lock()
	v.uploading = false
	if err != nil {
		v.imageErr = domain.NewViewError(msgUploadImage, err)
	} else {
		v.form.ImageURL = res.Image
	}
	v.mu.Unlock()

	recordSubmission(v.metrics, v.logger, viewProductImage, err)
	return err
}

// Submit creates the product, refetches the full listing while mounted and
// resets the form. Numeric fields are sent as JSON numbers.
func (v *CatalogView) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.submitting {
		v.mu.Unlock()
		return &domain.ErrInFlight{View: viewCatalog}
	}
	if v.uploading {
		v.mu.Unlock()
		return &domain.ErrInFlight{View: viewProductImage}
	}
	payload, err := v.form.Payload()
	if err != nil {
		v.formErr = domain.NewViewError(msgCreateProduct, err)
		v.mu.Unlock()
		return err
	}
	v.submitting = true
	v.formErr = nil
	v.mu.Unlock()

	ctx, span := viewTracer.Start(ctx, "CatalogView.Submit")
	defer span.End()

	if err := v.api.CreateProduct(ctx, payload); err != nil {
		v.mu.Lock()
		v.submitting = false
		v.formErr = domain.NewViewError(msgCreateProduct, err)
		v.mu.Unlock()

		span.RecordError(err)
		recordSubmission(v.metrics, v.logger, viewCatalog, err)
		return err
	}

	// The refetch belongs to whichever mount is current now. An unmounted
	// view has no listing to refresh.
	v.mu.Lock()
	mounted, gen := v.mounted, v.generation
	v.mu.Unlock()
	if mounted {
		raw, fetchErr := v.api.ListProducts(ctx)
		v.applyProducts(gen, raw, fetchErr)
	}

	v.mu.Lock()
	v.submitting = false
	v.formOpen = false
	v.form = domain.ProductForm{}
	v.imageErr = nil
	v.mu.Unlock()

	recordSubmission(v.metrics, v.logger, viewCatalog, nil)
	return nil
}

// Products returns the normalized listing.
func (v *CatalogView) Products() []domain.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Product, len(v.products))
	copy(out, v.products)
	return out
}

// Page returns one page of product cards. page starts at 1.
func (v *CatalogView) Page(page, pageSize int) domain.ListResponse[ProductItem] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	v.mu.Lock()
	products := v.products
	v.mu.Unlock()

	total := len(products)
	pages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]ProductItem, 0, end-start)
	for _, p := range products[start:end] {
		items = append(items, v.item(p))
	}
	return domain.ListResponse[ProductItem]{
		Data:     items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
		HasMore:  end < total,
	}
}

func (v *CatalogView) Snapshot() CatalogSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return CatalogSnapshot{
		Mounted:            v.mounted,
		LoadingProducts:    v.loadingProducts,
		ProductCount:       len(v.products),
		Categories:         v.categories,
		Localizations:      v.localizations,
		ProductsError:      v.productsErr,
		CategoriesError:    v.categoriesErr,
		LocalizationsError: v.localizationErr,
		Form: ProductFormState{
			Open:       v.formOpen,
			Values:     v.form,
			Uploading:  v.uploading,
			Submitting: v.submitting,
			Error:      v.formErr,
			ImageError: v.imageErr,
		},
	}
}
