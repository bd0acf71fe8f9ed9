package service_test

import (
	"context"
	"io"
	"sync"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
)

// --- Fakes ---

type fakeNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *fakeNavigator) Push(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

func (n *fakeNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

type fakeAuth struct {
	mu       sync.Mutex
	calls    []domain.Credentials
	results  []loginResult
	fallback loginResult
}

type loginResult struct {
	resp *domain.LoginResponse
	err  error
}

func (a *fakeAuth) Login(_ context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, creds)
	if len(a.results) > 0 {
		r := a.results[0]
		a.results = a.results[1:]
		return r.resp, r.err
	}
	return a.fallback.resp, a.fallback.err
}

func (a *fakeAuth) Calls() []domain.Credentials {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Credentials(nil), a.calls...)
}

type fakeCompanies struct {
	req     domain.CompanyRequest
	company *domain.Company
	err     error
}

func (c *fakeCompanies) CreateCompany(_ context.Context, req domain.CompanyRequest) (*domain.Company, error) {
	c.req = req
	return c.company, c.err
}

type fakeSignup struct {
	fakeAuth
	userCalls []domain.UserRequest
	user      *domain.User
	userErr   error
}

func (s *fakeSignup) CreateUser(_ context.Context, req domain.UserRequest) (*domain.User, error) {
	s.userCalls = append(s.userCalls, req)
	return s.user, s.userErr
}

type fakeCatalog struct {
	mu sync.Mutex

	products      []domain.RawProduct
	productsErr   error
	productsGate  chan struct{}
	productsCalls int

	categories    []domain.Category
	categoriesErr error

	localizations    []domain.Localization
	localizationsErr error

	created   []domain.ProductPayload
	createErr error

	upload     *domain.UploadResult
	uploadErr  error
	uploadGate chan struct{}
}

func (c *fakeCatalog) ListProducts(ctx context.Context) ([]domain.RawProduct, error) {
	c.mu.Lock()
	c.productsCalls++
	gate := c.productsGate
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products, c.productsErr
}

func (c *fakeCatalog) CreateProduct(_ context.Context, payload domain.ProductPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, payload)
	c.products = append(c.products, domain.RawProduct{ID: "new", Name: payload.Name, Quantity: domain.Quantity(payload.Quantity)})
	return nil
}

func (c *fakeCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.categories, c.categoriesErr
}

func (c *fakeCatalog) ListLocalizations(context.Context) ([]domain.Localization, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localizations, c.localizationsErr
}

func (c *fakeCatalog) UploadImage(_ context.Context, _ string, content io.Reader) (*domain.UploadResult, error) {
	_, _ = io.Copy(io.Discard, content)
	if c.uploadGate != nil {
		<-c.uploadGate
	}
	return c.upload, c.uploadErr
}
