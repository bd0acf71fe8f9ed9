// Package port defines the interfaces (ports) the view controllers depend on.
// Following hexagonal architecture, these ports decouple the service layer
// from the remote stock API client, the session storage and the navigation
// collaborator.
package port

import (
	"context"
	"io"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
)

// SessionStore holds at most one authentication token.
type SessionStore interface {
	Token() (string, bool)
	SetToken(token string) error
	ClearToken() error
}

// Navigator performs route transitions.
type Navigator interface {
	Push(route string)
}

// CredentialSource yields the service credential for privileged endpoints.
type CredentialSource interface {
	ServiceToken(ctx context.Context) (string, error)
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error)
}

// CompanyCreator creates company records.
type CompanyCreator interface {
	CreateCompany(ctx context.Context, req domain.CompanyRequest) (*domain.Company, error)
}

// UserCreator creates user records.
type UserCreator interface {
	CreateUser(ctx context.Context, req domain.UserRequest) (*domain.User, error)
}

// SignupAPI is what the create-user view needs: create, then authenticate.
type SignupAPI interface {
	UserCreator
	Authenticator
}

// CatalogAPI is what the product catalog view needs.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]domain.RawProduct, error)
	CreateProduct(ctx context.Context, payload domain.ProductPayload) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListLocalizations(ctx context.Context) ([]domain.Localization, error)
	UploadImage(ctx context.Context, filename string, content io.Reader) (*domain.UploadResult, error)
}
