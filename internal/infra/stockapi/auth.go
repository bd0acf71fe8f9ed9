package stockapi

import (
	"context"
	"net/http"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
)

// Login exchanges credentials for a bearer token via POST /auth/login.
// A 2xx body without a token is returned as-is; callers decide what it means.
// A 401 here leaves the stored session untouched.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	var out domain.LoginResponse
	cl, err := jsonCall("login", http.MethodPost, "/auth/login", creds, &out)
	if err != nil {
		return nil, err
	}
	cl.credentialCheck = true
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCompany registers a company via POST /companies.
// The endpoint requires the service credential header.
func (c *Client) CreateCompany(ctx context.Context, req domain.CompanyRequest) (*domain.Company, error) {
	var out domain.Company
	cl, err := jsonCall("create_company", http.MethodPost, "/companies", req, &out)
	if err != nil {
		return nil, err
	}
	cl.privileged = true
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser creates a user bound to a company via POST /users.
// The endpoint requires the service credential header.
func (c *Client) CreateUser(ctx context.Context, req domain.UserRequest) (*domain.User, error) {
	var out domain.User
	cl, err := jsonCall("create_user", http.MethodPost, "/users", req, &out)
	if err != nil {
		return nil, err
	}
	cl.privileged = true
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return &out, nil
}
