package domain

// ============================================================
// Auth and registration: stock API request and response types
// ============================================================

// Credentials is the body for POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /auth/login.
// Token is empty when the backend answered without one.
type LoginResponse struct {
	Token string `json:"token"`
}

// CompanyRequest is the body for POST /companies.
type CompanyRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// Company is the record returned by POST /companies.
type Company struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Document string `json:"document,omitempty"`
	Type     string `json:"type,omitempty"`
	IsActive bool   `json:"is_active,omitempty"`
}

// UserRequest is the body for POST /users.
type UserRequest struct {
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// User is the record returned by POST /users.
type User struct {
	ID        string `json:"_id"`
	CompanyID string `json:"companyId,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// SessionInfo describes the stored session for the renderer.
type SessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
	Expired       bool   `json:"expired,omitempty"`
}
