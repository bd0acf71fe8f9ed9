package service

import (
	"context"
	"sync"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const viewSignIn = "sign_in"

// SignInSnapshot is the renderable state of the sign-in screen.
// The password is never echoed back.
type SignInSnapshot struct {
	Email        string            `json:"email"`
	PasswordSet  bool              `json:"password_set"`
	ShowPassword bool              `json:"show_password"`
	State        SubmitState       `json:"state"`
	Loading      bool              `json:"loading"`
	Error        *domain.ViewError `json:"error,omitempty"`
}

// SignInView authenticates the operator and stores the returned token.
type SignInView struct {
	api      port.Authenticator
	sessions port.SessionStore
	nav      port.Navigator
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu           sync.Mutex
	creds        domain.Credentials
	showPassword bool
	state        SubmitState
	err          *domain.ViewError
}

// NewSignInView creates a SignInView.
func NewSignInView(api port.Authenticator, sessions port.SessionStore, nav port.Navigator, metrics *observability.Metrics, logger *zap.Logger) *SignInView {
	return &SignInView{
		api:      api,
		sessions: sessions,
		nav:      nav,
		metrics:  metrics,
		logger:   logger,
		state:    StateIdle,
	}
}

// SetField updates "email" or "password".
func (v *SignInView) SetField(name, value string) error {
	return v.SetFields(map[string]string{name: value})
}

// SetFields updates several fields at once. Nothing changes if any of them
// is rejected.
func (v *SignInView) SetFields(fields map[string]string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := setFields(v.creds, fields, setCredential)
	if err != nil {
		return err
	}
	v.creds = next
	return nil
}

func setCredential(c *domain.Credentials, name, value string) error {
	switch name {
	case "email":
		c.Email = value
	case "password":
		c.Password = value
	default:
		return &domain.ErrValidation{Field: name, Message: "campo desconhecido"}
	}
	return nil
}

func (v *SignInView) TogglePasswordVisibility() {
	v.mu.Lock()
	v.showPassword = !v.showPassword
	v.mu.Unlock()
}

// GoToRegister navigates to the company registration screen.
func (v *SignInView) GoToRegister() {
	v.nav.Push(domain.RouteRegister)
}

// Submit logs in with the current credentials. On success the token is
// stored and the view navigates home exactly once. The typed credentials
// are discarded whatever the outcome.
func (v *SignInView) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.state == StateSubmitting {
		v.mu.Unlock()
		return &domain.ErrInFlight{View: viewSignIn}
	}
	creds := v.creds
	v.creds = domain.Credentials{}
	v.state = StateSubmitting
	v.err = nil
	v.mu.Unlock()

	ctx, span := viewTracer.Start(ctx, "SignInView.Submit")
	defer span.End()

	resp, err := v.api.Login(ctx, creds)
	if err == nil && (resp == nil || resp.Token == "") {
		err = &domain.ErrMalformedResponse{Service: "login", Field: "token"}
	}
	if err == nil {
		err = v.sessions.SetToken(resp.Token)
	}

	v.mu.Lock()
	if err != nil {
		v.state = StateFailed
		v.err = domain.NewViewError(msgLogin, err)
	} else {
		v.state = StateSucceeded
	}
	v.mu.Unlock()

	recordSubmission(v.metrics, v.logger, viewSignIn, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	v.metrics.IncrSessionEvent("started")
	v.nav.Push(domain.RouteHome)
	return nil
}

func (v *SignInView) Snapshot() SignInSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return SignInSnapshot{
		Email:        v.creds.Email,
		PasswordSet:  v.creds.Password != "",
		ShowPassword: v.showPassword,
		State:        v.state,
		Loading:      v.state == StateSubmitting,
		Error:        v.err,
	}
}
