package service

import (
	"context"
	"net/url"
	"sync"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/resilience"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const viewCreateUser = "create_user"

// SignupPhase tracks how far the two-step signup got.
type SignupPhase string

const (
	PhaseForm        SignupPhase = "form"
	PhaseUserCreated SignupPhase = "user_created"
	PhaseDone        SignupPhase = "done"
)

// CreateUserSnapshot is the renderable state of the user creation screen.
type CreateUserSnapshot struct {
	CompanyID   string            `json:"companyId"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	PasswordSet bool              `json:"password_set"`
	Phase       SignupPhase       `json:"phase"`
	State       SubmitState       `json:"state"`
	Loading     bool              `json:"loading"`
	Error       *domain.ViewError `json:"error,omitempty"`
}

// CreateUserView creates a user for a company and then logs in as that user.
//
// The two calls are not atomic. When the user is created but the login
// fails, the view remembers the created account and the next Submit only
// repeats the login.
type CreateUserView struct {
	api      port.SignupAPI
	sessions port.SessionStore
	nav      port.Navigator
	retry    resilience.Config
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	form    domain.UserRequest
	phase   SignupPhase
	pending domain.Credentials
	userID  string
	state   SubmitState
	err     *domain.ViewError
}

// NewCreateUserView creates a CreateUserView. retry bounds the login attempts
// made right after the user is created.
func NewCreateUserView(api port.SignupAPI, sessions port.SessionStore, nav port.Navigator, retry resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *CreateUserView {
	return &CreateUserView{
		api:      api,
		sessions: sessions,
		nav:      nav,
		retry:    retry,
		metrics:  metrics,
		logger:   logger,
		phase:    PhaseForm,
		state:    StateIdle,
	}
}

// Mount reads companyId from the navigation query string. A new company
// starts a fresh signup.
func (v *CreateUserView) Mount(query url.Values) {
	companyID := query.Get("companyId")

	v.mu.Lock()
	defer v.mu.Unlock()
	if companyID == "" || companyID == v.form.CompanyID {
		return
	}
	v.form = domain.UserRequest{CompanyID: companyID}
	v.phase = PhaseForm
	v.pending = domain.Credentials{}
	v.userID = ""
	v.state = StateIdle
	v.err = nil
}

// SetField updates "name", "email" or "password".
func (v *CreateUserView) SetField(name, value string) error {
	return v.SetFields(map[string]string{name: value})
}

// SetFields updates several fields at once. Nothing changes if any of them
// is rejected. companyId only comes from Mount.
func (v *CreateUserView) SetFields(fields map[string]string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := setFields(v.form, fields, setUserField)
	if err != nil {
		return err
	}
	v.form = next
	return nil
}

func setUserField(u *domain.UserRequest, name, value string) error {
	switch name {
	case "name":
		u.Name = value
	case "email":
		u.Email = value
	case "password":
		u.Password = value
	default:
		return &domain.ErrValidation{Field: name, Message: "campo desconhecido"}
	}
	return nil
}

// Submit runs the signup. Without a company ID, or once the signup for the
// mounted company is done, nothing is sent.
func (v *CreateUserView) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.state == StateSubmitting {
		v.mu.Unlock()
		return &domain.ErrInFlight{View: viewCreateUser}
	}
	if v.form.CompanyID == "" {
		err := &domain.ErrValidation{Field: "companyId", Message: "empresa não informada"}
		v.state = StateFailed
		v.err = domain.NewViewError(msgCreateUser, err)
		v.mu.Unlock()
		return err
	}
	if v.phase == PhaseDone {
		v.mu.Unlock()
		return &domain.ErrValidation{Field: "companyId", Message: "cadastro já concluído para esta empresa"}
	}
	phase := v.phase
	req := v.form
	creds := v.pending
	v.state = StateSubmitting
	v.err = nil
	v.mu.Unlock()

	ctx, span := viewTracer.Start(ctx, "CreateUserView.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("company.id", req.CompanyID),
		attribute.String("signup.phase", string(phase)),
	)

	var userID string
	if phase != PhaseUserCreated {
		user, err := v.api.CreateUser(ctx, req)
		if err != nil {
			return v.fail(err)
		}
		if user != nil {
			userID = user.ID
		}
		creds = domain.Credentials{Email: req.Email, Password: req.Password}

		v.mu.Lock()
		v.phase = PhaseUserCreated
		v.pending = creds
		v.userID = userID
		v.form.Password = ""
		v.mu.Unlock()
	} else {
		v.mu.Lock()
		userID = v.userID
		v.mu.Unlock()
	}

	var resp *domain.LoginResponse
	err := resilience.RetryIf(ctx, v.retry, domain.IsRetryable, func() error {
		var loginErr error
		resp, loginErr = v.api.Login(ctx, creds)
		return loginErr
	})
	if err == nil && (resp == nil || resp.Token == "") {
		err = &domain.ErrMalformedResponse{Service: "login", Field: "token"}
	}
	if err == nil {
		err = v.sessions.SetToken(resp.Token)
	}
	if err != nil {
		return v.fail(&domain.ErrSignupIncomplete{UserID: userID, Err: err})
	}

	v.mu.Lock()
	v.phase = PhaseDone
	v.pending = domain.Credentials{}
	v.state = StateSucceeded
	v.mu.Unlock()

	recordSubmission(v.metrics, v.logger, viewCreateUser, nil)
	v.metrics.IncrSessionEvent("started")
	v.nav.Push(domain.RouteHome)
	return nil
}

func (v *CreateUserView) fail(err error) error {
	v.mu.Lock()
	v.state = StateFailed
	v.err = domain.NewViewError(msgCreateUser, err)
	v.mu.Unlock()

	recordSubmission(v.metrics, v.logger, viewCreateUser, err)
	return err
}

func (v *CreateUserView) Snapshot() CreateUserSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return CreateUserSnapshot{
		CompanyID:   v.form.CompanyID,
		Name:        v.form.Name,
		Email:       v.form.Email,
		PasswordSet: v.form.Password != "",
		Phase:       v.phase,
		State:       v.state,
		Loading:     v.state == StateSubmitting,
		Error:       v.err,
	}
}
