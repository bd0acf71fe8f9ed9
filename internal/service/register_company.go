package service

import (
	"context"
	"net/url"
	"sync"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const viewRegisterCompany = "register_company"

// RegisterCompanySnapshot is the renderable state of the registration screen.
type RegisterCompanySnapshot struct {
	Name      string            `json:"name"`
	Document  string            `json:"document"`
	State     SubmitState       `json:"state"`
	Loading   bool              `json:"loading"`
	CompanyID string            `json:"company_id,omitempty"`
	Error     *domain.ViewError `json:"error,omitempty"`
}

// RegisterCompanyView creates a company and hands its ID to the user creation screen.
type RegisterCompanyView struct {
	api         port.CompanyCreator
	nav         port.Navigator
	companyType string
	metrics     *observability.Metrics
	logger      *zap.Logger

	mu        sync.Mutex
	name      string
	document  string
	state     SubmitState
	companyID string
	err       *domain.ViewError
}

// NewRegisterCompanyView creates a RegisterCompanyView. companyType is sent
// as the "type" of every company created.
func NewRegisterCompanyView(api port.CompanyCreator, nav port.Navigator, companyType string, metrics *observability.Metrics, logger *zap.Logger) *RegisterCompanyView {
	return &RegisterCompanyView{
		api:         api,
		nav:         nav,
		companyType: companyType,
		metrics:     metrics,
		logger:      logger,
		state:       StateIdle,
	}
}

// SetField updates "name" or "document".
func (v *RegisterCompanyView) SetField(name, value string) error {
	return v.SetFields(map[string]string{name: value})
}

// SetFields updates several fields at once. Nothing changes if any of them
// is rejected.
func (v *RegisterCompanyView) SetFields(fields map[string]string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := setFields(companyDraft{name: v.name, document: v.document}, fields, (*companyDraft).set)
	if err != nil {
		return err
	}
	v.name, v.document = next.name, next.document
	return nil
}

type companyDraft struct {
	name     string
	document string
}

func (d *companyDraft) set(name, value string) error {
	switch name {
	case "name":
		d.name = value
	case "document":
		d.document = value
	default:
		return &domain.ErrValidation{Field: name, Message: "campo desconhecido"}
	}
	return nil
}

// Submit creates the company and navigates to /create-user?companyId=<id>.
func (v *RegisterCompanyView) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.state == StateSubmitting {
		v.mu.Unlock()
		return &domain.ErrInFlight{View: viewRegisterCompany}
	}
	req := domain.CompanyRequest{
		Name:     v.name,
		Document: v.document,
		Type:     v.companyType,
		IsActive: true,
	}
	v.state = StateSubmitting
	v.err = nil
	v.mu.Unlock()

	ctx, span := viewTracer.Start(ctx, "RegisterCompanyView.Submit")
	defer span.End()

	company, err := v.api.CreateCompany(ctx, req)
	if err == nil && (company == nil || company.ID == "") {
		err = &domain.ErrMalformedResponse{Service: "create_company", Field: "_id"}
	}

	v.mu.Lock()
	if err != nil {
		v.state = StateFailed
		v.err = domain.NewViewError(msgCreateCompany, err)
	} else {
		v.state = StateSucceeded
		v.companyID = company.ID
	}
	v.mu.Unlock()

	recordSubmission(v.metrics, v.logger, viewRegisterCompany, err)
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("company.id", company.ID))
	v.nav.Push(CreateUserRoute(company.ID))
	return nil
}

func (v *RegisterCompanyView) Snapshot() RegisterCompanySnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return RegisterCompanySnapshot{
		Name:      v.name,
		Document:  v.document,
		State:     v.state,
		Loading:   v.state == StateSubmitting,
		CompanyID: v.companyID,
		Error:     v.err,
	}
}

// CreateUserRoute is the user creation route carrying the company ID.
func CreateUserRoute(companyID string) string {
	return domain.RouteCreateUser + "?" + url.Values{"companyId": {companyID}}.Encode()
}
