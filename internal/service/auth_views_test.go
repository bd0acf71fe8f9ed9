package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/credential"
	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/resilience"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/stockapi"
	"github.com/boddenberg/stock-admin-panel-go/internal/service"
	"github.com/boddenberg/stock-admin-panel-go/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fastRetry = resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}

func TestSignIn_StoresTokenAndNavigatesOnce(t *testing.T) {
	auth := &fakeAuth{fallback: loginResult{resp: &domain.LoginResponse{Token: "T1"}}}
	store := session.NewMemoryStore()
	nav := &fakeNavigator{}
	metrics := observability.NewMetrics()
	view := service.NewSignInView(auth, store, nav, metrics, zap.NewNop())

	require.NoError(t, view.SetField("email", "a@b.com"))
	require.NoError(t, view.SetField("password", "x"))
	require.NoError(t, view.Submit(context.Background()))

	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
	assert.Equal(t, []string{"/"}, nav.Routes())
	assert.Equal(t, []domain.Credentials{{Email: "a@b.com", Password: "x"}}, auth.Calls())

	snap := view.Snapshot()
	assert.Equal(t, service.StateSucceeded, snap.State)
	assert.Empty(t, snap.Email, "credentials are discarded after submit")
	assert.False(t, snap.PasswordSet)
	assert.Equal(t, int64(1), metrics.Snapshot().SessionsStarted)
}

func TestSignIn_MissingTokenLeavesSessionAlone(t *testing.T) {
	auth := &fakeAuth{fallback: loginResult{resp: &domain.LoginResponse{}}}
	store := session.NewMemoryStore()
	nav := &fakeNavigator{}
	view := service.NewSignInView(auth, store, nav, observability.NewMetrics(), zap.NewNop())

	err := view.Submit(context.Background())

	var malformed *domain.ErrMalformedResponse
	require.ErrorAs(t, err, &malformed)
	_, ok := store.Token()
	assert.False(t, ok)
	assert.Empty(t, nav.Routes())

	snap := view.Snapshot()
	assert.Equal(t, service.StateFailed, snap.State)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "Erro ao logar", snap.Error.Message)
	assert.Equal(t, domain.ErrorKindTerminal, snap.Error.Kind)
	assert.False(t, snap.Loading)
}

func TestSignIn_RejectedLoginKeepsStoredSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"senha inválida"}`))
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	require.NoError(t, store.SetToken("VALID"))
	metrics := observability.NewMetrics()
	client := stockapi.NewClient(srv.Client(), srv.URL,
		resilience.NewCircuitBreaker("sign-in-test", stockapi.CountsAsSuccess),
		resilience.NewBulkhead(0),
		store, credential.NewStaticSource(""), "",
		metrics, zap.NewNop())
	nav := &fakeNavigator{}
	view := service.NewSignInView(client, store, nav, metrics, zap.NewNop())
	require.NoError(t, view.SetField("email", "a@b.com"))
	require.NoError(t, view.SetField("password", "errada"))

	err := view.Submit(context.Background())

	var unauthorized *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
	token, ok := store.Token()
	assert.True(t, ok, "a rejected login must not end the current session")
	assert.Equal(t, "VALID", token)
	assert.Empty(t, nav.Routes())
	assert.Equal(t, service.StateFailed, view.Snapshot().State)
}

func TestSignIn_FailureIsRetryableAndResubmittable(t *testing.T) {
	auth := &fakeAuth{results: []loginResult{
		{err: &domain.ErrExternalService{Service: "login", Status: 503, Err: errors.New("down")}},
		{resp: &domain.LoginResponse{Token: "T2"}},
	}}
	store := session.NewMemoryStore()
	nav := &fakeNavigator{}
	view := service.NewSignInView(auth, store, nav, observability.NewMetrics(), zap.NewNop())

	require.Error(t, view.Submit(context.Background()))
	snap := view.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Equal(t, domain.ErrorKindRetryable, snap.Error.Kind)

	require.NoError(t, view.Submit(context.Background()))
	assert.Equal(t, []string{"/"}, nav.Routes())
}

func TestSignIn_UnknownFieldAndNavigation(t *testing.T) {
	nav := &fakeNavigator{}
	view := service.NewSignInView(&fakeAuth{}, session.NewMemoryStore(), nav, observability.NewMetrics(), zap.NewNop())

	var validation *domain.ErrValidation
	assert.ErrorAs(t, view.SetField("cpf", "1"), &validation)

	view.TogglePasswordVisibility()
	assert.True(t, view.Snapshot().ShowPassword)

	view.GoToRegister()
	assert.Equal(t, []string{"/register"}, nav.Routes())
}

func TestRegisterCompany_NavigatesWithCompanyID(t *testing.T) {
	api := &fakeCompanies{company: &domain.Company{ID: "C 1&x"}}
	nav := &fakeNavigator{}
	view := service.NewRegisterCompanyView(api, nav, "DEMO", observability.NewMetrics(), zap.NewNop())

	require.NoError(t, view.SetField("name", "ACME"))
	require.NoError(t, view.SetField("document", "12345678000190"))
	require.NoError(t, view.Submit(context.Background()))

	assert.Equal(t, domain.CompanyRequest{Name: "ACME", Document: "12345678000190", Type: "DEMO", IsActive: true}, api.req)
	require.Len(t, nav.Routes(), 1)

	u, err := url.Parse(nav.Routes()[0])
	require.NoError(t, err)
	assert.Equal(t, "/create-user", u.Path)
	assert.Equal(t, "C 1&x", u.Query().Get("companyId"))
}

func TestRegisterCompany_SetFieldsIsAllOrNothing(t *testing.T) {
	view := service.NewRegisterCompanyView(&fakeCompanies{}, &fakeNavigator{}, "DEMO", observability.NewMetrics(), zap.NewNop())

	var validation *domain.ErrValidation
	require.ErrorAs(t, view.SetFields(map[string]string{"name": "ACME", "cnpj": "1"}), &validation)
	assert.Equal(t, "cnpj", validation.Field)
	assert.Empty(t, view.Snapshot().Name)

	require.NoError(t, view.SetFields(map[string]string{"name": "ACME", "document": "123"}))
	snap := view.Snapshot()
	assert.Equal(t, "ACME", snap.Name)
	assert.Equal(t, "123", snap.Document)
}

func TestRegisterCompany_Failure(t *testing.T) {
	api := &fakeCompanies{err: &domain.ErrConflict{Message: "documento já cadastrado"}}
	nav := &fakeNavigator{}
	view := service.NewRegisterCompanyView(api, nav, "DEMO", observability.NewMetrics(), zap.NewNop())

	require.Error(t, view.Submit(context.Background()))
	assert.Empty(t, nav.Routes())
	snap := view.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Equal(t, "Erro ao criar empresa", snap.Error.Message)
	assert.Equal(t, service.StateFailed, snap.State)
}

func TestCreateUser_MountReadsCompanyID(t *testing.T) {
	api := &fakeSignup{}
	view := service.NewCreateUserView(api, session.NewMemoryStore(), &fakeNavigator{}, fastRetry, observability.NewMetrics(), zap.NewNop())

	view.Mount(url.Values{"companyId": {"C1"}})

	assert.Equal(t, "C1", view.Snapshot().CompanyID)
}

func TestCreateUser_RequiresCompanyID(t *testing.T) {
	api := &fakeSignup{}
	nav := &fakeNavigator{}
	view := service.NewCreateUserView(api, session.NewMemoryStore(), nav, fastRetry, observability.NewMetrics(), zap.NewNop())

	err := view.Submit(context.Background())

	var validation *domain.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "companyId", validation.Field)
	assert.Empty(t, api.userCalls)
	assert.Empty(t, nav.Routes())
}

func TestCreateUser_CreatesThenLogsIn(t *testing.T) {
	api := &fakeSignup{user: &domain.User{ID: "U1"}}
	api.fallback = loginResult{resp: &domain.LoginResponse{Token: "T9"}}
	store := session.NewMemoryStore()
	nav := &fakeNavigator{}
	view := service.NewCreateUserView(api, store, nav, fastRetry, observability.NewMetrics(), zap.NewNop())

	view.Mount(url.Values{"companyId": {"C1"}})
	require.NoError(t, view.SetField("name", "Ana"))
	require.NoError(t, view.SetField("email", "ana@acme.com"))
	require.NoError(t, view.SetField("password", "s3cret"))
	require.NoError(t, view.Submit(context.Background()))

	require.Len(t, api.userCalls, 1)
	assert.Equal(t, domain.UserRequest{CompanyID: "C1", Name: "Ana", Email: "ana@acme.com", Password: "s3cret"}, api.userCalls[0])
	assert.Equal(t, []domain.Credentials{{Email: "ana@acme.com", Password: "s3cret"}}, api.Calls())

	token, _ := store.Token()
	assert.Equal(t, "T9", token)
	assert.Equal(t, []string{"/"}, nav.Routes())
	assert.Equal(t, service.PhaseDone, view.Snapshot().Phase)
}

func TestCreateUser_LoginRetriedOnTransientFailure(t *testing.T) {
	api := &fakeSignup{user: &domain.User{ID: "U1"}}
	api.results = []loginResult{
		{err: &domain.ErrExternalService{Service: "login", Err: errors.New("connection reset")}},
		{resp: &domain.LoginResponse{Token: "T9"}},
	}
	nav := &fakeNavigator{}
	view := service.NewCreateUserView(api, session.NewMemoryStore(), nav, fastRetry, observability.NewMetrics(), zap.NewNop())
	view.Mount(url.Values{"companyId": {"C1"}})

	require.NoError(t, view.Submit(context.Background()))
	assert.Len(t, api.Calls(), 2)
	assert.Equal(t, []string{"/"}, nav.Routes())
}

func TestCreateUser_ResumesAtLoginAfterPartialFailure(t *testing.T) {
	api := &fakeSignup{user: &domain.User{ID: "U1"}}
	api.results = []loginResult{
		{err: &domain.ErrUnauthorized{Message: "credenciais inválidas"}},
		{resp: &domain.LoginResponse{Token: "T9"}},
	}
	store := session.NewMemoryStore()
	nav := &fakeNavigator{}
	view := service.NewCreateUserView(api, store, nav, fastRetry, observability.NewMetrics(), zap.NewNop())
	view.Mount(url.Values{"companyId": {"C1"}})
	require.NoError(t, view.SetField("email", "ana@acme.com"))
	require.NoError(t, view.SetField("password", "s3cret"))

	err := view.Submit(context.Background())

	var incomplete *domain.ErrSignupIncomplete
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "U1", incomplete.UserID)
	assert.Len(t, api.Calls(), 1, "terminal login errors are not retried")
	assert.Equal(t, service.PhaseUserCreated, view.Snapshot().Phase)
	assert.Empty(t, nav.Routes())

	require.NoError(t, view.Submit(context.Background()))
	assert.Len(t, api.userCalls, 1, "the user is not created twice")
	assert.Equal(t, []domain.Credentials{
		{Email: "ana@acme.com", Password: "s3cret"},
		{Email: "ana@acme.com", Password: "s3cret"},
	}, api.Calls())
	token, _ := store.Token()
	assert.Equal(t, "T9", token)
	assert.Equal(t, []string{"/"}, nav.Routes())
}

func TestCreateUser_SecondSubmitAfterSuccessSendsNothing(t *testing.T) {
	api := &fakeSignup{user: &domain.User{ID: "U1"}}
	api.fallback = loginResult{resp: &domain.LoginResponse{Token: "T9"}}
	nav := &fakeNavigator{}
	view := service.NewCreateUserView(api, session.NewMemoryStore(), nav, fastRetry, observability.NewMetrics(), zap.NewNop())
	view.Mount(url.Values{"companyId": {"C1"}})
	require.NoError(t, view.SetField("email", "ana@acme.com"))
	require.NoError(t, view.SetField("password", "s3cret"))
	require.NoError(t, view.Submit(context.Background()))

	err := view.Submit(context.Background())

	var validation *domain.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Len(t, api.userCalls, 1, "the user is not created again")
	assert.Len(t, api.Calls(), 1)
	assert.Equal(t, []string{"/"}, nav.Routes())
	assert.Equal(t, service.PhaseDone, view.Snapshot().Phase)

	view.Mount(url.Values{"companyId": {"C2"}})
	assert.Equal(t, service.PhaseForm, view.Snapshot().Phase)
}

func TestCreateUser_CreateFailureStaysInFormPhase(t *testing.T) {
	api := &fakeSignup{userErr: &domain.ErrExternalService{Service: "create_user", Status: 500, Err: errors.New("boom")}}
	view := service.NewCreateUserView(api, session.NewMemoryStore(), &fakeNavigator{}, fastRetry, observability.NewMetrics(), zap.NewNop())
	view.Mount(url.Values{"companyId": {"C1"}})

	require.Error(t, view.Submit(context.Background()))

	snap := view.Snapshot()
	assert.Equal(t, service.PhaseForm, snap.Phase)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "Erro ao criar o usuário", snap.Error.Message)
	assert.Empty(t, api.Calls())
}
