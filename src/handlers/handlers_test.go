package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/username/pettyvault/src/config"
	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security"
	"github.com/username/pettyvault/src/services"
)

// HandlerTestSuite drives the full HTTP surface against a fresh
// database per test, wired the same way the server wires it.
type HandlerTestSuite struct {
	suite.Suite
	mux *http.ServeMux
}

func (s *HandlerTestSuite) SetupTest() {
	config.Cfg = &config.AppConfig{
		JWTSecret:                "handler-test-secret-of-32-bytes-min!!",
		TokenExpiry:              48 * time.Hour,
		EmailServiceProvider:     "mock",
		InviteTokenExpiry:        72 * time.Hour,
		PasswordResetTokenExpiry: time.Hour,
	}
	logger.InitLogger("error")
	database.InitDB(filepath.Join(s.T().TempDir(), "test.db"))

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	reportService := services.NewReportService(database.DB, cache.New(time.Minute, time.Minute))

	userHandler := NewUserHandler(authService, emailService)
	companyHandler := NewCompanyHandler()
	fundHandler := NewFundHandler(reportService)
	requisitionHandler := NewRequisitionHandler(reportService)
	approvalHandler := NewApprovalHandler(reportService)
	transactionHandler := NewTransactionHandler(reportService)
	reportHandler := NewReportHandler(reportService)

	authed := userHandler.AuthMiddleware
	scoped := func(handler http.HandlerFunc) http.HandlerFunc {
		return authed(CompanyMiddleware(handler))
	}
	scopedAs := func(handler http.HandlerFunc, roles ...model.Role) http.HandlerFunc {
		return scoped(RequireRole(roles...)(handler))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signup", userHandler.SignupHandler)
	mux.HandleFunc("POST /api/auth/login", userHandler.LoginHandler)
	mux.HandleFunc("POST /api/auth/logout", authed(userHandler.LogoutHandler))
	mux.HandleFunc("GET /api/auth/me", authed(userHandler.MeHandler))
	mux.HandleFunc("POST /api/auth/invite", scopedAs(userHandler.InviteHandler, model.RoleAdmin))
	mux.HandleFunc("GET /api/auth/users", scoped(userHandler.ListUsersHandler))

	mux.HandleFunc("GET /api/companies", authed(companyHandler.ListCompaniesHandler))
	mux.HandleFunc("POST /api/companies/create", authed(companyHandler.CreateCompanyHandler))
	mux.HandleFunc("DELETE /api/companies/{id}/users/{userID}", scopedAs(companyHandler.RemoveUserHandler, model.RoleAdmin))

	mux.HandleFunc("GET /api/funds", scoped(fundHandler.ListFundsHandler))
	mux.HandleFunc("GET /api/funds/{id}", scoped(fundHandler.GetFundHandler))
	mux.HandleFunc("POST /api/funds/create", scopedAs(fundHandler.CreateFundHandler, model.RoleAdmin, model.RoleFinance))
	mux.HandleFunc("DELETE /api/funds/delete/{id}", scopedAs(fundHandler.DeleteFundHandler, model.RoleAdmin, model.RoleFinance))

	mux.HandleFunc("POST /api/requisitions/create", scoped(requisitionHandler.CreateRequisitionHandler))
	mux.HandleFunc("GET /api/requisitions/mine", scoped(requisitionHandler.ListMineHandler))
	mux.HandleFunc("GET /api/requisitions", scopedAs(requisitionHandler.ListAllHandler, model.RoleAdmin, model.RoleFinance))
	mux.HandleFunc("GET /api/requisitions/approvals", scopedAs(approvalHandler.ListApprovalsHandler, model.RoleAdmin, model.RoleFinance))
	mux.HandleFunc("PUT /api/requisitions/approvals/approve/{id}", scopedAs(approvalHandler.ApproveHandler, model.RoleAdmin, model.RoleFinance))
	mux.HandleFunc("PUT /api/requisitions/approvals/reject/{id}", scopedAs(approvalHandler.RejectHandler, model.RoleAdmin, model.RoleFinance))

	mux.HandleFunc("GET /api/transactions", scopedAs(transactionHandler.ListTransactionsHandler, model.RoleAdmin, model.RoleFinance))
	mux.HandleFunc("POST /api/transactions/create", scopedAs(transactionHandler.CreateTransactionHandler, model.RoleAdmin, model.RoleFinance))

	mux.HandleFunc("GET /api/reports/user", scoped(reportHandler.UserReportHandler))
	mux.HandleFunc("GET /api/reports/company", scopedAs(reportHandler.CompanyReportHandler, model.RoleAdmin, model.RoleFinance))
	mux.HandleFunc("GET /api/dashboard", scopedAs(reportHandler.DashboardHandler, model.RoleAdmin))

	s.mux = mux
}

func (s *HandlerTestSuite) TearDownTest() {
	if database.DB != nil {
		database.DB.Close()
	}
}

func (s *HandlerTestSuite) request(method, path, token, companyID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if companyID != "" {
		req.Header.Set(CompanyIDHeader, companyID)
	}
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerTestSuite) decodeData(rr *httptest.ResponseRecorder, out interface{}) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(s.T(), json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NoError(s.T(), json.Unmarshal(envelope.Data, out))
}

func (s *HandlerTestSuite) errorMessage(rr *httptest.ResponseRecorder) string {
	var envelope struct {
		Error string `json:"error"`
	}
	require.NoError(s.T(), json.Unmarshal(rr.Body.Bytes(), &envelope))
	return envelope.Error
}

// signupAndLogin creates an account and returns its bearer token.
func (s *HandlerTestSuite) signupAndLogin(name, email string) string {
	rr := s.request("POST", "/api/auth/signup", "", "", map[string]string{
		"name": name, "email": email, "password": "supersecret",
	})
	require.Equal(s.T(), http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.request("POST", "/api/auth/login", "", "", map[string]string{
		"email": email, "password": "supersecret",
	})
	require.Equal(s.T(), http.StatusOK, rr.Code, rr.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	s.decodeData(rr, &login)
	require.NotEmpty(s.T(), login.Token)
	return login.Token
}

func (s *HandlerTestSuite) createCompany(token, name string) string {
	rr := s.request("POST", "/api/companies/create", token, "", map[string]string{"name": name})
	require.Equal(s.T(), http.StatusCreated, rr.Code, rr.Body.String())

	var company model.Company
	s.decodeData(rr, &company)
	return company.ID
}

func (s *HandlerTestSuite) createFund(token, companyID, name string, amount float64) model.PettyFund {
	rr := s.request("POST", "/api/funds/create", token, companyID, map[string]interface{}{
		"name": name, "amount": amount,
	})
	require.Equal(s.T(), http.StatusCreated, rr.Code, rr.Body.String())

	var fund model.PettyFund
	s.decodeData(rr, &fund)
	return fund
}

func (s *HandlerTestSuite) TestLoginReportsExpiryInMilliseconds() {
	s.request("POST", "/api/auth/signup", "", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "supersecret",
	})
	rr := s.request("POST", "/api/auth/login", "", "", map[string]string{
		"email": "ada@example.com", "password": "supersecret",
	})
	require.Equal(s.T(), http.StatusOK, rr.Code)

	var login struct {
		Token     string     `json:"token"`
		User      model.User `json:"user"`
		ExpiresAt int64      `json:"expiresAt"`
	}
	s.decodeData(rr, &login)

	assert.NotEmpty(s.T(), login.Token)
	assert.Equal(s.T(), "ada@example.com", login.User.Email)

	expected := time.Now().Add(48 * time.Hour).UnixMilli()
	assert.InDelta(s.T(), expected, login.ExpiresAt, float64(10*time.Second.Milliseconds()))
}

func (s *HandlerTestSuite) TestLoginRejectsWrongPassword() {
	s.request("POST", "/api/auth/signup", "", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "supersecret",
	})
	rr := s.request("POST", "/api/auth/login", "", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(s.T(), http.StatusUnauthorized, rr.Code)
	assert.Equal(s.T(), "Invalid email or password", s.errorMessage(rr))
}

func (s *HandlerTestSuite) TestRequestWithoutTokenIsRejectedWithMessage() {
	rr := s.request("GET", "/api/funds", "", "c1", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, rr.Code)
	assert.Equal(s.T(), "Authorization header required", s.errorMessage(rr))
}

func (s *HandlerTestSuite) TestCompanyHeaderRequired() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	rr := s.request("GET", "/api/funds", token, "", nil)
	assert.Equal(s.T(), http.StatusBadRequest, rr.Code)
}

func (s *HandlerTestSuite) TestNonMemberIsForbidden() {
	admin := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(admin, "Acme")

	outsider := s.signupAndLogin("Eve", "eve@example.com")
	rr := s.request("GET", "/api/funds", outsider, companyID, nil)
	assert.Equal(s.T(), http.StatusForbidden, rr.Code)
}

func (s *HandlerTestSuite) TestCreatedFundAppearsInList() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")

	fund := s.createFund(token, companyID, "Travel", 500)
	assert.Equal(s.T(), 500.0, fund.CurrentBalance)
	assert.Equal(s.T(), 500.0, fund.TotalAdded)

	rr := s.request("GET", "/api/funds", token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)

	var funds []model.PettyFund
	s.decodeData(rr, &funds)
	require.Len(s.T(), funds, 1)
	assert.Equal(s.T(), "Travel", funds[0].Name)
	assert.Equal(s.T(), 500.0, funds[0].CurrentBalance)
}

func (s *HandlerTestSuite) TestEmptyFundListEncodesAsArray() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")

	rr := s.request("GET", "/api/funds", token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)
	assert.JSONEq(s.T(), `{"data": []}`, rr.Body.String())
}

func (s *HandlerTestSuite) TestApprovedRequisitionLeavesQueueAndDebitsFund() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")
	fund := s.createFund(token, companyID, "Travel", 500)

	rr := s.request("POST", "/api/requisitions/create", token, companyID, map[string]interface{}{
		"title": "Taxi to airport", "amount": 80.0, "fund_id": fund.ID,
	})
	require.Equal(s.T(), http.StatusCreated, rr.Code, rr.Body.String())
	var created model.Requisition
	s.decodeData(rr, &created)
	assert.Equal(s.T(), model.StatusPending, created.Status)

	rr = s.request("GET", "/api/requisitions/approvals", token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)
	var queue []model.Requisition
	s.decodeData(rr, &queue)
	require.Len(s.T(), queue, 1)

	rr = s.request("PUT", "/api/requisitions/approvals/approve/"+created.ID, token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code, rr.Body.String())
	var approved model.Requisition
	s.decodeData(rr, &approved)
	assert.Equal(s.T(), model.StatusApproved, approved.Status)

	// The queue is re-fetched, not patched locally; the approved
	// requisition must be gone.
	rr = s.request("GET", "/api/requisitions/approvals", token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)
	s.decodeData(rr, &queue)
	assert.Empty(s.T(), queue)

	rr = s.request("GET", "/api/funds/"+fund.ID, token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)
	var after model.PettyFund
	s.decodeData(rr, &after)
	assert.Equal(s.T(), 420.0, after.CurrentBalance)
	assert.Equal(s.T(), 80.0, after.TotalSpent)
}

func (s *HandlerTestSuite) TestApproveBeyondBalanceIsConflict() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")
	fund := s.createFund(token, companyID, "Travel", 100)

	rr := s.request("POST", "/api/requisitions/create", token, companyID, map[string]interface{}{
		"title": "Conference", "amount": 250.0, "fund_id": fund.ID,
	})
	require.Equal(s.T(), http.StatusCreated, rr.Code)
	var created model.Requisition
	s.decodeData(rr, &created)

	rr = s.request("PUT", "/api/requisitions/approvals/approve/"+created.ID, token, companyID, nil)
	assert.Equal(s.T(), http.StatusConflict, rr.Code)
	assert.Equal(s.T(), "Fund balance is insufficient for this requisition", s.errorMessage(rr))

	rr = s.request("GET", "/api/funds/"+fund.ID, token, companyID, nil)
	var after model.PettyFund
	s.decodeData(rr, &after)
	assert.Equal(s.T(), 100.0, after.CurrentBalance, "balance must be untouched")
}

func (s *HandlerTestSuite) TestDoubleApproveIsConflict() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")
	fund := s.createFund(token, companyID, "Travel", 500)

	rr := s.request("POST", "/api/requisitions/create", token, companyID, map[string]interface{}{
		"title": "Stamps", "amount": 10.0, "fund_id": fund.ID,
	})
	var created model.Requisition
	s.decodeData(rr, &created)

	rr = s.request("PUT", "/api/requisitions/approvals/approve/"+created.ID, token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)
	rr = s.request("PUT", "/api/requisitions/approvals/approve/"+created.ID, token, companyID, nil)
	assert.Equal(s.T(), http.StatusConflict, rr.Code)
}

func (s *HandlerTestSuite) TestDraftIsHiddenFromCompanyListing() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")
	fund := s.createFund(token, companyID, "Travel", 500)

	rr := s.request("POST", "/api/requisitions/create", token, companyID, map[string]interface{}{
		"title": "Maybe later", "amount": 30.0, "fund_id": fund.ID, "draft": true,
	})
	require.Equal(s.T(), http.StatusCreated, rr.Code)
	var created model.Requisition
	s.decodeData(rr, &created)
	assert.Equal(s.T(), model.StatusDraft, created.Status)

	rr = s.request("GET", "/api/requisitions", token, companyID, nil)
	var all []model.Requisition
	s.decodeData(rr, &all)
	assert.Empty(s.T(), all)

	rr = s.request("GET", "/api/requisitions/mine", token, companyID, nil)
	var mine []model.Requisition
	s.decodeData(rr, &mine)
	assert.Len(s.T(), mine, 1)
}

func (s *HandlerTestSuite) TestEmployeeCannotCreateFund() {
	admin := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(admin, "Acme")

	employee := s.signupAndLogin("Bob", "bob@example.com")
	var bob model.User
	rr := s.request("GET", "/api/auth/me", employee, "", nil)
	s.decodeData(rr, &bob)
	require.NoError(s.T(), model.CreateMembership(database.DB, &model.Membership{
		UserID: bob.ID, CompanyID: companyID, Role: model.RoleEmployee,
	}))

	rr = s.request("POST", "/api/funds/create", employee, companyID, map[string]interface{}{
		"name": "Side fund", "amount": 100.0,
	})
	assert.Equal(s.T(), http.StatusForbidden, rr.Code)
}

func (s *HandlerTestSuite) TestInviteTokenJoinsCompanyAtSignup() {
	admin := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(admin, "Acme")

	rr := s.request("POST", "/api/auth/invite", admin, companyID, map[string]string{
		"email": "carol@example.com", "role": "FINANCE",
	})
	require.Equal(s.T(), http.StatusCreated, rr.Code, rr.Body.String())

	var inviteToken string
	require.NoError(s.T(), database.DB.QueryRow(
		`SELECT token FROM invites WHERE email = ?`, "carol@example.com").Scan(&inviteToken))

	rr = s.request("POST", "/api/auth/signup", "", "", map[string]string{
		"name": "Carol", "email": "carol@example.com", "password": "supersecret",
		"inviteToken": inviteToken,
	})
	require.Equal(s.T(), http.StatusCreated, rr.Code)

	carol := s.signupAndLoginExisting("carol@example.com")
	rr = s.request("GET", "/api/companies", carol, "", nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)

	var companies []model.CompanyWithRole
	s.decodeData(rr, &companies)
	require.Len(s.T(), companies, 1)
	assert.Equal(s.T(), companyID, companies[0].ID)
	assert.Equal(s.T(), model.RoleFinance, companies[0].Role)
}

// signupAndLoginExisting logs an already registered account in.
func (s *HandlerTestSuite) signupAndLoginExisting(email string) string {
	rr := s.request("POST", "/api/auth/login", "", "", map[string]string{
		"email": email, "password": "supersecret",
	})
	require.Equal(s.T(), http.StatusOK, rr.Code)
	var login struct {
		Token string `json:"token"`
	}
	s.decodeData(rr, &login)
	return login.Token
}

func (s *HandlerTestSuite) TestRemoveLastAdminIsConflict() {
	admin := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(admin, "Acme")

	var ada model.User
	rr := s.request("GET", "/api/auth/me", admin, "", nil)
	s.decodeData(rr, &ada)

	rr = s.request("DELETE", fmt.Sprintf("/api/companies/%s/users/%d", companyID, ada.ID), admin, companyID, nil)
	assert.Equal(s.T(), http.StatusConflict, rr.Code)
}

func (s *HandlerTestSuite) TestLogoutInvalidatesSession() {
	token := s.signupAndLogin("Ada", "ada@example.com")

	rr := s.request("POST", "/api/auth/logout", token, "", nil)
	assert.Equal(s.T(), http.StatusNoContent, rr.Code)

	rr = s.request("GET", "/api/auth/me", token, "", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, rr.Code)
}

func (s *HandlerTestSuite) TestDashboardRequiresAdmin() {
	admin := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(admin, "Acme")
	s.createFund(admin, companyID, "Travel", 500)

	rr := s.request("GET", "/api/dashboard", admin, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)

	var dash services.Dashboard
	s.decodeData(rr, &dash)
	assert.Equal(s.T(), 1, dash.FundCount)
	assert.Equal(s.T(), 500.0, dash.TotalBalance)
	assert.Equal(s.T(), 1, dash.MemberCount)

	finance := s.signupAndLogin("Fin", "fin@example.com")
	var fin model.User
	rr = s.request("GET", "/api/auth/me", finance, "", nil)
	s.decodeData(rr, &fin)
	require.NoError(s.T(), model.CreateMembership(database.DB, &model.Membership{
		UserID: fin.ID, CompanyID: companyID, Role: model.RoleFinance,
	}))

	rr = s.request("GET", "/api/dashboard", finance, companyID, nil)
	assert.Equal(s.T(), http.StatusForbidden, rr.Code)
}

func (s *HandlerTestSuite) TestUserReportMonthFilterValidation() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")

	rr := s.request("GET", "/api/reports/user?month=March", token, companyID, nil)
	assert.Equal(s.T(), http.StatusBadRequest, rr.Code)

	rr = s.request("GET", "/api/reports/user?month=2026-03", token, companyID, nil)
	assert.Equal(s.T(), http.StatusOK, rr.Code)
}

func (s *HandlerTestSuite) TestReportReflectsApprovals() {
	token := s.signupAndLogin("Ada", "ada@example.com")
	companyID := s.createCompany(token, "Acme")
	fund := s.createFund(token, companyID, "Travel", 500)

	rr := s.request("POST", "/api/requisitions/create", token, companyID, map[string]interface{}{
		"title": "Taxi", "amount": 80.0, "fund_id": fund.ID,
	})
	var created model.Requisition
	s.decodeData(rr, &created)
	rr = s.request("PUT", "/api/requisitions/approvals/approve/"+created.ID, token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)

	rr = s.request("GET", "/api/reports/company", token, companyID, nil)
	require.Equal(s.T(), http.StatusOK, rr.Code)

	var report services.CompanyReport
	s.decodeData(rr, &report)
	assert.Equal(s.T(), 80.0, report.TotalRequested)
	assert.Equal(s.T(), 80.0, report.TotalApproved)
	assert.Equal(s.T(), 1, report.Counts.Approved)
	require.Len(s.T(), report.Funds, 1)
	assert.Equal(s.T(), 420.0, report.Funds[0].CurrentBalance)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
