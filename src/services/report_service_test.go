package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
)

type ReportServiceTestSuite struct {
	suite.Suite
	svc     ReportService
	user    *model.User
	company *model.Company
	fund    *model.PettyFund
}

func (s *ReportServiceTestSuite) SetupTest() {
	logger.InitLogger("error")
	database.InitDB(filepath.Join(s.T().TempDir(), "test.db"))
	s.svc = NewReportService(database.DB, cache.New(time.Minute, time.Minute))

	s.user = &model.User{Name: "Ada", Email: "ada@example.com", Password: "x"}
	require.NoError(s.T(), s.user.CreateUser(database.DB))

	s.company = &model.Company{Name: "Acme", OwnerID: s.user.ID}
	require.NoError(s.T(), model.CreateCompany(database.DB, s.company))

	s.fund = &model.PettyFund{CompanyID: s.company.ID, Name: "Travel"}
	require.NoError(s.T(), model.CreateFund(database.DB, s.fund, 500))
}

func (s *ReportServiceTestSuite) TearDownTest() {
	if database.DB != nil {
		database.DB.Close()
	}
}

func (s *ReportServiceTestSuite) addRequisition(amount float64, approve bool) {
	r := &model.Requisition{
		CompanyID: s.company.ID,
		UserID:    s.user.ID,
		FundID:    s.fund.ID,
		Title:     "Expense",
		Amount:    amount,
	}
	require.NoError(s.T(), model.CreateRequisition(database.DB, r))
	if approve {
		_, err := model.ApproveRequisition(database.DB, s.company.ID, r.ID)
		require.NoError(s.T(), err)
	}
}

func (s *ReportServiceTestSuite) TestUserReportTallies() {
	s.addRequisition(80, true)
	s.addRequisition(40, false)

	report, err := s.svc.UserReport(s.company.ID, s.user.ID, "")
	require.NoError(s.T(), err)

	s.Equal(120.0, report.TotalRequested)
	s.Equal(80.0, report.TotalApproved)
	s.Equal(1, report.Counts.Approved)
	s.Equal(1, report.Counts.Pending)
}

func (s *ReportServiceTestSuite) TestBadMonthFilter() {
	_, err := s.svc.UserReport(s.company.ID, s.user.ID, "March")
	s.ErrorIs(err, ErrBadMonth)

	_, err = s.svc.CompanyReport(s.company.ID, "2026/03")
	s.ErrorIs(err, ErrBadMonth)
}

func (s *ReportServiceTestSuite) TestMonthFilterExcludesOtherMonths() {
	s.addRequisition(80, false)

	now := time.Now().UTC()
	report, err := s.svc.CompanyReport(s.company.ID, now.Format("2006-01"))
	require.NoError(s.T(), err)
	s.Equal(80.0, report.TotalRequested)

	previous := now.AddDate(0, -1, 0).Format("2006-01")
	report, err = s.svc.CompanyReport(s.company.ID, previous)
	require.NoError(s.T(), err)
	s.Equal(0.0, report.TotalRequested)
	s.Equal(0, report.Counts.Pending)
}

func (s *ReportServiceTestSuite) TestCompanyReportIncludesFundSummaries() {
	s.addRequisition(80, true)

	report, err := s.svc.CompanyReport(s.company.ID, "")
	require.NoError(s.T(), err)

	require.Len(s.T(), report.Funds, 1)
	s.Equal("Travel", report.Funds[0].FundName)
	s.Equal(420.0, report.Funds[0].CurrentBalance)
	s.Equal(80.0, report.Funds[0].TotalSpent)
	s.Equal(500.0, report.TotalAdded)
	s.Equal(80.0, report.TotalSpent)
}

func (s *ReportServiceTestSuite) TestDashboardAggregates() {
	s.addRequisition(80, true)

	dash, err := s.svc.Dashboard(s.company.ID)
	require.NoError(s.T(), err)

	s.Equal(1, dash.FundCount)
	s.Equal(420.0, dash.TotalBalance)
	s.Equal(80.0, dash.TotalSpent)
	s.Equal(500.0, dash.TotalAdded)
	s.Equal(1, dash.MemberCount)
	s.Equal(1, dash.Counts.Approved)
	// Opening credit plus the approval debit.
	s.Len(dash.RecentTransactions, 2)
}

func (s *ReportServiceTestSuite) TestCacheServesStaleUntilInvalidated() {
	report, err := s.svc.CompanyReport(s.company.ID, "")
	require.NoError(s.T(), err)
	s.Equal(0.0, report.TotalRequested)

	s.addRequisition(80, false)

	// Still the cached snapshot.
	report, err = s.svc.CompanyReport(s.company.ID, "")
	require.NoError(s.T(), err)
	s.Equal(0.0, report.TotalRequested)

	s.svc.Invalidate(s.company.ID)

	report, err = s.svc.CompanyReport(s.company.ID, "")
	require.NoError(s.T(), err)
	s.Equal(80.0, report.TotalRequested)
}

func TestReportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceTestSuite))
}
