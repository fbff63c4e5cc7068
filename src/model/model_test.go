package model

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
)

// ModelTestSuite exercises the model layer against a fresh sqlite
// database per test.
type ModelTestSuite struct {
	suite.Suite
	db *sql.DB

	user    *User
	company *Company
	fund    *PettyFund
}

func (s *ModelTestSuite) SetupTest() {
	logger.InitLogger("error")
	database.InitDB(filepath.Join(s.T().TempDir(), "test.db"))
	s.db = database.DB

	s.user = &User{Name: "Ada", Email: "ada@example.com", Password: "hashed"}
	require.NoError(s.T(), s.user.CreateUser(s.db))

	s.company = &Company{Name: "Acme", Country: "PT", OwnerID: s.user.ID}
	require.NoError(s.T(), CreateCompany(s.db, s.company))

	s.fund = &PettyFund{CompanyID: s.company.ID, Name: "Travel"}
	require.NoError(s.T(), CreateFund(s.db, s.fund, 500))
}

func (s *ModelTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *ModelTestSuite) newRequisition(amount float64, status RequisitionStatus) *Requisition {
	r := &Requisition{
		CompanyID: s.company.ID,
		FundID:    s.fund.ID,
		UserID:    s.user.ID,
		Title:     "Team lunch",
		Amount:    amount,
		Status:    status,
	}
	require.NoError(s.T(), CreateRequisition(s.db, r))
	return r
}

func (s *ModelTestSuite) TestCreateCompanyGrantsOwnerAdmin() {
	m, err := GetMembership(s.db, s.user.ID, s.company.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), RoleAdmin, m.Role)
}

func (s *ModelTestSuite) TestCreateFundSeedsOpeningCredit() {
	fund, err := GetFundByID(s.db, s.company.ID, s.fund.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 500.0, fund.CurrentBalance)
	assert.Equal(s.T(), 500.0, fund.TotalAdded)
	assert.Equal(s.T(), 0.0, fund.TotalSpent)

	txs, err := ListTransactions(s.db, s.company.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), txs, 1)
	assert.Equal(s.T(), TypeCredit, txs[0].Type)
	assert.Equal(s.T(), 500.0, txs[0].Amount)
	assert.Equal(s.T(), "Opening balance", txs[0].Description)
}

func (s *ModelTestSuite) TestApproveRequisitionDebitsFund() {
	r := s.newRequisition(120, StatusPending)

	mvmt, err := ApproveRequisition(s.db, s.company.ID, r.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), TypeDebit, mvmt.Type)
	assert.Equal(s.T(), 120.0, mvmt.Amount)
	assert.Equal(s.T(), r.ID, mvmt.RequisitionID)

	got, err := GetRequisitionByID(s.db, s.company.ID, r.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusApproved, got.Status)

	fund, err := GetFundByID(s.db, s.company.ID, s.fund.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 380.0, fund.CurrentBalance)
	assert.Equal(s.T(), 120.0, fund.TotalSpent)
}

func (s *ModelTestSuite) TestApproveInsufficientBalanceChangesNothing() {
	r := s.newRequisition(9999, StatusPending)

	_, err := ApproveRequisition(s.db, s.company.ID, r.ID)
	assert.ErrorIs(s.T(), err, ErrInsufficientFunds)

	got, err := GetRequisitionByID(s.db, s.company.ID, r.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusPending, got.Status, "status must not change on a failed approval")

	fund, err := GetFundByID(s.db, s.company.ID, s.fund.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 500.0, fund.CurrentBalance)

	txs, err := ListTransactions(s.db, s.company.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), txs, 1, "only the opening credit should exist")
}

func (s *ModelTestSuite) TestApproveRejectsNonPending() {
	r := s.newRequisition(50, StatusPending)
	_, err := ApproveRequisition(s.db, s.company.ID, r.ID)
	require.NoError(s.T(), err)

	_, err = ApproveRequisition(s.db, s.company.ID, r.ID)
	assert.ErrorIs(s.T(), err, ErrInvalidStatus)
}

func (s *ModelTestSuite) TestApproveStalledRequisition() {
	r := s.newRequisition(50, StatusStalled)

	_, err := ApproveRequisition(s.db, s.company.ID, r.ID)
	assert.NoError(s.T(), err)
}

func (s *ModelTestSuite) TestTransitionRequisition() {
	r := s.newRequisition(50, StatusPending)

	require.NoError(s.T(), TransitionRequisition(s.db, s.company.ID, r.ID, StatusStalled))
	require.NoError(s.T(), TransitionRequisition(s.db, s.company.ID, r.ID, StatusRejected))

	// A rejected requisition is settled.
	err := TransitionRequisition(s.db, s.company.ID, r.ID, StatusStalled)
	assert.ErrorIs(s.T(), err, ErrInvalidStatus)

	// Approval is not a transition target.
	err = TransitionRequisition(s.db, s.company.ID, s.newRequisition(10, StatusPending).ID, StatusApproved)
	assert.ErrorIs(s.T(), err, ErrInvalidStatus)
}

func (s *ModelTestSuite) TestListRequisitionsExcludesDrafts() {
	s.newRequisition(10, StatusPending)
	s.newRequisition(20, StatusDraft)

	all, err := ListRequisitions(s.db, s.company.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 1)

	mine, err := ListRequisitionsByUser(s.db, s.company.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), mine, 2, "the owner sees drafts")
}

func (s *ModelTestSuite) TestApprovalQueueHoldsPendingAndStalled() {
	s.newRequisition(10, StatusPending)
	stalled := s.newRequisition(20, StatusPending)
	require.NoError(s.T(), TransitionRequisition(s.db, s.company.ID, stalled.ID, StatusStalled))
	approved := s.newRequisition(30, StatusPending)
	_, err := ApproveRequisition(s.db, s.company.ID, approved.ID)
	require.NoError(s.T(), err)

	queue, err := ListPendingRequisitions(s.db, s.company.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), queue, 2)
	for _, r := range queue {
		assert.NotEqual(s.T(), StatusApproved, r.Status)
	}
}

func (s *ModelTestSuite) TestUpdateRequisitionSubmitsDraft() {
	r := s.newRequisition(10, StatusDraft)

	r.Status = StatusPending
	r.Amount = 25
	require.NoError(s.T(), UpdateRequisition(s.db, r))

	got, err := GetRequisitionByID(s.db, s.company.ID, r.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusPending, got.Status)
	assert.Equal(s.T(), 25.0, got.Amount)
}

func (s *ModelTestSuite) TestUpdateRequisitionRejectsSettled() {
	r := s.newRequisition(10, StatusPending)
	require.NoError(s.T(), TransitionRequisition(s.db, s.company.ID, r.ID, StatusRejected))

	r.Title = "edited"
	r.Status = StatusPending
	assert.ErrorIs(s.T(), UpdateRequisition(s.db, r), ErrInvalidStatus)
}

func (s *ModelTestSuite) TestDeleteRequisitionKeepsApproved() {
	r := s.newRequisition(10, StatusPending)
	_, err := ApproveRequisition(s.db, s.company.ID, r.ID)
	require.NoError(s.T(), err)

	assert.ErrorIs(s.T(), DeleteRequisition(s.db, s.company.ID, r.ID), ErrInvalidStatus)

	pending := s.newRequisition(10, StatusPending)
	assert.NoError(s.T(), DeleteRequisition(s.db, s.company.ID, pending.ID))
}

func (s *ModelTestSuite) TestDeleteFundWithRequisitionsRefused() {
	s.newRequisition(10, StatusPending)

	assert.ErrorIs(s.T(), DeleteFund(s.db, s.company.ID, s.fund.ID), ErrFundInUse)

	empty := &PettyFund{CompanyID: s.company.ID, Name: "Office"}
	require.NoError(s.T(), CreateFund(s.db, empty, 0))
	assert.NoError(s.T(), DeleteFund(s.db, s.company.ID, empty.ID))
}

func (s *ModelTestSuite) TestManualTransactionsMoveFund() {
	credit := &Transaction{CompanyID: s.company.ID, FundID: s.fund.ID, Amount: 100, Type: TypeCredit, Description: "Top up"}
	require.NoError(s.T(), CreateTransaction(s.db, credit))

	debit := &Transaction{CompanyID: s.company.ID, FundID: s.fund.ID, Amount: 40, Type: TypeDebit, Description: "Stamps"}
	require.NoError(s.T(), CreateTransaction(s.db, debit))

	fund, err := GetFundByID(s.db, s.company.ID, s.fund.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 560.0, fund.CurrentBalance)
	assert.Equal(s.T(), 600.0, fund.TotalAdded)
	assert.Equal(s.T(), 40.0, fund.TotalSpent)

	overdraw := &Transaction{CompanyID: s.company.ID, FundID: s.fund.ID, Amount: 10000, Type: TypeDebit}
	assert.ErrorIs(s.T(), CreateTransaction(s.db, overdraw), ErrInsufficientFunds)
}

func (s *ModelTestSuite) TestDeleteTransactionReversesMovement() {
	debit := &Transaction{CompanyID: s.company.ID, FundID: s.fund.ID, Amount: 40, Type: TypeDebit, Description: "Stamps"}
	require.NoError(s.T(), CreateTransaction(s.db, debit))

	require.NoError(s.T(), DeleteTransaction(s.db, s.company.ID, debit.ID))

	fund, err := GetFundByID(s.db, s.company.ID, s.fund.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 500.0, fund.CurrentBalance)
	assert.Equal(s.T(), 0.0, fund.TotalSpent)
}

func (s *ModelTestSuite) TestDeleteApprovalTransactionRefused() {
	r := s.newRequisition(50, StatusPending)
	mvmt, err := ApproveRequisition(s.db, s.company.ID, r.ID)
	require.NoError(s.T(), err)

	assert.ErrorIs(s.T(), DeleteTransaction(s.db, s.company.ID, mvmt.ID), ErrInvalidStatus)
}

func (s *ModelTestSuite) TestMembershipUniqueness() {
	m := &Membership{UserID: s.user.ID, CompanyID: s.company.ID, Role: RoleFinance}
	assert.ErrorIs(s.T(), CreateMembership(s.db, m), ErrDuplicate)
}

func (s *ModelTestSuite) TestRemoveLastAdminRefused() {
	err := RemoveMember(s.db, s.company.ID, s.user.ID)
	assert.ErrorIs(s.T(), err, ErrLastAdmin)

	other := &User{Name: "Bea", Email: "bea@example.com", Password: "hashed"}
	require.NoError(s.T(), other.CreateUser(s.db))
	require.NoError(s.T(), CreateMembership(s.db, &Membership{UserID: other.ID, CompanyID: s.company.ID, Role: RoleEmployee}))

	assert.NoError(s.T(), RemoveMember(s.db, s.company.ID, other.ID))
	_, err = GetMembership(s.db, other.ID, s.company.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ModelTestSuite) TestSessionLookupIgnoresExpired() {
	live := &Session{UserID: s.user.ID, Token: "live", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(s.T(), CreateSession(s.db, live))
	stale := &Session{UserID: s.user.ID, Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(s.T(), CreateSession(s.db, stale))

	_, err := GetSessionByToken(s.db, "live")
	assert.NoError(s.T(), err)

	_, err = GetSessionByToken(s.db, "stale")
	assert.Error(s.T(), err)
}

func (s *ModelTestSuite) TestInviteRoundTrip() {
	inv := &Invite{
		Token:     "invite-token",
		CompanyID: s.company.ID,
		Email:     "new@example.com",
		Role:      RoleFinance,
		ExpiresAt: time.Now().Add(72 * time.Hour),
	}
	require.NoError(s.T(), CreateInvite(s.db, inv))

	got, err := GetInviteByToken(s.db, "invite-token")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), RoleFinance, got.Role)

	require.NoError(s.T(), DeleteInvite(s.db, "invite-token"))
	_, err = GetInviteByToken(s.db, "invite-token")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ModelTestSuite) TestExpiredInviteNotFound() {
	inv := &Invite{
		Token:     "old-token",
		CompanyID: s.company.ID,
		Email:     "late@example.com",
		Role:      RoleEmployee,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(s.T(), CreateInvite(s.db, inv))

	_, err := GetInviteByToken(s.db, "old-token")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func TestModelTestSuite(t *testing.T) {
	suite.Run(t, new(ModelTestSuite))
}
