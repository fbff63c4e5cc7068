package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
)

const (
	ckUserReport    = "report_user_%s_%d_%s"
	ckCompanyReport = "report_company_%s_%s"
	ckDashboard     = "dashboard_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

var ErrBadMonth = errors.New("month must be in YYYY-MM format")

// StatusCounts is the per-status requisition tally used by reports and
// the dashboard.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Stalled  int `json:"stalled"`
	Drafts   int `json:"drafts"`
}

type FundSummary struct {
	FundID         string  `json:"fund_id"`
	FundName       string  `json:"fund_name"`
	CurrentBalance float64 `json:"currentBalance"`
	TotalSpent     float64 `json:"totalSpent"`
	TotalAdded     float64 `json:"totalAdded"`
}

// UserReport summarizes one user's requisition activity, optionally
// restricted to a month.
type UserReport struct {
	UserID         int64        `json:"user_id"`
	Month          string       `json:"month,omitempty"`
	TotalRequested float64      `json:"totalRequested"`
	TotalApproved  float64      `json:"totalApproved"`
	Counts         StatusCounts `json:"counts"`
}

// CompanyReport summarizes company-wide activity.
type CompanyReport struct {
	CompanyID      string        `json:"company_id"`
	Month          string        `json:"month,omitempty"`
	TotalRequested float64       `json:"totalRequested"`
	TotalApproved  float64       `json:"totalApproved"`
	TotalSpent     float64       `json:"totalSpent"`
	TotalAdded     float64       `json:"totalAdded"`
	Counts         StatusCounts  `json:"counts"`
	Funds          []FundSummary `json:"funds"`
}

// Dashboard is the admin aggregate view.
type Dashboard struct {
	CompanyID          string              `json:"company_id"`
	FundCount          int                 `json:"fundCount"`
	TotalBalance       float64             `json:"totalBalance"`
	TotalSpent         float64             `json:"totalSpent"`
	TotalAdded         float64             `json:"totalAdded"`
	MemberCount        int                 `json:"memberCount"`
	Counts             StatusCounts        `json:"counts"`
	RecentTransactions []model.Transaction `json:"recentTransactions"`
}

type ReportService interface {
	UserReport(companyID string, userID int64, month string) (*UserReport, error)
	CompanyReport(companyID, month string) (*CompanyReport, error)
	Dashboard(companyID string) (*Dashboard, error)
	// Invalidate drops every cached aggregate for a company. Called
	// after any mutation that changes what reports would show.
	Invalidate(companyID string)
}

type reportServiceImpl struct {
	db    *sql.DB
	cache *cache.Cache
}

func NewReportService(db *sql.DB, c *cache.Cache) ReportService {
	return &reportServiceImpl{db: db, cache: c}
}

// monthRange translates a YYYY-MM filter into a [start, end) window.
// An empty month means no restriction.
func monthRange(month string) (time.Time, time.Time, error) {
	if month == "" {
		return time.Time{}, time.Time{}, nil
	}
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, ErrBadMonth
	}
	return start, start.AddDate(0, 1, 0), nil
}

func (s *reportServiceImpl) UserReport(companyID string, userID int64, month string) (*UserReport, error) {
	key := fmt.Sprintf(ckUserReport, companyID, userID, month)
	if cached, found := s.cache.Get(key); found {
		return cached.(*UserReport), nil
	}

	start, end, err := monthRange(month)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT amount, status FROM requisitions
		WHERE company_id = ? AND user_id = ?`
	args := []interface{}{companyID, userID}
	if month != "" {
		query += ` AND created_at >= ? AND created_at < ?`
		args = append(args, start, end)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &UserReport{UserID: userID, Month: month}
	for rows.Next() {
		var amount float64
		var status string
		if err := rows.Scan(&amount, &status); err != nil {
			return nil, err
		}
		tally(&report.Counts, model.RequisitionStatus(status))
		report.TotalRequested += amount
		if model.RequisitionStatus(status) == model.StatusApproved {
			report.TotalApproved += amount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.Set(key, report, cache.DefaultExpiration)
	return report, nil
}

func (s *reportServiceImpl) CompanyReport(companyID, month string) (*CompanyReport, error) {
	key := fmt.Sprintf(ckCompanyReport, companyID, month)
	if cached, found := s.cache.Get(key); found {
		return cached.(*CompanyReport), nil
	}

	start, end, err := monthRange(month)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT amount, status FROM requisitions
		WHERE company_id = ?`
	args := []interface{}{companyID}
	if month != "" {
		query += ` AND created_at >= ? AND created_at < ?`
		args = append(args, start, end)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &CompanyReport{CompanyID: companyID, Month: month}
	for rows.Next() {
		var amount float64
		var status string
		if err := rows.Scan(&amount, &status); err != nil {
			return nil, err
		}
		tally(&report.Counts, model.RequisitionStatus(status))
		report.TotalRequested += amount
		if model.RequisitionStatus(status) == model.StatusApproved {
			report.TotalApproved += amount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	funds, err := model.ListFunds(s.db, companyID)
	if err != nil {
		return nil, err
	}
	report.Funds = []FundSummary{}
	for _, f := range funds {
		report.Funds = append(report.Funds, FundSummary{
			FundID:         f.ID,
			FundName:       f.Name,
			CurrentBalance: f.CurrentBalance,
			TotalSpent:     f.TotalSpent,
			TotalAdded:     f.TotalAdded,
		})
		report.TotalSpent += f.TotalSpent
		report.TotalAdded += f.TotalAdded
	}

	s.cache.Set(key, report, cache.DefaultExpiration)
	return report, nil
}

func (s *reportServiceImpl) Dashboard(companyID string) (*Dashboard, error) {
	key := fmt.Sprintf(ckDashboard, companyID)
	if cached, found := s.cache.Get(key); found {
		return cached.(*Dashboard), nil
	}

	dash := &Dashboard{CompanyID: companyID}

	funds, err := model.ListFunds(s.db, companyID)
	if err != nil {
		return nil, err
	}
	dash.FundCount = len(funds)
	for _, f := range funds {
		dash.TotalBalance += f.CurrentBalance
		dash.TotalSpent += f.TotalSpent
		dash.TotalAdded += f.TotalAdded
	}

	members, err := model.ListMembers(s.db, companyID)
	if err != nil {
		return nil, err
	}
	dash.MemberCount = len(members)

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM requisitions WHERE company_id = ? GROUP BY status`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		switch model.RequisitionStatus(status) {
		case model.StatusPending:
			dash.Counts.Pending = n
		case model.StatusApproved:
			dash.Counts.Approved = n
		case model.StatusRejected:
			dash.Counts.Rejected = n
		case model.StatusStalled:
			dash.Counts.Stalled = n
		case model.StatusDraft:
			dash.Counts.Drafts = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txs, err := model.ListTransactions(s.db, companyID)
	if err != nil {
		return nil, err
	}
	if len(txs) > 10 {
		txs = txs[:10]
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	dash.RecentTransactions = txs

	s.cache.Set(key, dash, cache.DefaultExpiration)
	return dash, nil
}

func (s *reportServiceImpl) Invalidate(companyID string) {
	// go-cache has no prefix delete; scan the keyset.
	for key := range s.cache.Items() {
		if companyID != "" && strings.Contains(key, companyID) {
			s.cache.Delete(key)
		}
	}
	logger.L.Debug("Report cache invalidated", "companyID", companyID)
}

func tally(c *StatusCounts, status model.RequisitionStatus) {
	switch status {
	case model.StatusPending:
		c.Pending++
	case model.StatusApproved:
		c.Approved++
	case model.StatusRejected:
		c.Rejected++
	case model.StatusStalled:
		c.Stalled++
	case model.StatusDraft:
		c.Drafts++
	}
}
