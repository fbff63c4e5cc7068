package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type RequisitionStatus string

const (
	StatusPending  RequisitionStatus = "PENDING"
	StatusApproved RequisitionStatus = "APPROVED"
	StatusRejected RequisitionStatus = "REJECTED"
	StatusStalled  RequisitionStatus = "STALLED"
	// StatusDraft keeps the historical plural wire value.
	StatusDraft RequisitionStatus = "DRAFTS"
)

// ValidStatus reports whether s is a known requisition status.
func ValidStatus(s string) bool {
	switch RequisitionStatus(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusStalled, StatusDraft:
		return true
	}
	return false
}

// Requisition is a request to spend from a petty-cash fund, carrying
// an approval status.
type Requisition struct {
	ID          string            `json:"id"`
	CompanyID   string            `json:"company_id"`
	FundID      string            `json:"fund_id"`
	UserID      int64             `json:"user_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Amount      float64           `json:"amount"`
	Status      RequisitionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func CreateRequisition(db *sql.DB, r *Requisition) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO requisitions (id, company_id, fund_id, user_id, title, description, amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CompanyID, r.FundID, r.UserID, r.Title, r.Description, r.Amount, string(r.Status), r.CreatedAt, r.UpdatedAt)
	return err
}

func GetRequisitionByID(db *sql.DB, companyID, id string) (*Requisition, error) {
	var r Requisition
	err := db.QueryRow(`
		SELECT id, company_id, fund_id, user_id, title, description, amount, status, created_at, updated_at
		FROM requisitions WHERE id = ? AND company_id = ?`, id, companyID).Scan(
		&r.ID, &r.CompanyID, &r.FundID, &r.UserID, &r.Title, &r.Description, &r.Amount, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func scanRequisitions(rows *sql.Rows) ([]Requisition, error) {
	defer rows.Close()
	var out []Requisition
	for rows.Next() {
		var r Requisition
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.FundID, &r.UserID, &r.Title, &r.Description, &r.Amount, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const requisitionColumns = `id, company_id, fund_id, user_id, title, description, amount, status, created_at, updated_at`

// ListRequisitions returns every requisition in a company, drafts
// excluded. Drafts are visible only to their owner.
func ListRequisitions(db *sql.DB, companyID string) ([]Requisition, error) {
	rows, err := db.Query(`
		SELECT `+requisitionColumns+`
		FROM requisitions
		WHERE company_id = ? AND status != ?
		ORDER BY created_at DESC`, companyID, string(StatusDraft))
	if err != nil {
		return nil, err
	}
	return scanRequisitions(rows)
}

// ListRequisitionsByUser returns the caller's own requisitions,
// drafts included.
func ListRequisitionsByUser(db *sql.DB, companyID string, userID int64) ([]Requisition, error) {
	rows, err := db.Query(`
		SELECT `+requisitionColumns+`
		FROM requisitions
		WHERE company_id = ? AND user_id = ?
		ORDER BY created_at DESC`, companyID, userID)
	if err != nil {
		return nil, err
	}
	return scanRequisitions(rows)
}

func ListRequisitionsByFund(db *sql.DB, companyID, fundID string) ([]Requisition, error) {
	rows, err := db.Query(`
		SELECT `+requisitionColumns+`
		FROM requisitions
		WHERE company_id = ? AND fund_id = ? AND status != ?
		ORDER BY created_at DESC`, companyID, fundID, string(StatusDraft))
	if err != nil {
		return nil, err
	}
	return scanRequisitions(rows)
}

// ListPendingRequisitions returns the approvals queue: PENDING and
// STALLED requisitions for a company.
func ListPendingRequisitions(db *sql.DB, companyID string) ([]Requisition, error) {
	rows, err := db.Query(`
		SELECT `+requisitionColumns+`
		FROM requisitions
		WHERE company_id = ? AND status IN (?, ?)
		ORDER BY created_at ASC`, companyID, string(StatusPending), string(StatusStalled))
	if err != nil {
		return nil, err
	}
	return scanRequisitions(rows)
}

// UpdateRequisition edits a requisition's own fields. Only PENDING and
// DRAFTS requisitions may be edited; a draft may be submitted by
// setting status to PENDING.
func UpdateRequisition(db *sql.DB, r *Requisition) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM requisitions WHERE id = ? AND company_id = ?`, r.ID, r.CompanyID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if RequisitionStatus(current) != StatusPending && RequisitionStatus(current) != StatusDraft {
		return ErrInvalidStatus
	}
	if r.Status != StatusPending && r.Status != StatusDraft {
		return ErrInvalidStatus
	}

	r.UpdatedAt = time.Now()
	_, err = tx.Exec(`
		UPDATE requisitions
		SET fund_id = ?, title = ?, description = ?, amount = ?, status = ?, updated_at = ?
		WHERE id = ? AND company_id = ?`,
		r.FundID, r.Title, r.Description, r.Amount, string(r.Status), r.UpdatedAt, r.ID, r.CompanyID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteRequisition removes a requisition that has not been approved.
// Approved requisitions carry a debit and must stay.
func DeleteRequisition(db *sql.DB, companyID, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(`SELECT status FROM requisitions WHERE id = ? AND company_id = ?`, id, companyID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if RequisitionStatus(status) == StatusApproved {
		return ErrInvalidStatus
	}

	if _, err = tx.Exec(`DELETE FROM requisitions WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ApproveRequisition flips a PENDING or STALLED requisition to
// APPROVED, debits its fund, and records the DEBIT transaction, all in
// one database transaction. Insufficient balance aborts with nothing
// changed.
func ApproveRequisition(db *sql.DB, companyID, id string) (*Transaction, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var r Requisition
	err = tx.QueryRow(`
		SELECT `+requisitionColumns+`
		FROM requisitions WHERE id = ? AND company_id = ?`, id, companyID).Scan(
		&r.ID, &r.CompanyID, &r.FundID, &r.UserID, &r.Title, &r.Description, &r.Amount, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if r.Status != StatusPending && r.Status != StatusStalled {
		return nil, ErrInvalidStatus
	}

	if err := applyFundMovement(tx, r.FundID, r.Amount, TypeDebit); err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err = tx.Exec(`
		UPDATE requisitions SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusApproved), now, r.ID); err != nil {
		return nil, err
	}

	mvmt := &Transaction{
		ID:            uuid.NewString(),
		CompanyID:     r.CompanyID,
		FundID:        r.FundID,
		RequisitionID: r.ID,
		Amount:        r.Amount,
		Type:          TypeDebit,
		Description:   r.Title,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err = tx.Exec(`
		INSERT INTO transactions (id, company_id, fund_id, requisition_id, amount, type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mvmt.ID, mvmt.CompanyID, mvmt.FundID, mvmt.RequisitionID, mvmt.Amount, string(mvmt.Type), mvmt.Description, mvmt.CreatedAt, mvmt.UpdatedAt); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return mvmt, nil
}

// TransitionRequisition moves a PENDING or STALLED requisition to
// REJECTED or STALLED. Approval goes through ApproveRequisition.
func TransitionRequisition(db *sql.DB, companyID, id string, to RequisitionStatus) error {
	if to != StatusRejected && to != StatusStalled {
		return ErrInvalidStatus
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM requisitions WHERE id = ? AND company_id = ?`, id, companyID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if RequisitionStatus(current) != StatusPending && RequisitionStatus(current) != StatusStalled {
		return ErrInvalidStatus
	}

	if _, err = tx.Exec(`
		UPDATE requisitions SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), time.Now(), id); err != nil {
		return err
	}
	return tx.Commit()
}
