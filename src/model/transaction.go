package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TypeDebit  TransactionType = "DEBIT"
	TypeCredit TransactionType = "CREDIT"
)

// ValidTransactionType reports whether s is a known movement type.
func ValidTransactionType(s string) bool {
	switch TransactionType(s) {
	case TypeDebit, TypeCredit:
		return true
	}
	return false
}

// Transaction is a single fund movement, optionally linked to the
// requisition that caused it.
type Transaction struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	FundID        string          `json:"fund_id"`
	RequisitionID string          `json:"requisition_id,omitempty"`
	Amount        float64         `json:"amount"`
	Type          TransactionType `json:"type"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateTransaction records a manual movement and adjusts the fund in
// the same database transaction.
func CreateTransaction(db *sql.DB, t *Transaction) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := applyFundMovement(tx, t.FundID, t.Amount, t.Type); err != nil {
		return err
	}

	var reqID interface{}
	if t.RequisitionID != "" {
		reqID = t.RequisitionID
	}
	_, err = tx.Exec(`
		INSERT INTO transactions (id, company_id, fund_id, requisition_id, amount, type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CompanyID, t.FundID, reqID, t.Amount, string(t.Type), t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func scanTransaction(row interface {
	Scan(dest ...interface{}) error
}) (*Transaction, error) {
	var t Transaction
	var reqID sql.NullString
	err := row.Scan(&t.ID, &t.CompanyID, &t.FundID, &reqID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reqID.Valid {
		t.RequisitionID = reqID.String
	}
	return &t, nil
}

func GetTransactionByID(db *sql.DB, companyID, id string) (*Transaction, error) {
	row := db.QueryRow(`
		SELECT id, company_id, fund_id, requisition_id, amount, type, description, created_at, updated_at
		FROM transactions WHERE id = ? AND company_id = ?`, id, companyID)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func ListTransactions(db *sql.DB, companyID string) ([]Transaction, error) {
	rows, err := db.Query(`
		SELECT id, company_id, fund_id, requisition_id, amount, type, description, created_at, updated_at
		FROM transactions WHERE company_id = ?
		ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateTransaction reverses the old movement and applies the new one,
// keeping the fund totals consistent.
func UpdateTransaction(db *sql.DB, t *Transaction) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	old, err := getTransactionTx(tx, t.CompanyID, t.ID)
	if err != nil {
		return err
	}

	if err := reverseFundMovement(tx, old.FundID, old.Amount, old.Type); err != nil {
		return err
	}
	if err := applyFundMovement(tx, t.FundID, t.Amount, t.Type); err != nil {
		return err
	}

	t.UpdatedAt = time.Now()
	_, err = tx.Exec(`
		UPDATE transactions
		SET fund_id = ?, amount = ?, type = ?, description = ?, updated_at = ?
		WHERE id = ? AND company_id = ?`,
		t.FundID, t.Amount, string(t.Type), t.Description, t.UpdatedAt, t.ID, t.CompanyID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteTransaction removes a manual movement and reverses its fund
// effect. Movements created by an approval keep their requisition link
// and cannot be deleted.
func DeleteTransaction(db *sql.DB, companyID, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	old, err := getTransactionTx(tx, companyID, id)
	if err != nil {
		return err
	}
	if old.RequisitionID != "" {
		return ErrInvalidStatus
	}

	if err := reverseFundMovement(tx, old.FundID, old.Amount, old.Type); err != nil {
		return err
	}
	if _, err = tx.Exec(`DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func getTransactionTx(tx *sql.Tx, companyID, id string) (*Transaction, error) {
	row := tx.QueryRow(`
		SELECT id, company_id, fund_id, requisition_id, amount, type, description, created_at, updated_at
		FROM transactions WHERE id = ? AND company_id = ?`, id, companyID)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}
