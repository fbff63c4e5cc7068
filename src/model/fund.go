package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// PettyFund is a named money pool with running balance/spent/added
// totals. The totals are maintained in the row and adjusted inside the
// same transaction as the movement that changes them.
type PettyFund struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	Name           string    `json:"name"`
	CurrentBalance float64   `json:"currentBalance"`
	TotalSpent     float64   `json:"totalSpent"`
	TotalAdded     float64   `json:"totalAdded"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Requisitions is populated only by GetFundByID.
	Requisitions []Requisition `json:"requisitions,omitempty"`
}

// CreateFund inserts the fund and, when seeded with an opening amount,
// records the matching CREDIT transaction atomically.
func CreateFund(db *sql.DB, f *PettyFund, openingAmount float64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	f.CurrentBalance = openingAmount
	f.TotalAdded = openingAmount
	f.TotalSpent = 0

	_, err = tx.Exec(`
		INSERT INTO funds (id, company_id, name, current_balance, total_spent, total_added, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.CompanyID, f.Name, f.CurrentBalance, f.TotalSpent, f.TotalAdded, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return err
	}

	if openingAmount > 0 {
		_, err = tx.Exec(`
			INSERT INTO transactions (id, company_id, fund_id, requisition_id, amount, type, description, created_at, updated_at)
			VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?)`,
			uuid.NewString(), f.CompanyID, f.ID, openingAmount, string(TypeCredit), "Opening balance", now, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func GetFundByID(db *sql.DB, companyID, id string) (*PettyFund, error) {
	var f PettyFund
	err := db.QueryRow(`
		SELECT id, company_id, name, current_balance, total_spent, total_added, created_at, updated_at
		FROM funds WHERE id = ? AND company_id = ?`, id, companyID).Scan(
		&f.ID, &f.CompanyID, &f.Name, &f.CurrentBalance, &f.TotalSpent, &f.TotalAdded, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reqs, err := ListRequisitionsByFund(db, companyID, f.ID)
	if err != nil {
		return nil, err
	}
	f.Requisitions = reqs
	return &f, nil
}

func ListFunds(db *sql.DB, companyID string) ([]PettyFund, error) {
	rows, err := db.Query(`
		SELECT id, company_id, name, current_balance, total_spent, total_added, created_at, updated_at
		FROM funds WHERE company_id = ?
		ORDER BY created_at ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PettyFund
	for rows.Next() {
		var f PettyFund
		if err := rows.Scan(&f.ID, &f.CompanyID, &f.Name, &f.CurrentBalance, &f.TotalSpent, &f.TotalAdded, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateFund renames a fund. Balances move only through transactions
// and approvals, never through update.
func UpdateFund(db *sql.DB, companyID, id, name string) error {
	res, err := db.Exec(`
		UPDATE funds SET name = ?, updated_at = ?
		WHERE id = ? AND company_id = ?`, name, time.Now(), id, companyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFund removes a fund with no requisitions. A fund that has
// requisitions cannot be deleted; the history would orphan.
func DeleteFund(db *sql.DB, companyID, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM funds WHERE id = ? AND company_id = ?`, id, companyID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	var reqCount int
	err = tx.QueryRow(`SELECT COUNT(*) FROM requisitions WHERE fund_id = ?`, id).Scan(&reqCount)
	if err != nil {
		return err
	}
	if reqCount > 0 {
		return ErrFundInUse
	}

	if _, err = tx.Exec(`DELETE FROM transactions WHERE fund_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.Exec(`DELETE FROM funds WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// applyFundMovement adjusts a fund's balance and totals inside an open
// transaction. Debits fail with ErrInsufficientFunds rather than
// taking the balance negative.
func applyFundMovement(tx *sql.Tx, fundID string, amount float64, txType TransactionType) error {
	var balance, spent, added float64
	err := tx.QueryRow(`SELECT current_balance, total_spent, total_added FROM funds WHERE id = ?`, fundID).
		Scan(&balance, &spent, &added)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	switch txType {
	case TypeDebit:
		if balance < amount {
			return ErrInsufficientFunds
		}
		balance -= amount
		spent += amount
	case TypeCredit:
		balance += amount
		added += amount
	}

	_, err = tx.Exec(`
		UPDATE funds SET current_balance = ?, total_spent = ?, total_added = ?, updated_at = ?
		WHERE id = ?`, balance, spent, added, time.Now(), fundID)
	return err
}

// reverseFundMovement undoes a previously applied movement.
func reverseFundMovement(tx *sql.Tx, fundID string, amount float64, txType TransactionType) error {
	var balance, spent, added float64
	err := tx.QueryRow(`SELECT current_balance, total_spent, total_added FROM funds WHERE id = ?`, fundID).
		Scan(&balance, &spent, &added)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	switch txType {
	case TypeDebit:
		balance += amount
		spent -= amount
	case TypeCredit:
		if balance < amount {
			return ErrInsufficientFunds
		}
		balance -= amount
		added -= amount
	}

	_, err = tx.Exec(`
		UPDATE funds SET current_balance = ?, total_spent = ?, total_added = ?, updated_at = ?
		WHERE id = ?`, balance, spent, added, time.Now(), fundID)
	return err
}
