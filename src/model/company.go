package model

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleFinance  Role = "FINANCE"
	RoleEmployee Role = "EMPLOYEE"
)

// ValidRole reports whether s is a known membership role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleFinance, RoleEmployee:
		return true
	}
	return false
}

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership joins a user and a company with a role.
type Membership struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CompanyID string    `json:"company_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberInfo is a membership row joined with the user's identity, for
// the company user listing.
type MemberInfo struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

type Invite struct {
	Token     string    `json:"token"`
	CompanyID string    `json:"company_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCompany inserts the company and makes the owner an ADMIN
// member in the same transaction.
func CreateCompany(db *sql.DB, c *Company) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = tx.Exec(`
		INSERT INTO companies (id, name, street, city, state, country, phone, email, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Street, c.City, c.State, c.Country, c.Phone, c.Email, c.OwnerID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO memberships (user_id, company_id, role, created_at)
		VALUES (?, ?, ?, ?)`,
		c.OwnerID, c.ID, string(RoleAdmin), now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func GetCompanyByID(db *sql.DB, id string) (*Company, error) {
	var c Company
	err := db.QueryRow(`
		SELECT id, name, street, city, state, country, phone, email, owner_id, created_at, updated_at
		FROM companies WHERE id = ?`, id).Scan(
		&c.ID, &c.Name, &c.Street, &c.City, &c.State, &c.Country, &c.Phone, &c.Email, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListCompaniesForUser returns every company the user is a member of,
// with the user's role attached.
func ListCompaniesForUser(db *sql.DB, userID int64) ([]CompanyWithRole, error) {
	rows, err := db.Query(`
		SELECT c.id, c.name, c.street, c.city, c.state, c.country, c.phone, c.email, c.owner_id, c.created_at, c.updated_at, m.role
		FROM companies c
		JOIN memberships m ON m.company_id = c.id
		WHERE m.user_id = ?
		ORDER BY c.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CompanyWithRole
	for rows.Next() {
		var cw CompanyWithRole
		if err := rows.Scan(
			&cw.ID, &cw.Name, &cw.Street, &cw.City, &cw.State, &cw.Country,
			&cw.Phone, &cw.Email, &cw.OwnerID, &cw.CreatedAt, &cw.UpdatedAt, &cw.Role); err != nil {
			return nil, err
		}
		out = append(out, cw)
	}
	return out, rows.Err()
}

type CompanyWithRole struct {
	Company
	Role Role `json:"role"`
}

func UpdateCompany(db *sql.DB, c *Company) error {
	c.UpdatedAt = time.Now()
	res, err := db.Exec(`
		UPDATE companies
		SET name = ?, street = ?, city = ?, state = ?, country = ?, phone = ?, email = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Street, c.City, c.State, c.Country, c.Phone, c.Email, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func CreateMembership(db *sql.DB, m *Membership) error {
	m.CreatedAt = time.Now()
	_, err := db.Exec(`
		INSERT INTO memberships (user_id, company_id, role, created_at)
		VALUES (?, ?, ?, ?)`,
		m.UserID, m.CompanyID, string(m.Role), m.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

func GetMembership(db *sql.DB, userID int64, companyID string) (*Membership, error) {
	var m Membership
	err := db.QueryRow(`
		SELECT id, user_id, company_id, role, created_at
		FROM memberships
		WHERE user_id = ? AND company_id = ?`, userID, companyID).Scan(
		&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMembers returns every member of a company with identity fields.
func ListMembers(db *sql.DB, companyID string) ([]MemberInfo, error) {
	rows, err := db.Query(`
		SELECT u.id, u.name, u.email, m.role
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.company_id = ?
		ORDER BY u.name ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MemberInfo
	for rows.Next() {
		var mi MemberInfo
		if err := rows.Scan(&mi.UserID, &mi.Name, &mi.Email, &mi.Role); err != nil {
			return nil, err
		}
		out = append(out, mi)
	}
	return out, rows.Err()
}

// RemoveMember deletes a membership. The last remaining ADMIN of a
// company cannot be removed.
func RemoveMember(db *sql.DB, companyID string, userID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var role string
	err = tx.QueryRow(`SELECT role FROM memberships WHERE user_id = ? AND company_id = ?`,
		userID, companyID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	if Role(role) == RoleAdmin {
		var adminCount int
		err = tx.QueryRow(`SELECT COUNT(*) FROM memberships WHERE company_id = ? AND role = ?`,
			companyID, string(RoleAdmin)).Scan(&adminCount)
		if err != nil {
			return err
		}
		if adminCount <= 1 {
			return ErrLastAdmin
		}
	}

	_, err = tx.Exec(`DELETE FROM memberships WHERE user_id = ? AND company_id = ?`, userID, companyID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func CreateInvite(db *sql.DB, inv *Invite) error {
	inv.CreatedAt = time.Now()
	_, err := db.Exec(`
		INSERT INTO invites (token, company_id, email, role, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.Token, inv.CompanyID, inv.Email, string(inv.Role), inv.ExpiresAt, inv.CreatedAt)
	return err
}

// GetInviteByToken returns an unexpired invite.
func GetInviteByToken(db *sql.DB, token string) (*Invite, error) {
	var inv Invite
	err := db.QueryRow(`
		SELECT token, company_id, email, role, expires_at, created_at
		FROM invites
		WHERE token = ? AND expires_at > ?`, token, time.Now()).Scan(
		&inv.Token, &inv.CompanyID, &inv.Email, &inv.Role, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func DeleteInvite(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM invites WHERE token = ?`, token)
	return err
}
