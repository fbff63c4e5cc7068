package client

import (
	"fmt"
	"net/http"

	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
)

type CompanyPayload struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (p CompanyPayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "name", p.Name)
	validation.Email(errs, "email", p.Email)
	return errs.ErrOrNil()
}

// ListCompanies returns the caller's companies with their role in
// each. Needs no company-id header.
func (c *Client) ListCompanies() ([]model.CompanyWithRole, error) {
	var companies []model.CompanyWithRole
	if err := c.do(http.MethodGet, "/companies", nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func (c *Client) CreateCompany(payload CompanyPayload) (*model.Company, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var company model.Company
	if err := c.do(http.MethodPost, "/companies/create", payload, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *Client) UpdateCompany(id string, payload CompanyPayload) (*model.Company, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var company model.Company
	if err := c.do(http.MethodPut, "/companies/update/"+id, payload, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// RemoveUser deletes a membership, not the account.
func (c *Client) RemoveUser(companyID string, userID int64) error {
	path := fmt.Sprintf("/companies/%s/users/%d", companyID, userID)
	return c.do(http.MethodDelete, path, nil, nil)
}
