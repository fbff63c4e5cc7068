package client

import (
	"net/http"

	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
)

type FundPayload struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

func (p FundPayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "name", p.Name)
	validation.PositiveAmount(errs, "amount", p.Amount)
	return errs.ErrOrNil()
}

func (c *Client) ListFunds() ([]model.PettyFund, error) {
	var funds []model.PettyFund
	if err := c.do(http.MethodGet, "/funds", nil, &funds); err != nil {
		return nil, err
	}
	return funds, nil
}

func (c *Client) GetFund(id string) (*model.PettyFund, error) {
	var fund model.PettyFund
	if err := c.do(http.MethodGet, "/funds/"+id, nil, &fund); err != nil {
		return nil, err
	}
	return &fund, nil
}

// CreateFund opens a fund seeded with payload.Amount as its balance.
func (c *Client) CreateFund(payload FundPayload) (*model.PettyFund, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var fund model.PettyFund
	if err := c.do(http.MethodPost, "/funds/create", payload, &fund); err != nil {
		return nil, err
	}
	return &fund, nil
}

// RenameFund changes the fund name. Balances move only through
// transactions and approvals.
func (c *Client) RenameFund(id, name string) (*model.PettyFund, error) {
	errs := validation.FieldErrors{}
	validation.Required(errs, "name", name)
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	var fund model.PettyFund
	if err := c.do(http.MethodPut, "/funds/update/"+id, map[string]string{"name": name}, &fund); err != nil {
		return nil, err
	}
	return &fund, nil
}

func (c *Client) DeleteFund(id string) error {
	return c.do(http.MethodDelete, "/funds/delete/"+id, nil, nil)
}
