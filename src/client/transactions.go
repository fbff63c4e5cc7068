package client

import (
	"net/http"

	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
)

type TransactionPayload struct {
	FundID      string  `json:"fund_id"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
}

func (p TransactionPayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "fund_id", p.FundID)
	validation.PositiveAmount(errs, "amount", p.Amount)
	validation.Required(errs, "type", p.Type)
	validation.OneOf(errs, "type", p.Type,
		string(model.TypeDebit), string(model.TypeCredit))
	return errs.ErrOrNil()
}

func (c *Client) ListTransactions() ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.do(http.MethodGet, "/transactions", nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) GetTransaction(id string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.do(http.MethodGet, "/transactions/"+id, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// CreateTransaction records a manual fund movement. CREDIT tops the
// fund up, DEBIT draws it down.
func (c *Client) CreateTransaction(payload TransactionPayload) (*model.Transaction, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var tx model.Transaction
	if err := c.do(http.MethodPost, "/transactions/create", payload, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) UpdateTransaction(id string, payload TransactionPayload) (*model.Transaction, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var tx model.Transaction
	if err := c.do(http.MethodPut, "/transactions/update/"+id, payload, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) DeleteTransaction(id string) error {
	return c.do(http.MethodDelete, "/transactions/delete/"+id, nil, nil)
}
