package client

import (
	"net/http"

	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
)

type RequisitionPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	FundID      string  `json:"fund_id"`
	// Draft saves without submitting for approval.
	Draft bool `json:"draft,omitempty"`
}

func (p RequisitionPayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "title", p.Title)
	validation.Required(errs, "fund_id", p.FundID)
	validation.PositiveAmount(errs, "amount", p.Amount)
	return errs.ErrOrNil()
}

func (c *Client) CreateRequisition(payload RequisitionPayload) (*model.Requisition, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var req model.Requisition
	if err := c.do(http.MethodPost, "/requisitions/create", payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) UpdateRequisition(id string, payload RequisitionPayload) (*model.Requisition, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var req model.Requisition
	if err := c.do(http.MethodPut, "/requisitions/update/"+id, payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListMyRequisitions returns the caller's own requisitions, drafts
// included.
func (c *Client) ListMyRequisitions() ([]model.Requisition, error) {
	var reqs []model.Requisition
	if err := c.do(http.MethodGet, "/requisitions/mine", nil, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListRequisitions returns every non-draft requisition of the active
// company.
func (c *Client) ListRequisitions() ([]model.Requisition, error) {
	var reqs []model.Requisition
	if err := c.do(http.MethodGet, "/requisitions", nil, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (c *Client) GetRequisition(id string) (*model.Requisition, error) {
	var req model.Requisition
	if err := c.do(http.MethodGet, "/requisitions/"+id, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) DeleteRequisition(id string) error {
	return c.do(http.MethodDelete, "/requisitions/delete/"+id, nil, nil)
}
