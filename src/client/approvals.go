package client

import (
	"net/http"

	"github.com/username/pettyvault/src/model"
)

// ListApprovals returns the pending queue (PENDING and STALLED) for
// the active company.
func (c *Client) ListApprovals() ([]model.Requisition, error) {
	var reqs []model.Requisition
	if err := c.do(http.MethodGet, "/requisitions/approvals", nil, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Approve flips the requisition to APPROVED and debits its fund.
func (c *Client) Approve(id string) (*model.Requisition, error) {
	var req model.Requisition
	if err := c.do(http.MethodPut, "/requisitions/approvals/approve/"+id, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) Reject(id string) (*model.Requisition, error) {
	var req model.Requisition
	if err := c.do(http.MethodPut, "/requisitions/approvals/reject/"+id, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) Stall(id string) (*model.Requisition, error) {
	var req model.Requisition
	if err := c.do(http.MethodPut, "/requisitions/approvals/stall/"+id, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
