package handlers

import (
	"net/http"

	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/services"
	"github.com/username/pettyvault/src/utils"
)

// ApprovalHandler covers the approval workflow: the queue listing and
// the approve/reject/stall actions. Routes are gated to ADMIN and
// FINANCE.
type ApprovalHandler struct {
	reportService services.ReportService
}

func NewApprovalHandler(reportService services.ReportService) *ApprovalHandler {
	return &ApprovalHandler{reportService: reportService}
}

// ListApprovalsHandler returns the approvals queue: PENDING and
// STALLED requisitions. An approved requisition drops out on the next
// fetch.
func (h *ApprovalHandler) ListApprovalsHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	reqs, err := model.ListPendingRequisitions(database.DB, membership.CompanyID)
	if err != nil {
		logger.L.Error("ListApprovalsHandler: query failed", "error", err)
		utils.SendJSONError(w, "Failed to list approvals", http.StatusInternalServerError)
		return
	}
	if reqs == nil {
		reqs = []model.Requisition{}
	}
	utils.SendJSONData(w, http.StatusOK, reqs)
}

// ApproveHandler flips the requisition to APPROVED and debits its
// fund in a single database transaction.
func (h *ApprovalHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	mvmt, err := model.ApproveRequisition(database.DB, membership.CompanyID, id)
	if err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		case model.ErrInvalidStatus:
			utils.SendJSONError(w, "Only pending or stalled requisitions can be approved", http.StatusConflict)
		case model.ErrInsufficientFunds:
			utils.SendJSONError(w, "Fund balance is insufficient for this requisition", http.StatusConflict)
		default:
			logger.L.Error("ApproveHandler: approval failed", "requisitionID", id, "error", err)
			utils.SendJSONError(w, "Failed to approve requisition", http.StatusInternalServerError)
		}
		return
	}

	logger.L.Info("Requisition approved", "requisitionID", id, "by", membership.UserID, "transactionID", mvmt.ID)
	h.reportService.Invalidate(membership.CompanyID)

	req, err := model.GetRequisitionByID(database.DB, membership.CompanyID, id)
	if err != nil {
		utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		return
	}
	utils.SendJSONData(w, http.StatusOK, req)
}

func (h *ApprovalHandler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusRejected)
}

func (h *ApprovalHandler) StallHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusStalled)
}

func (h *ApprovalHandler) transition(w http.ResponseWriter, r *http.Request, to model.RequisitionStatus) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	if err := model.TransitionRequisition(database.DB, membership.CompanyID, id, to); err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		case model.ErrInvalidStatus:
			utils.SendJSONError(w, "Only pending or stalled requisitions can be acted on", http.StatusConflict)
		default:
			logger.L.Error("ApprovalHandler: transition failed", "requisitionID", id, "to", to, "error", err)
			utils.SendJSONError(w, "Failed to update requisition", http.StatusInternalServerError)
		}
		return
	}

	logger.L.Info("Requisition transitioned", "requisitionID", id, "to", to, "by", membership.UserID)
	h.reportService.Invalidate(membership.CompanyID)

	req, err := model.GetRequisitionByID(database.DB, membership.CompanyID, id)
	if err != nil {
		utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		return
	}
	utils.SendJSONData(w, http.StatusOK, req)
}
