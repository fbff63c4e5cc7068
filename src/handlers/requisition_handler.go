package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
	"github.com/username/pettyvault/src/services"
	"github.com/username/pettyvault/src/utils"
)

type RequisitionHandler struct {
	reportService services.ReportService
}

func NewRequisitionHandler(reportService services.ReportService) *RequisitionHandler {
	return &RequisitionHandler{reportService: reportService}
}

type requisitionPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	FundID      string  `json:"fund_id"`
	Draft       bool    `json:"draft"`
}

func (p *requisitionPayload) validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "title", p.Title)
	validation.Required(errs, "fund_id", p.FundID)
	validation.PositiveAmount(errs, "amount", p.Amount)
	return errs.ErrOrNil()
}

func (h *RequisitionHandler) CreateRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	var payload requisitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The fund must belong to the active company.
	if _, err := model.GetFundByID(database.DB, membership.CompanyID, payload.FundID); err != nil {
		utils.SendJSONError(w, "Fund not found", http.StatusNotFound)
		return
	}

	status := model.StatusPending
	if payload.Draft {
		status = model.StatusDraft
	}

	req := &model.Requisition{
		CompanyID:   membership.CompanyID,
		FundID:      payload.FundID,
		UserID:      membership.UserID,
		Title:       validation.StripUnprintable(payload.Title),
		Description: validation.StripUnprintable(payload.Description),
		Amount:      payload.Amount,
		Status:      status,
	}
	if err := model.CreateRequisition(database.DB, req); err != nil {
		logger.L.Error("CreateRequisitionHandler: insert failed", "error", err)
		utils.SendJSONError(w, "Failed to create requisition", http.StatusInternalServerError)
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusCreated, req)
}

func (h *RequisitionHandler) UpdateRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	existing, err := model.GetRequisitionByID(database.DB, membership.CompanyID, id)
	if err != nil {
		utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		return
	}

	// Only the owner edits; approvers act through the approvals routes.
	if existing.UserID != membership.UserID {
		utils.SendJSONError(w, "You can only edit your own requisitions", http.StatusForbidden)
		return
	}

	var payload requisitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := model.GetFundByID(database.DB, membership.CompanyID, payload.FundID); err != nil {
		utils.SendJSONError(w, "Fund not found", http.StatusNotFound)
		return
	}

	// Updating a draft without the draft flag submits it.
	status := model.StatusPending
	if payload.Draft {
		status = model.StatusDraft
	}

	existing.FundID = payload.FundID
	existing.Title = validation.StripUnprintable(payload.Title)
	existing.Description = validation.StripUnprintable(payload.Description)
	existing.Amount = payload.Amount
	existing.Status = status

	if err := model.UpdateRequisition(database.DB, existing); err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		case model.ErrInvalidStatus:
			utils.SendJSONError(w, "Only pending or draft requisitions can be edited", http.StatusConflict)
		default:
			logger.L.Error("UpdateRequisitionHandler: update failed", "requisitionID", id, "error", err)
			utils.SendJSONError(w, "Failed to update requisition", http.StatusInternalServerError)
		}
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusOK, existing)
}

// ListMineHandler returns the caller's own requisitions, drafts
// included.
func (h *RequisitionHandler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	reqs, err := model.ListRequisitionsByUser(database.DB, membership.CompanyID, membership.UserID)
	if err != nil {
		logger.L.Error("ListMineHandler: query failed", "error", err)
		utils.SendJSONError(w, "Failed to list requisitions", http.StatusInternalServerError)
		return
	}
	if reqs == nil {
		reqs = []model.Requisition{}
	}
	utils.SendJSONData(w, http.StatusOK, reqs)
}

// ListAllHandler returns the company's requisitions, for finance and
// admin roles.
func (h *RequisitionHandler) ListAllHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	reqs, err := model.ListRequisitions(database.DB, membership.CompanyID)
	if err != nil {
		logger.L.Error("ListAllHandler: query failed", "error", err)
		utils.SendJSONError(w, "Failed to list requisitions", http.StatusInternalServerError)
		return
	}
	if reqs == nil {
		reqs = []model.Requisition{}
	}
	utils.SendJSONData(w, http.StatusOK, reqs)
}

func (h *RequisitionHandler) GetRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	req, err := model.GetRequisitionByID(database.DB, membership.CompanyID, r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		return
	}

	// Drafts stay private to their owner.
	if req.Status == model.StatusDraft && req.UserID != membership.UserID {
		utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		return
	}

	utils.SendJSONData(w, http.StatusOK, req)
}

func (h *RequisitionHandler) DeleteRequisitionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	existing, err := model.GetRequisitionByID(database.DB, membership.CompanyID, id)
	if err != nil {
		utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		return
	}
	if existing.UserID != membership.UserID && membership.Role != model.RoleAdmin {
		utils.SendJSONError(w, "You can only delete your own requisitions", http.StatusForbidden)
		return
	}

	if err := model.DeleteRequisition(database.DB, membership.CompanyID, id); err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "Requisition not found", http.StatusNotFound)
		case model.ErrInvalidStatus:
			utils.SendJSONError(w, "Approved requisitions cannot be deleted", http.StatusConflict)
		default:
			logger.L.Error("DeleteRequisitionHandler: delete failed", "requisitionID", id, "error", err)
			utils.SendJSONError(w, "Failed to delete requisition", http.StatusInternalServerError)
		}
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusOK, map[string]string{"message": "Requisition deleted"})
}
