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

type FundHandler struct {
	reportService services.ReportService
}

func NewFundHandler(reportService services.ReportService) *FundHandler {
	return &FundHandler{reportService: reportService}
}

func (h *FundHandler) ListFundsHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	funds, err := model.ListFunds(database.DB, membership.CompanyID)
	if err != nil {
		logger.L.Error("ListFundsHandler: query failed", "companyID", membership.CompanyID, "error", err)
		utils.SendJSONError(w, "Failed to list funds", http.StatusInternalServerError)
		return
	}
	if funds == nil {
		funds = []model.PettyFund{}
	}
	utils.SendJSONData(w, http.StatusOK, funds)
}

func (h *FundHandler) GetFundHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	fund, err := model.GetFundByID(database.DB, membership.CompanyID, r.PathValue("id"))
	if err != nil {
		if err == model.ErrNotFound {
			utils.SendJSONError(w, "Fund not found", http.StatusNotFound)
			return
		}
		logger.L.Error("GetFundHandler: query failed", "error", err)
		utils.SendJSONError(w, "Failed to load fund", http.StatusInternalServerError)
		return
	}
	utils.SendJSONData(w, http.StatusOK, fund)
}

func (h *FundHandler) CreateFundHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	var payload struct {
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "name", payload.Name)
	validation.PositiveAmount(errs, "amount", payload.Amount)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fund := &model.PettyFund{
		CompanyID: membership.CompanyID,
		Name:      validation.StripUnprintable(payload.Name),
	}
	if err := model.CreateFund(database.DB, fund, payload.Amount); err != nil {
		logger.L.Error("CreateFundHandler: insert failed", "error", err)
		utils.SendJSONError(w, "Failed to create fund", http.StatusInternalServerError)
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusCreated, fund)
}

func (h *FundHandler) UpdateFundHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "name", payload.Name)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if err := model.UpdateFund(database.DB, membership.CompanyID, id, validation.StripUnprintable(payload.Name)); err != nil {
		if err == model.ErrNotFound {
			utils.SendJSONError(w, "Fund not found", http.StatusNotFound)
			return
		}
		logger.L.Error("UpdateFundHandler: update failed", "fundID", id, "error", err)
		utils.SendJSONError(w, "Failed to update fund", http.StatusInternalServerError)
		return
	}

	fund, err := model.GetFundByID(database.DB, membership.CompanyID, id)
	if err != nil {
		utils.SendJSONError(w, "Fund not found", http.StatusNotFound)
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusOK, fund)
}

func (h *FundHandler) DeleteFundHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	if err := model.DeleteFund(database.DB, membership.CompanyID, id); err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "Fund not found", http.StatusNotFound)
		case model.ErrFundInUse:
			utils.SendJSONError(w, "Fund has requisitions and cannot be deleted", http.StatusConflict)
		default:
			logger.L.Error("DeleteFundHandler: delete failed", "fundID", id, "error", err)
			utils.SendJSONError(w, "Failed to delete fund", http.StatusInternalServerError)
		}
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusOK, map[string]string{"message": "Fund deleted"})
}
