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

type TransactionHandler struct {
	reportService services.ReportService
}

func NewTransactionHandler(reportService services.ReportService) *TransactionHandler {
	return &TransactionHandler{reportService: reportService}
}

type transactionPayload struct {
	FundID      string  `json:"fund_id"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
}

func (p *transactionPayload) validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "fund_id", p.FundID)
	validation.Required(errs, "type", p.Type)
	validation.PositiveAmount(errs, "amount", p.Amount)
	validation.OneOf(errs, "type", p.Type, string(model.TypeDebit), string(model.TypeCredit))
	return errs.ErrOrNil()
}

func (h *TransactionHandler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	txs, err := model.ListTransactions(database.DB, membership.CompanyID)
	if err != nil {
		logger.L.Error("ListTransactionsHandler: query failed", "error", err)
		utils.SendJSONError(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	utils.SendJSONData(w, http.StatusOK, txs)
}

func (h *TransactionHandler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	t, err := model.GetTransactionByID(database.DB, membership.CompanyID, r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}
	utils.SendJSONData(w, http.StatusOK, t)
}

// CreateTransactionHandler records a manual movement: a CREDIT tops a
// fund up, a DEBIT draws it down.
func (h *TransactionHandler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	var payload transactionPayload
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

	t := &model.Transaction{
		CompanyID:   membership.CompanyID,
		FundID:      payload.FundID,
		Amount:      payload.Amount,
		Type:        model.TransactionType(payload.Type),
		Description: validation.StripUnprintable(payload.Description),
	}
	if err := model.CreateTransaction(database.DB, t); err != nil {
		if err == model.ErrInsufficientFunds {
			utils.SendJSONError(w, "Fund balance is insufficient for this debit", http.StatusConflict)
			return
		}
		logger.L.Error("CreateTransactionHandler: insert failed", "error", err)
		utils.SendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusCreated, t)
}

func (h *TransactionHandler) UpdateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	var payload transactionPayload
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

	t := &model.Transaction{
		ID:          r.PathValue("id"),
		CompanyID:   membership.CompanyID,
		FundID:      payload.FundID,
		Amount:      payload.Amount,
		Type:        model.TransactionType(payload.Type),
		Description: validation.StripUnprintable(payload.Description),
	}
	if err := model.UpdateTransaction(database.DB, t); err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		case model.ErrInsufficientFunds:
			utils.SendJSONError(w, "Fund balance is insufficient for this change", http.StatusConflict)
		default:
			logger.L.Error("UpdateTransactionHandler: update failed", "transactionID", t.ID, "error", err)
			utils.SendJSONError(w, "Failed to update transaction", http.StatusInternalServerError)
		}
		return
	}

	h.reportService.Invalidate(membership.CompanyID)

	updated, err := model.GetTransactionByID(database.DB, membership.CompanyID, t.ID)
	if err != nil {
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}
	utils.SendJSONData(w, http.StatusOK, updated)
}

func (h *TransactionHandler) DeleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	if err := model.DeleteTransaction(database.DB, membership.CompanyID, id); err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		case model.ErrInvalidStatus:
			utils.SendJSONError(w, "Transactions created by an approval cannot be deleted", http.StatusConflict)
		case model.ErrInsufficientFunds:
			utils.SendJSONError(w, "Fund balance is insufficient to reverse this credit", http.StatusConflict)
		default:
			logger.L.Error("DeleteTransactionHandler: delete failed", "transactionID", id, "error", err)
			utils.SendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		}
		return
	}

	h.reportService.Invalidate(membership.CompanyID)
	utils.SendJSONData(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}
