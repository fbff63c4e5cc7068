package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
	"github.com/username/pettyvault/src/utils"
)

type CompanyHandler struct {
}

func NewCompanyHandler() *CompanyHandler {
	return &CompanyHandler{}
}

type companyPayload struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (p *companyPayload) validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "name", p.Name)
	validation.Email(errs, "email", p.Email)
	return errs.ErrOrNil()
}

// ListCompaniesHandler returns every company the caller belongs to,
// each carrying the caller's role. No company-id header needed; this
// is the entry point for picking one.
func (h *CompanyHandler) ListCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	companies, err := model.ListCompaniesForUser(database.DB, userID)
	if err != nil {
		logger.L.Error("ListCompaniesHandler: query failed", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to list companies", http.StatusInternalServerError)
		return
	}
	if companies == nil {
		companies = []model.CompanyWithRole{}
	}
	utils.SendJSONData(w, http.StatusOK, companies)
}

func (h *CompanyHandler) CreateCompanyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var payload companyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	company := &model.Company{
		Name:    validation.StripUnprintable(payload.Name),
		Street:  payload.Street,
		City:    payload.City,
		State:   payload.State,
		Country: payload.Country,
		Phone:   payload.Phone,
		Email:   payload.Email,
		OwnerID: userID,
	}
	if err := model.CreateCompany(database.DB, company); err != nil {
		logger.L.Error("CreateCompanyHandler: insert failed", "error", err)
		utils.SendJSONError(w, "Failed to create company", http.StatusInternalServerError)
		return
	}

	utils.SendJSONData(w, http.StatusCreated, company)
}

func (h *CompanyHandler) UpdateCompanyHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	if id != membership.CompanyID {
		utils.SendJSONError(w, "company-id header does not match the company being updated", http.StatusForbidden)
		return
	}

	var payload companyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	company, err := model.GetCompanyByID(database.DB, id)
	if err != nil {
		utils.SendJSONError(w, "Company not found", http.StatusNotFound)
		return
	}

	company.Name = validation.StripUnprintable(payload.Name)
	company.Street = payload.Street
	company.City = payload.City
	company.State = payload.State
	company.Country = payload.Country
	company.Phone = payload.Phone
	company.Email = payload.Email

	if err := model.UpdateCompany(database.DB, company); err != nil {
		logger.L.Error("UpdateCompanyHandler: update failed", "companyID", id, "error", err)
		utils.SendJSONError(w, "Failed to update company", http.StatusInternalServerError)
		return
	}
	utils.SendJSONData(w, http.StatusOK, company)
}

// RemoveUserHandler deletes a membership, never the user account. The
// last ADMIN of a company cannot be removed.
func (h *CompanyHandler) RemoveUserHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	if id != membership.CompanyID {
		utils.SendJSONError(w, "company-id header does not match the company being modified", http.StatusForbidden)
		return
	}

	targetID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := model.RemoveMember(database.DB, id, targetID); err != nil {
		switch err {
		case model.ErrNotFound:
			utils.SendJSONError(w, "User is not a member of this company", http.StatusNotFound)
		case model.ErrLastAdmin:
			utils.SendJSONError(w, "Cannot remove the last admin of a company", http.StatusConflict)
		default:
			logger.L.Error("RemoveUserHandler: delete failed", "companyID", id, "userID", targetID, "error", err)
			utils.SendJSONError(w, "Failed to remove user", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSONData(w, http.StatusOK, map[string]string{"message": "User removed from company"})
}
