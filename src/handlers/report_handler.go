package handlers

import (
	"net/http"

	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/services"
	"github.com/username/pettyvault/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// UserReportHandler summarizes the caller's own activity, optionally
// filtered by ?month=YYYY-MM.
func (h *ReportHandler) UserReportHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	month := r.URL.Query().Get("month")
	report, err := h.reportService.UserReport(membership.CompanyID, membership.UserID, month)
	if err != nil {
		if err == services.ErrBadMonth {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("UserReportHandler: report failed", "error", err)
		utils.SendJSONError(w, "Failed to build user report", http.StatusInternalServerError)
		return
	}
	utils.SendJSONData(w, http.StatusOK, report)
}

// CompanyReportHandler summarizes company-wide activity for finance
// and admin roles.
func (h *ReportHandler) CompanyReportHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	month := r.URL.Query().Get("month")
	report, err := h.reportService.CompanyReport(membership.CompanyID, month)
	if err != nil {
		if err == services.ErrBadMonth {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("CompanyReportHandler: report failed", "error", err)
		utils.SendJSONError(w, "Failed to build company report", http.StatusInternalServerError)
		return
	}
	utils.SendJSONData(w, http.StatusOK, report)
}

// DashboardHandler renders the admin aggregate view.
func (h *ReportHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	dash, err := h.reportService.Dashboard(membership.CompanyID)
	if err != nil {
		logger.L.Error("DashboardHandler: dashboard failed", "error", err)
		utils.SendJSONError(w, "Failed to build dashboard", http.StatusInternalServerError)
		return
	}
	utils.SendJSONData(w, http.StatusOK, dash)
}
