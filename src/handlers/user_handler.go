package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/username/pettyvault/src/config"
	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security"
	"github.com/username/pettyvault/src/security/validation"
	"github.com/username/pettyvault/src/services"
	"github.com/username/pettyvault/src/utils"
)

type UserHandler struct {
	authService  *security.AuthService
	emailService services.EmailService
}

func NewUserHandler(authService *security.AuthService, emailService services.EmailService) *UserHandler {
	return &UserHandler{
		authService:  authService,
		emailService: emailService,
	}
}

func (h *UserHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		InviteToken string `json:"inviteToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "name", payload.Name)
	validation.Required(errs, "email", payload.Email)
	validation.Required(errs, "password", payload.Password)
	validation.Email(errs, "email", payload.Email)
	validation.MinLength(errs, "password", payload.Password, 8)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hashedPassword, err := h.authService.HashPassword(payload.Password)
	if err != nil {
		utils.SendJSONError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Name:     validation.StripUnprintable(payload.Name),
		Email:    strings.ToLower(strings.TrimSpace(payload.Email)),
		Password: hashedPassword,
	}
	if err := user.CreateUser(database.DB); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			utils.SendJSONError(w, "An account with this email already exists", http.StatusConflict)
			return
		}
		logger.L.Error("SignupHandler: create user failed", "error", err)
		utils.SendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// An invite token joins the new account to the inviting company
	// with the invited role.
	if payload.InviteToken != "" {
		invite, err := model.GetInviteByToken(database.DB, payload.InviteToken)
		if err != nil {
			logger.L.Warn("SignupHandler: invalid invite token", "error", err)
		} else {
			m := &model.Membership{UserID: user.ID, CompanyID: invite.CompanyID, Role: invite.Role}
			if err := model.CreateMembership(database.DB, m); err != nil {
				logger.L.Error("SignupHandler: membership from invite failed", "error", err)
			} else if err := model.DeleteInvite(database.DB, invite.Token); err != nil {
				logger.L.Warn("SignupHandler: invite cleanup failed", "error", err)
			}
		}
	}

	utils.SendJSONData(w, http.StatusCreated, user)
}

func (h *UserHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "email", credentials.Email)
	validation.Required(errs, "password", credentials.Password)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(database.DB, strings.ToLower(strings.TrimSpace(credentials.Email)))
	if err != nil {
		logger.L.Debug("LoginHandler: user lookup failed", "email", credentials.Email, "error", err)
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := user.CheckPassword(credentials.Password); err != nil {
		logger.L.Debug("LoginHandler: password check failed", "email", credentials.Email)
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	userIDStr := fmt.Sprintf("%d", user.ID)
	accessToken, expiresAt, err := h.authService.GenerateToken(userIDStr)
	if err != nil {
		utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}

	session := &model.Session{
		UserID:    user.ID,
		Token:     accessToken,
		UserAgent: r.UserAgent(),
		ClientIP:  r.RemoteAddr,
		IsBlocked: false,
		ExpiresAt: expiresAt,
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	utils.SendJSONData(w, http.StatusOK, map[string]interface{}{
		"token":     accessToken,
		"user":      user,
		"expiresAt": expiresAt.UnixMilli(),
	})
}

func (h *UserHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
		return
	}

	if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
		logger.L.Warn("LogoutHandler: failed to delete session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPasswordHandler always answers 200 with a generic message so
// account existence is not disclosed.
func (h *UserHandler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "email", payload.Email)
	validation.Email(errs, "email", payload.Email)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(database.DB, strings.ToLower(strings.TrimSpace(payload.Email)))
	if err == nil {
		token, tokenErr := h.authService.GenerateRandomToken()
		if tokenErr == nil {
			expiresAt := time.Now().Add(config.Cfg.PasswordResetTokenExpiry)
			if err := model.SetPasswordResetToken(database.DB, user.ID, token, expiresAt); err != nil {
				logger.L.Error("ForgotPasswordHandler: failed to store reset token", "error", err)
			} else if err := h.emailService.SendPasswordResetEmail(user.Email, user.Name, token); err != nil {
				logger.L.Error("ForgotPasswordHandler: failed to send reset email", "error", err)
			}
		}
	} else {
		logger.L.Debug("ForgotPasswordHandler: unknown email", "email", payload.Email)
	}

	utils.SendJSONData(w, http.StatusOK, map[string]string{
		"message": "If an account with that email exists, a password reset link has been sent",
	})
}

func (h *UserHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "token", payload.Token)
	validation.Required(errs, "password", payload.Password)
	validation.MinLength(errs, "password", payload.Password, 8)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByPasswordResetToken(database.DB, payload.Token)
	if err != nil {
		utils.SendJSONError(w, "Invalid or expired password reset token", http.StatusBadRequest)
		return
	}

	hashed, err := h.authService.HashPassword(payload.Password)
	if err != nil {
		utils.SendJSONError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	if err := model.UpdateUserPassword(database.DB, user.ID, hashed); err != nil {
		utils.SendJSONError(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	utils.SendJSONData(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	utils.SendJSONData(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "name", payload.Name)
	validation.Required(errs, "email", payload.Email)
	validation.Email(errs, "email", payload.Email)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if err := model.UpdateUserProfile(database.DB, userID, validation.StripUnprintable(payload.Name), email); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			utils.SendJSONError(w, "An account with this email already exists", http.StatusConflict)
			return
		}
		utils.SendJSONError(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	utils.SendJSONData(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "currentPassword", payload.CurrentPassword)
	validation.Required(errs, "newPassword", payload.NewPassword)
	validation.MinLength(errs, "newPassword", payload.NewPassword, 8)
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err := user.CheckPassword(payload.CurrentPassword); err != nil {
		utils.SendJSONError(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	hashed, err := h.authService.HashPassword(payload.NewPassword)
	if err != nil {
		utils.SendJSONError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	if err := model.UpdateUserPassword(database.DB, userID, hashed); err != nil {
		utils.SendJSONError(w, "Failed to change password", http.StatusInternalServerError)
		return
	}

	utils.SendJSONData(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// InviteHandler creates an invite for the active company and emails
// the tokened signup link.
func (h *UserHandler) InviteHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	var payload struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	errs := validation.FieldErrors{}
	validation.Required(errs, "email", payload.Email)
	validation.Email(errs, "email", payload.Email)
	validation.Required(errs, "role", payload.Role)
	validation.OneOf(errs, "role", payload.Role,
		string(model.RoleAdmin), string(model.RoleFinance), string(model.RoleEmployee))
	if err := errs.ErrOrNil(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	company, err := model.GetCompanyByID(database.DB, membership.CompanyID)
	if err != nil {
		utils.SendJSONError(w, "Company not found", http.StatusNotFound)
		return
	}

	token, err := h.authService.GenerateRandomToken()
	if err != nil {
		utils.SendJSONError(w, "Failed to generate invite token", http.StatusInternalServerError)
		return
	}

	invite := &model.Invite{
		Token:     token,
		CompanyID: company.ID,
		Email:     strings.ToLower(strings.TrimSpace(payload.Email)),
		Role:      model.Role(payload.Role),
		ExpiresAt: time.Now().Add(config.Cfg.InviteTokenExpiry),
	}
	if err := model.CreateInvite(database.DB, invite); err != nil {
		logger.L.Error("InviteHandler: failed to store invite", "error", err)
		utils.SendJSONError(w, "Failed to create invite", http.StatusInternalServerError)
		return
	}

	if err := h.emailService.SendInviteEmail(invite.Email, company.Name, string(invite.Role), token); err != nil {
		logger.L.Error("InviteHandler: failed to send invite email", "error", err)
		utils.SendJSONError(w, "Failed to send invite email", http.StatusInternalServerError)
		return
	}

	utils.SendJSONData(w, http.StatusCreated, map[string]string{"message": "Invite sent"})
}

// ListUsersHandler lists the members of the active company.
func (h *UserHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	membership, ok := GetMembershipFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "company scope required", http.StatusForbidden)
		return
	}

	members, err := model.ListMembers(database.DB, membership.CompanyID)
	if err != nil {
		logger.L.Error("ListUsersHandler: query failed", "companyID", membership.CompanyID, "error", err)
		utils.SendJSONError(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	if members == nil {
		members = []model.MemberInfo{}
	}
	utils.SendJSONData(w, http.StatusOK, members)
}
