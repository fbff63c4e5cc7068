package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/utils"
)

// Custom type for context keys to avoid collisions.
type contextKey string

const (
	userIDContextKey     contextKey = "userID"
	membershipContextKey contextKey = "membership"
)

// CompanyIDHeader carries the active company for scoped routes.
const CompanyIDHeader = utils.CompanyIDHeader

// AuthMiddleware validates the bearer token and the matching session
// row, then stashes the user id in the request context.
func (h *UserHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := authHeader
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			logger.L.Debug("AuthMiddleware: Token string empty", "path", r.URL.Path)
			utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		userIDStr, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		if _, err := model.GetSessionByToken(database.DB, tokenString); err != nil {
			logger.L.Warn("AuthMiddleware: Session validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		userIDInt, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			logger.L.Error("AuthMiddleware: Invalid user ID format in token", "userIDStr", userIDStr, "error", err)
			utils.SendJSONError(w, "Invalid user ID in token", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userIDInt)
		ctx = logger.WithContext(ctx, logger.L.With("userID", userIDInt))
		next(w, r.WithContext(ctx))
	}
}

// CompanyMiddleware requires the company-id header, verifies the
// caller's membership, and stashes it. Must run after AuthMiddleware.
func CompanyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
			return
		}

		companyID := r.Header.Get(CompanyIDHeader)
		if companyID == "" {
			utils.SendJSONError(w, "company-id header required", http.StatusBadRequest)
			return
		}

		membership, err := model.GetMembership(database.DB, userID, companyID)
		if err != nil {
			if err == model.ErrNotFound {
				utils.SendJSONError(w, "You are not a member of this company", http.StatusForbidden)
				return
			}
			logger.FromContext(r.Context()).Error("CompanyMiddleware: membership lookup failed", "companyID", companyID, "error", err)
			utils.SendJSONError(w, "Failed to verify company membership", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), membershipContextKey, membership)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole gates a handler to the given roles. Must run after
// CompanyMiddleware.
func RequireRole(roles ...model.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			membership, ok := GetMembershipFromContext(r.Context())
			if !ok {
				utils.SendJSONError(w, "company scope required", http.StatusForbidden)
				return
			}
			for _, role := range roles {
				if membership.Role == role {
					next(w, r)
					return
				}
			}
			logger.FromContext(r.Context()).Debug("RequireRole: access denied", "path", r.URL.Path, "role", membership.Role)
			utils.SendJSONError(w, "You do not have permission to perform this action", http.StatusForbidden)
		}
	}
}

// GetUserIDFromContext retrieves the userID from the context.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

// GetMembershipFromContext retrieves the caller's membership for the
// active company.
func GetMembershipFromContext(ctx context.Context) (*model.Membership, bool) {
	m, ok := ctx.Value(membershipContextKey).(*model.Membership)
	return m, ok
}
