package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/pettyvault/src/config"
	"github.com/username/pettyvault/src/database"
	"github.com/username/pettyvault/src/handlers"
	"github.com/username/pettyvault/src/logger"
	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security"
	"github.com/username/pettyvault/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, company-id")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Pettyvault backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	reportService := services.NewReportService(database.DB, reportCache)

	userHandler := handlers.NewUserHandler(authService, emailService)
	companyHandler := handlers.NewCompanyHandler()
	fundHandler := handlers.NewFundHandler(reportService)
	requisitionHandler := handlers.NewRequisitionHandler(reportService)
	approvalHandler := handlers.NewApprovalHandler(reportService)
	transactionHandler := handlers.NewTransactionHandler(reportService)
	reportHandler := handlers.NewReportHandler(reportService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Middleware chains. Company-scoped routes run auth, then the
	// membership check, then an optional role gate.
	authed := userHandler.AuthMiddleware
	scoped := func(handler http.HandlerFunc) http.HandlerFunc {
		return authed(handlers.CompanyMiddleware(handler))
	}
	scopedAs := func(handler http.HandlerFunc, roles ...model.Role) http.HandlerFunc {
		return scoped(handlers.RequireRole(roles...)(handler))
	}

	// Auth and account routes.
	apiRouter.HandleFunc("POST /api/auth/signup", userHandler.SignupHandler)
	apiRouter.HandleFunc("POST /api/auth/login", userHandler.LoginHandler)
	apiRouter.HandleFunc("POST /api/auth/logout", authed(userHandler.LogoutHandler))
	apiRouter.HandleFunc("POST /api/auth/forgot-password", userHandler.ForgotPasswordHandler)
	apiRouter.HandleFunc("POST /api/auth/reset-password", userHandler.ResetPasswordHandler)
	apiRouter.HandleFunc("GET /api/auth/me", authed(userHandler.MeHandler))
	apiRouter.HandleFunc("PUT /api/auth/profile", authed(userHandler.UpdateProfileHandler))
	apiRouter.HandleFunc("PUT /api/auth/change-password", authed(userHandler.ChangePasswordHandler))
	apiRouter.HandleFunc("POST /api/auth/invite", scopedAs(userHandler.InviteHandler, model.RoleAdmin))
	apiRouter.HandleFunc("GET /api/auth/users", scoped(userHandler.ListUsersHandler))

	// Companies. Listing and creating need no company scope.
	apiRouter.HandleFunc("GET /api/companies", authed(companyHandler.ListCompaniesHandler))
	apiRouter.HandleFunc("POST /api/companies/create", authed(companyHandler.CreateCompanyHandler))
	apiRouter.HandleFunc("PUT /api/companies/update/{id}", scopedAs(companyHandler.UpdateCompanyHandler, model.RoleAdmin))
	apiRouter.HandleFunc("DELETE /api/companies/{id}/users/{userID}", scopedAs(companyHandler.RemoveUserHandler, model.RoleAdmin))

	// Petty cash funds.
	apiRouter.HandleFunc("GET /api/funds", scoped(fundHandler.ListFundsHandler))
	apiRouter.HandleFunc("GET /api/funds/{id}", scoped(fundHandler.GetFundHandler))
	apiRouter.HandleFunc("POST /api/funds/create", scopedAs(fundHandler.CreateFundHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("PUT /api/funds/update/{id}", scopedAs(fundHandler.UpdateFundHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("DELETE /api/funds/delete/{id}", scopedAs(fundHandler.DeleteFundHandler, model.RoleAdmin, model.RoleFinance))

	// Requisitions. Approval routes are registered before the generic
	// {id} pattern on purpose, though the mux prefers the more specific
	// pattern either way.
	apiRouter.HandleFunc("POST /api/requisitions/create", scoped(requisitionHandler.CreateRequisitionHandler))
	apiRouter.HandleFunc("PUT /api/requisitions/update/{id}", scoped(requisitionHandler.UpdateRequisitionHandler))
	apiRouter.HandleFunc("GET /api/requisitions/mine", scoped(requisitionHandler.ListMineHandler))
	apiRouter.HandleFunc("GET /api/requisitions", scopedAs(requisitionHandler.ListAllHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("GET /api/requisitions/{id}", scoped(requisitionHandler.GetRequisitionHandler))
	apiRouter.HandleFunc("DELETE /api/requisitions/delete/{id}", scoped(requisitionHandler.DeleteRequisitionHandler))

	apiRouter.HandleFunc("GET /api/requisitions/approvals", scopedAs(approvalHandler.ListApprovalsHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("PUT /api/requisitions/approvals/approve/{id}", scopedAs(approvalHandler.ApproveHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("PUT /api/requisitions/approvals/reject/{id}", scopedAs(approvalHandler.RejectHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("PUT /api/requisitions/approvals/stall/{id}", scopedAs(approvalHandler.StallHandler, model.RoleAdmin, model.RoleFinance))

	// Fund ledger transactions.
	apiRouter.HandleFunc("GET /api/transactions", scopedAs(transactionHandler.ListTransactionsHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("GET /api/transactions/{id}", scopedAs(transactionHandler.GetTransactionHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("POST /api/transactions/create", scopedAs(transactionHandler.CreateTransactionHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("PUT /api/transactions/update/{id}", scopedAs(transactionHandler.UpdateTransactionHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("DELETE /api/transactions/delete/{id}", scopedAs(transactionHandler.DeleteTransactionHandler, model.RoleAdmin, model.RoleFinance))

	// Reports and dashboard.
	apiRouter.HandleFunc("GET /api/reports/user", scoped(reportHandler.UserReportHandler))
	apiRouter.HandleFunc("GET /api/reports/company", scopedAs(reportHandler.CompanyReportHandler, model.RoleAdmin, model.RoleFinance))
	apiRouter.HandleFunc("GET /api/dashboard", scopedAs(reportHandler.DashboardHandler, model.RoleAdmin))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "PETTYVAULT Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
