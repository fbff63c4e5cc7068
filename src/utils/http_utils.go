package utils

import (
	"encoding/json"
	"net/http"

	"github.com/username/pettyvault/src/logger"
)

// CompanyIDHeader names the header carrying the active company.
// Shared by the server middleware and the client facade.
const CompanyIDHeader = "company-id"

// SendJSONError sends a JSON formatted error response with the
// `{"error": ...}` envelope the client facade expects.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil {
		logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	}
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// SendJSONData wraps a success payload in the `{"data": ...}`
// envelope; the client unwraps exactly one level.
func SendJSONData(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		if logger.L != nil {
			logger.L.Error("Error encoding JSON response", "error", err)
		}
	}
}
