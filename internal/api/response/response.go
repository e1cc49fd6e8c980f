package response

import (
	"encoding/json"
	"net/http"

	"github.com/edvin/agentdesk/internal/model"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteResult writes a provisioning result with the status code matching
// its outcome.
func WriteResult(w http.ResponseWriter, successStatus int, res model.ProvisionResult) {
	WriteJSON(w, ResultStatus(res, successStatus), res)
}

// ResultStatus maps a provisioning outcome to an HTTP status. Client input
// problems are 422, directory failures 502 and store failures 500.
func ResultStatus(res model.ProvisionResult, successStatus int) int {
	if res.Success {
		return successStatus
	}
	switch res.ErrorKind {
	case model.ErrorKindValidation:
		return http.StatusUnprocessableEntity
	case model.ErrorKindIdentityDirectory, model.ErrorKindIdentityResolution:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
