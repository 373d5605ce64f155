package v1

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/tinoosan/wallet/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
    Error   string `json:"error"`
    Code    string `json:"code,omitempty"`
    Outcome string `json:"outcome,omitempty"`
}

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
    toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "invalid") }
func forbidden(w http.ResponseWriter, msg string)  { writeErr(w, http.StatusForbidden, msg, "forbidden") }

// writeCallErr renders a ledger failure with its outcome so clients can tell a
// rejected call from a returned error value.
func writeCallErr(w http.ResponseWriter, err error) {
    status, code := mapCallError(err)
    toJSON(w, status, errorResponse{
        Error:   errs.Detail(err),
        Code:    code,
        Outcome: errs.Classify(err).String(),
    })
}

// mapCallError normalizes domain errors into an HTTP status and code.
func mapCallError(err error) (int, string) {
    switch {
    case errors.Is(err, errs.ErrUnauthenticated):
        return http.StatusUnauthorized, "unauthenticated"
    case errors.Is(err, errs.ErrForbidden):
        return http.StatusForbidden, "forbidden"
    case errors.Is(err, errs.ErrNotFound):
        return http.StatusNotFound, "not_found"
    case errors.Is(err, errs.ErrAlreadyRegistered):
        return http.StatusConflict, "already_registered"
    case errors.Is(err, errs.ErrInsufficientBalance):
        return http.StatusUnprocessableEntity, "insufficient_balance"
    case errors.Is(err, errs.ErrOverflow):
        return http.StatusUnprocessableEntity, "overflow"
    case errors.Is(err, errs.ErrInvalid):
        return http.StatusBadRequest, "invalid"
    default:
        return http.StatusInternalServerError, "internal"
    }
}
