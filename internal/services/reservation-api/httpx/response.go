package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/NordCoder/Chateaux/internal/obs"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20

	msgUnexpected = "unexpected server error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// ErrBadRequest marks request bodies that could not be read or parsed.
var ErrBadRequest = errors.New("malformed request body")

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a single JSON document into dst. Unknown fields are ignored.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// WriteError maps err onto a status and writes an ErrorBody. Anything it
// does not recognise becomes a 500 with a generic message; the cause is only
// logged.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	body := ErrorBody{
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		Message:   err.Error(),
	}

	var verrs validation.Errors
	var ierr validation.InternalError
	switch {
	case errors.As(err, &ierr):
		body.Status = http.StatusInternalServerError
	case errors.As(err, &verrs):
		body.Status = http.StatusBadRequest
		body.Message = "validation failed"
		body.ValidationErrors = flatten(verrs)
	case errors.Is(err, ErrBadRequest):
		body.Status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		body.Status = http.StatusUnauthorized
		body.Message = auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		body.Status = http.StatusUnauthorized
		body.Message = auth.ErrUnauthenticated.Error()
	case errors.Is(err, user.ErrNotFound), errors.Is(err, chateau.ErrNotFound):
		body.Status = http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists):
		body.Status = http.StatusConflict
		body.Message = user.ErrEmailExists.Error()
	default:
		body.Status = http.StatusInternalServerError
	}

	if body.Status == http.StatusInternalServerError {
		body.Message = msgUnexpected
		if log != nil {
			obs.WithTrace(r.Context(), log).Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", RequestIDFromCtx(r.Context())),
				zap.Error(err),
			)
		}
	}
	body.Error = http.StatusText(body.Status)
	WriteJSON(w, body.Status, body)
}

func flatten(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		if err != nil {
			out[field] = err.Error()
		}
	}
	return out
}
