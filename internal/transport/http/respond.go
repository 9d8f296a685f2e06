package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"quiz-testing-service/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	RequestID string `json:"request_id,omitempty"`
}

type envelope struct {
	OK    bool          `json:"ok"`
	Data  interface{}   `json:"data,omitempty"`
	Error *errorPayload `json:"error,omitempty"`
	Meta  meta          `json:"meta"`
}

var validate = validator.New()

func writeOK(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, envelope{OK: true, Data: data})
}

func writeFail(w http.ResponseWriter, r *http.Request, status int, code, msg string, data interface{}) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeEnvelope(w, r, status, envelope{
		Data:  data,
		Error: &errorPayload{Code: code, Message: msg},
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, res envelope) {
	res.Meta.RequestID = middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

// writeError maps err to a status by its domain kind. Server side failures
// are logged and their details withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorWithData(w, r, err, nil)
}

func writeErrorWithData(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	switch kind {
	case domain.KindTransient:
		log.Warn().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("transient failure")
		msg = "temporarily unavailable, retry later"
	case domain.KindUnknown:
		log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
		msg = "internal error"
	}
	writeFail(w, r, status, kind.String(), msg, data)
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body into dst and runs struct validation. It writes
// the 400 response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeFail(w, r, http.StatusBadRequest, domain.KindInvalidArgument.String(), "invalid json body: "+err.Error(), nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeFail(w, r, http.StatusBadRequest, domain.KindInvalidArgument.String(), validationMessage(err), nil)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}
