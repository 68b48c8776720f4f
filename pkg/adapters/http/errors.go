package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

var errBadRequest = errors.New("bad request")

var statusBySentinel = []struct {
	err    error
	status int
}{
	{domain.ErrFlowNotFound, http.StatusNotFound},
	{domain.ErrNodeNotFound, http.StatusNotFound},
	{domain.ErrEdgeNotFound, http.StatusNotFound},
	{domain.ErrOptionNotFound, http.StatusNotFound},
	{domain.ErrDuplicateID, http.StatusConflict},
	{domain.ErrDuplicateStart, http.StatusConflict},
	{domain.ErrReadOnly, http.StatusConflict},
	{domain.ErrKindMismatch, http.StatusUnprocessableEntity},
	{domain.ErrUnknownKind, http.StatusUnprocessableEntity},
	{domain.ErrInvalidStatus, http.StatusUnprocessableEntity},
	{domain.ErrInvalidHandle, http.StatusUnprocessableEntity},
	{domain.ErrFieldNotApplicable, http.StatusUnprocessableEntity},
	{domain.ErrInvalidOption, http.StatusUnprocessableEntity},
	{errBadRequest, http.StatusBadRequest},
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		status = http.StatusBadRequest
		for _, fe := range verrs {
			resp.Fields = append(resp.Fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		resp.Error = "internal error"
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst and checks its validate tags.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}
