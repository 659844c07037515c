package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/cloudemu/zero/internal/api"
	apperrors "github.com/cloudemu/zero/internal/errors"
	"github.com/cloudemu/zero/internal/events"
	"github.com/cloudemu/zero/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequestBody decodes and validates a JSON request body.
func (p *Provider) decodeRequestBody(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.ErrValidation("request body is required", nil)
		}
		return apperrors.ErrValidation("invalid request body", err)
	}

	if err := p.validate.Struct(v); err != nil {
		return apperrors.ErrValidation(validationMessage(err), err)
	}
	return nil
}

// validationMessage renders validator errors as "Missing id" or
// "Invalid cidr".
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if fe.Tag() == "required" {
			msgs = append(msgs, "Missing "+field)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("Invalid %s", field))
	}
	return strings.Join(msgs, ", ")
}

// getRequiredURLParam extracts a required URL parameter.
func getRequiredURLParam(req *http.Request, name string) (string, error) {
	param := strings.TrimSpace(chi.URLParam(req, name))
	if param == "" {
		return "", apperrors.ErrBadRequest("invalid "+name, fmt.Errorf("%s is required", name))
	}
	return param, nil
}

func (p *Provider) requestLogger(req *http.Request) *slog.Logger {
	return logger.DeriveRequestLogger(req.Context(), p.logger)
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleAndLogError logs an error and writes the standard error response.
func (p *Provider) handleAndLogError(w http.ResponseWriter, req *http.Request, err error, operationName string) {
	statusCode := apperrors.GetStatusCode(err)
	log := p.requestLogger(req)

	attrs := []any{
		"operation", operationName,
		"error", err,
		"status_code", statusCode,
		"error_code", apperrors.GetErrorCode(err),
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error("operation failed", attrs...)
	} else {
		log.Debug("operation rejected", attrs...)
	}

	writeJSON(w, statusCode, api.ErrorResponse{
		Error:   apperrors.GetErrorMessage(err),
		Code:    apperrors.GetErrorCode(err),
		Details: apperrors.GetErrorDetails(err),
	})
}

func (p *Provider) publish(eventType, resource, id string) {
	p.events.Publish(events.New(eventType, resource, id))
}
