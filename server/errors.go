package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/graphplan"
)

// appError is an error with an HTTP status and a stable machine code.
type appError struct {
	HTTPStatus int
	Code       string
	Message    string
	Internal   error
	Details    map[string]any
}

func (e *appError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *appError) Unwrap() error { return e.Internal }

func newAppError(status int, code, message string) *appError {
	return &appError{HTTPStatus: status, Code: code, Message: message}
}

// withInternal returns a copy of e carrying err.
func (e *appError) withInternal(err error) *appError {
	c := *e
	c.Internal = err
	return &c
}

// withDetails returns a copy of e carrying details.
func (e *appError) withDetails(details map[string]any) *appError {
	c := *e
	c.Details = details
	return &c
}

var (
	errBadRequest    = newAppError(http.StatusBadRequest, "bad_request", "Invalid request body")
	errValidation    = newAppError(http.StatusUnprocessableEntity, "validation_error", "Plan rejected")
	errNothingToUndo = newAppError(http.StatusConflict, "nothing_to_undo", "Nothing to undo")
	errNothingToRedo = newAppError(http.StatusConflict, "nothing_to_redo", "Nothing to redo")
	errInternal      = newAppError(http.StatusInternalServerError, "internal_error", "An internal error occurred")
)

// toAppError maps engine and store errors onto API errors.
func toAppError(err error) *appError {
	var ae *appError
	if errors.As(err, &ae) {
		return ae
	}
	var verr *graphplan.ValidationError
	if errors.As(err, &verr) {
		return errValidation.withInternal(err).withDetails(map[string]any{
			"op_index": verr.OpIndex,
			"temp_id":  verr.TempID,
			"type":     string(verr.Type),
			"reason":   verr.Err.Error(),
		})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return newAppError(fe.Code, "http_error", fe.Message)
	}
	return errInternal.withInternal(err)
}

// errorHandler renders every handler error as {"error": {code, message,
// details}}.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		ae := toAppError(err)
		if ae.HTTPStatus >= 500 {
			log.Error("request error",
				slog.Int("status", ae.HTTPStatus),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
		}

		body := fiber.Map{"code": ae.Code, "message": ae.Message}
		if len(ae.Details) > 0 {
			body["details"] = ae.Details
		}
		return c.Status(ae.HTTPStatus).JSON(fiber.Map{"error": body})
	}
}
