package handlers

import (
	"errors"
	"fmt"
	"log"

	"bunga/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondData writes the uniform success envelope.
func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// respondError translates an error into the uniform failure envelope. This is
// the single place where taxonomy codes become HTTP statuses; unexpected
// errors are logged and reported as SERVER_ERROR without leaking internals.
func respondError(c *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		ae = apperr.New(apperr.CodeServer, "internal server error")
	}

	body := fiber.Map{
		"success": false,
		"code":    ae.Code,
		"error":   ae.Message,
	}
	if len(ae.Details) > 0 {
		body["details"] = ae.Details
	}
	return c.Status(apperr.HTTPStatus(ae.Code)).JSON(body)
}

// respondValidation maps validator failures to a VALIDATION_ERROR envelope
// with field-level details.
func respondValidation(c *fiber.Ctx, err error) error {
	details := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details[e.Field()] = fmt.Sprintf("failed on the '%s' rule", e.Tag())
		}
	}
	return respondError(c, apperr.New(apperr.CodeValidation, "Validation failed").WithDetails(details))
}

// respondBadBody reports an unparseable request body.
func respondBadBody(c *fiber.Ctx, err error) error {
	return respondError(c, apperr.Wrap(apperr.CodeValidation, "Invalid request body", err))
}
