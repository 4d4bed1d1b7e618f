// Package apperror maps request validation failures to client-readable
// messages.
package apperror

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	errRequired       = errors.New("is required")
	errMustBeNonNeg   = errors.New("must be zero or a positive number")
	errInvalidDate    = errors.New("must be a calendar date in YYYY-MM-DD format")
	errInvalidURL     = errors.New("must be a valid URL")
	errTooLong        = errors.New("is too long")
	errMustNotBeEmpty = errors.New("must not be empty")
)

var customErrors = map[string]error{
	"createDiaryRequest.Date.required":          errRequired,
	"createDiaryRequest.Date.datetime":          errInvalidDate,
	"createDiaryRequest.Title.max":              errTooLong,
	"createDiaryRequest.WorkType.max":           errTooLong,
	"createDiaryRequest.DurationHours.gte":      errMustBeNonNeg,
	"createChannelRequest.Name.required":        errRequired,
	"createChannelRequest.Name.min":             errMustNotBeEmpty,
	"createChannelRequest.Name.max":             errTooLong,
	"createChannelRequest.WebhookURL.required":  errRequired,
	"createChannelRequest.WebhookURL.url":       errInvalidURL,
	"createChannelRequest.Notifications.required": errRequired,
}

// CustomValidationError converts validator errors into a standardized
// field-to-message format. Non-validator errors yield an empty list, letting
// callers fall back to a generic message.
func CustomValidationError(err error) []map[string]string {
	errList := make([]map[string]string, 0)

	var validationErr validator.ValidationErrors

	switch {
	case errors.As(err, &validationErr):
		for _, e := range validationErr {
			field := e.StructNamespace()
			key := field + "." + e.Tag()

			errMsg := fmt.Sprintf("%s is invalid", field)
			if v, ok := customErrors[key]; ok {
				errMsg = v.Error()
			}

			errList = append(errList, map[string]string{e.Field(): errMsg})
		}
	}
	return errList
}
