// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator whose "source" tag accepts only the
// engine's source names.
func newValidator(sources []string) *validator.Validate {
	v := validator.New()
	v.RegisterValidation("source", func(fl validator.FieldLevel) bool {
		return slices.Contains(sources, fl.Field().String())
	})
	return v
}

// check validates req and returns one detail per failing field, or nil.
func (s *Server) check(req any) []errorDetail {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []errorDetail{{Message: err.Error()}}
	}

	var details []errorDetail
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", field)
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "gte", "lte":
			msg = fmt.Sprintf("%s is out of range", field)
		case "source":
			msg = fmt.Sprintf("unknown source %q", fe.Value())
		default:
			msg = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, errorDetail{Field: field, Message: msg})
	}
	return details
}
