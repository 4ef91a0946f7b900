package util

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages per tag, after https://github.com/go-playground/validator/issues/559#issuecomment-976459959

type ApiError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(fe validator.FieldError, customField map[string]string) string {
	field := fe.Field()
	if renamed, ok := customField[field]; ok {
		field = renamed
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%v is required", field)
	case "numeric":
		return fmt.Sprintf("%v must be numeric", field)
	case "min":
		return fmt.Sprintf("%v must be at least %v characters or items", field, fe.Param())
	case "max":
		return fmt.Sprintf("%v must be at most %v characters or items", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%v must be greater than or equal to %v", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%v must be less than or equal to %v", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%v must be one of: %v", field, fe.Param())
	case "len":
		return fmt.Sprintf("%v must be exactly %v characters", field, fe.Param())
	case "hexadecimal":
		return fmt.Sprintf("%v must be hexadecimal", field)
	case "dive":
		return fmt.Sprintf("%v is invalid", field)
	case "cmin":
		return fmt.Sprintf("%v must be at least %v non-whitespace characters", field, fe.Param())
	case "cmax":
		return fmt.Sprintf("%v must be at most %v non-whitespace characters", field, fe.Param())
	case "strNotEmpty":
		return fmt.Sprintf("%v must not be empty or contain only whitespace characters", field)
	}

	return fe.Error()
}

// GenerateErrorMessages turns err into field errors for the response
// envelope. Optional params: a map[string]string renaming fields, and a
// string naming the field of a non-validation error.
//
//	GenerateErrorMessages(err, map[string]string{"Reason": "reason"})
//	GenerateErrorMessages(ledger.ErrNoToken, "status")
func GenerateErrorMessages(err error, optionalParams ...any) []ApiError {
	var customField map[string]string
	fieldName := "Unknown"

	for _, param := range optionalParams {
		switch v := param.(type) {
		case map[string]string:
			customField = v
		case string:
			fieldName = v
		}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]ApiError, len(ve))
		for i, fe := range ve {
			field := fe.Field()
			if renamed, ok := customField[field]; ok {
				field = renamed
			}
			out[i] = ApiError{Field: field, Message: msgForTag(fe, customField)}
		}
		return out
	}

	return []ApiError{{Field: fieldName, Message: err.Error()}}
}

// RegisterValidations adds the custom tags used by request bindings.
// Usage: RegisterValidations(binding.Validator.Engine().(*validator.Validate))
func RegisterValidations(v *validator.Validate) error {
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range map[string]validator.Func{
		"strNotEmpty": StrNotEmpty,
		"cmin":        CustomMin,
		"cmax":        CustomMax,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// trimmedString returns the field as a whitespace-trimmed string.
func trimmedString(fl validator.FieldLevel) (string, bool) {
	if fl.Field().Kind() != reflect.String {
		return "", false
	}
	return strings.TrimSpace(fl.Field().String()), true
}

// StrNotEmpty rejects strings that are empty after trimming.
// Usage: `binding:"strNotEmpty"`
func StrNotEmpty(fl validator.FieldLevel) bool {
	str, ok := trimmedString(fl)
	return ok && str != ""
}

// CustomMin checks the trimmed length. Usage: `binding:"cmin=3"`
func CustomMin(fl validator.FieldLevel) bool {
	str, ok := trimmedString(fl)
	n, err := strconv.Atoi(fl.Param())
	return ok && err == nil && len(str) >= n
}

// CustomMax checks the trimmed length. Usage: `binding:"cmax=3"`
func CustomMax(fl validator.FieldLevel) bool {
	str, ok := trimmedString(fl)
	n, err := strconv.Atoi(fl.Param())
	return ok && err == nil && len(str) <= n
}
