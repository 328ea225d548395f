package errors

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate is the shared struct validator. It reads `validate` tags and
// reports field names from the json tag when present.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs tag validation on v and converts the first failure into
// an *Error carrying code.
func ValidateStruct(code Code, v any) error {
	if err := validate.Struct(v); err != nil {
		return Wrap(code, err, "%s", formatValidationError(err))
	}
	return nil
}

// formatValidationError renders the first validator failure as a short,
// user-facing sentence.
func formatValidationError(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	e := errs[0]
	field, param := e.Field(), e.Param()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s: must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s: must not exceed %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", field, param)
	default:
		return fmt.Sprintf("%s: validation failed (%s)", field, e.Tag())
	}
}

// ValidateSquare checks that id names a board square such as "e4".
func ValidateSquare(id string) error {
	if len(id) != 2 || id[0] < 'a' || id[0] > 'h' || id[1] < '1' || id[1] > '8' {
		return New(ErrCodeInvalidInput, "invalid square: %q", id)
	}
	return nil
}

// ValidateMoveIndex checks that idx addresses one of n moves.
func ValidateMoveIndex(idx, n int) error {
	if n == 0 {
		return New(ErrCodeMoveOutOfRange, "dataset has no moves")
	}
	if idx < 0 || idx >= n {
		return New(ErrCodeMoveOutOfRange, "move %d out of range [0, %d]", idx, n-1)
	}
	return nil
}

// ValidateFilename validates an output or upload file name. It must be a
// plain basename so it cannot escape the target directory.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "file name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "file name too long (max 255 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "file name contains invalid characters")
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "file name cannot contain path separators")
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidInput, "file name cannot be %q", name)
	}
	return nil
}
