// internal/domain/mintRequest/errors.go
package mintRequest

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidInput は検証エラー全般の判定用。errors.Is で使う。
var ErrInvalidInput = errors.New("mintRequest: invalid input")

// Code identifies one field-level violation.
type Code string

const (
	CodeInvalidName       Code = "InvalidName"
	CodeInvalidSymbol     Code = "InvalidSymbol"
	CodeInvalidDecimals   Code = "InvalidDecimals"
	CodeInvalidSupply     Code = "InvalidSupply"
	CodeImageMissing      Code = "ImageMissing"
	CodeImageTooLarge     Code = "ImageTooLarge"
	CodeImageUnsupported  Code = "ImageUnsupported"
	CodeInvalidSocialLink Code = "InvalidSocialLink"
)

type Violation struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// ValidationError は全違反をまとめて返すためのエラーです。
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "mintRequest: invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Has reports whether a violation with the given code is present.
func (e *ValidationError) Has(code Code) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// AsValidationError は err から ValidationError を取り出します。
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
