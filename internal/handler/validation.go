package handler

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// FieldError is one entry of a 400 {"errors": [...]} response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// normalize trims the identity fields so the length rules see the same
// value the account is stored with.
func (r *registerReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

// Validate checks the registration body.  Passwords are capped at 72 bytes
// because bcrypt ignores anything beyond that.
func (r registerReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
	)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// fieldErrors flattens ozzo validation errors into a stable, sorted list.
// ok is false when err is not a field validation failure.
func fieldErrors(err error) ([]FieldError, bool) {
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return nil, false
	}
	out := make([]FieldError, 0, len(ve))
	for field, fe := range ve {
		out = append(out, FieldError{Field: field, Message: fe.Error()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, true
}
