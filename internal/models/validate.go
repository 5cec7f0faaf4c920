package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/authcore/internal/apperror"
)

// Password length bounds. The maximum is in bytes; bcrypt rejects longer input.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordLength
	})
	return v
}

type newUserFields struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,pwbytes"`
}

type emailField struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type passwordField struct {
	Password string `json:"password" validate:"required,min=6,pwbytes"`
}

// ValidateNewUser checks signup fields before any hashing happens.
// Name and email are expected to be already normalized.
func ValidateNewUser(u NewUser) error {
	return run(newUserFields{FullName: u.FullName, Email: u.Email, Password: u.Password})
}

// ValidateEmail checks a single address.
func ValidateEmail(email string) error {
	return run(emailField{Email: email})
}

// ValidatePassword checks a new plaintext password.
func ValidatePassword(password string) error {
	return run(passwordField{Password: password})
}

// ValidateUser checks a record right before it is persisted.
func ValidateUser(u *User) error {
	fields := map[string]string{}
	if strings.TrimSpace(u.FullName) == "" {
		fields["fullName"] = "is required"
	}
	if err := ValidateEmail(u.Email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if u.CredentialHash == "" {
		fields["credentialHash"] = "is required"
	}
	if !u.Status.Valid() {
		fields["status"] = "must be one of pending, active, inactive, banned, deleted"
	}
	if u.IsVerified && u.Status == StatusPending {
		fields["status"] = "verified users cannot be pending"
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func run(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(apperror.KindValidation, "validation failed", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = reason(fe)
	}
	return apperror.Validation(fields)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "pwbytes":
		return fmt.Sprintf("must be at most %d bytes", MaxPasswordLength)
	}
	return "is invalid"
}
