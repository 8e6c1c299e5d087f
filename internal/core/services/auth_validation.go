package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

const (
	PasswordMinLen = 6
	PasswordMaxLen = 100
	NameMinLen     = 2
	NameMaxLen     = 50
)

func ValidateLogin(input ports.LoginInput) error {
	v := domain.NewValidationError()
	checkEmail(v, input.Email)
	switch n := utf8.RuneCountInString(input.Password); {
	case n == 0:
		v.Add("password", "password is required")
	case n < PasswordMinLen:
		v.Add("password", fmt.Sprintf("must be at least %d characters", PasswordMinLen))
	}
	return v.Err()
}

func ValidateRegister(input ports.RegisterInput) error {
	v := domain.NewValidationError()
	checkLength(v, "name", strings.TrimSpace(input.Name), NameMinLen, NameMaxLen)
	checkEmail(v, input.Email)
	switch n := utf8.RuneCountInString(input.Password); {
	case n == 0:
		v.Add("password", "password is required")
	case n < PasswordMinLen:
		v.Add("password", fmt.Sprintf("must be at least %d characters", PasswordMinLen))
	case n > PasswordMaxLen:
		v.Add("password", fmt.Sprintf("must be at most %d characters", PasswordMaxLen))
	}
	switch {
	case input.ConfirmPassword == "":
		v.Add("confirm_password", "please confirm your password")
	case input.ConfirmPassword != input.Password:
		v.Add("confirm_password", "passwords don't match")
	}
	return v.Err()
}

func checkEmail(v *domain.ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		v.Add("email", "email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.Add("email", "invalid email format")
	}
}
