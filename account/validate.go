package account

import (
	"regexp"
	"strings"

	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(v *common.ValidationError, email string) {
	switch {
	case email == "":
		v.Add("email", "Please enter your email.")
	case !emailPattern.MatchString(email):
		v.Add("email", "Email is not in correct format.")
	}
}

func checkNewPassword(v *common.ValidationError, field, password, confirm string) {
	switch {
	case strings.TrimSpace(password) == "":
		v.Add(field, "Please enter your password.")
	case len(password) < MinPasswordLength:
		v.Add(field, "Password must be at least 6 characters.")
	}
	switch {
	case confirm == "":
		v.Add("confirmPassword", "Please confirm your password.")
	case confirm != password:
		v.Add("confirmPassword", "Passwords do not match.")
	}
}

func validateSignUp(in models.SignUpRequest) error {
	v := &common.ValidationError{}
	checkEmail(v, normalizeEmail(in.Email))
	checkNewPassword(v, "password", in.Password, in.ConfirmPassword)
	return v.OrNil()
}

func validateSignIn(in models.SignInRequest) error {
	v := &common.ValidationError{}
	checkEmail(v, normalizeEmail(in.Email))
	if strings.TrimSpace(in.Password) == "" {
		v.Add("password", "Please enter your password.")
	}
	return v.OrNil()
}

func validateProfile(in models.UpdateProfileRequest) error {
	v := &common.ValidationError{}
	if strings.TrimSpace(in.FullName) == "" {
		v.Add("fullName", "Please enter your full name.")
	}
	if strings.TrimSpace(in.Phone) == "" {
		v.Add("phone", "Please enter your phone number.")
	}
	return v.OrNil()
}
