package auth

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/DhruvilJayani/coursecompass/pkg/crypto"
)

// Input rules shared with the client forms.
const (
	MinNameLength     = 2
	MinPasswordLength = 6
	MaxPasswordBytes  = crypto.MaxPasswordBytes
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// RegisterInput carries a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	PhoneNo  string
}

func (in RegisterInput) normalize() RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNo = strings.TrimSpace(in.PhoneNo)
	return in
}

func (in RegisterInput) validate() *Error {
	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if in.PhoneNo == "" {
		missing = append(missing, "phoneNo")
	}
	if len(missing) > 0 {
		return &Error{Kind: KindValidation, Message: MsgMissingFields, Fields: missing, Missing: true}
	}

	var invalid []string
	if utf8.RuneCountInString(in.Name) < MinNameLength {
		invalid = append(invalid, "name")
	}
	if !validEmail(in.Email) {
		invalid = append(invalid, "email")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength || len(in.Password) > MaxPasswordBytes {
		invalid = append(invalid, "password")
	}
	if !phonePattern.MatchString(in.PhoneNo) {
		invalid = append(invalid, "phoneNo")
	}
	if len(invalid) > 0 {
		return &Error{Kind: KindValidation, Message: MsgInvalidInput, Fields: invalid}
	}
	return nil
}

func validateLogin(email, password string) *Error {
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &Error{Kind: KindValidation, Message: MsgMissingFields, Fields: missing, Missing: true}
	}
	if !validEmail(email) {
		return &Error{Kind: KindValidation, Message: MsgInvalidInput, Fields: []string{"email"}}
	}
	return nil
}

// validEmail accepts bare addresses only; display names and angle brackets are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}
