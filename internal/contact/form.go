package contact

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

type Form struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

// FieldErrors maps a form field to the first problem found with it.
type FieldErrors map[string]string

func (e FieldErrors) Empty() bool { return len(e) == 0 }

type rule struct {
	field    string
	label    string
	minLen   int
	value    func(Form) string
	validate func(string) string
}

var rules = []rule{
	{field: "fullName", label: "Full name", minLen: 3, value: func(f Form) string { return f.FullName }},
	{field: "email", label: "Email", value: func(f Form) string { return f.Email }, validate: validateEmail},
	{field: "subject", label: "Subject", minLen: 3, value: func(f Form) string { return f.Subject }},
	{field: "message", label: "Message", minLen: 10, value: func(f Form) string { return f.Message }},
}

// Normalize trims surrounding whitespace from every field.
func (f Form) Normalize() Form {
	return Form{
		FullName: strings.TrimSpace(f.FullName),
		Email:    strings.TrimSpace(f.Email),
		Subject:  strings.TrimSpace(f.Subject),
		Message:  strings.TrimSpace(f.Message),
	}
}

func Validate(f Form) FieldErrors {
	f = f.Normalize()
	errs := FieldErrors{}

	for _, r := range rules {
		v := r.value(f)
		switch {
		case v == "":
			errs[r.field] = r.label + " is required."
		case r.minLen > 0 && utf8.RuneCountInString(v) < r.minLen:
			errs[r.field] = fmt.Sprintf("%s must be at least %d characters.", r.label, r.minLen)
		case r.validate != nil:
			if msg := r.validate(v); msg != "" {
				errs[r.field] = msg
			}
		}
	}
	return errs
}

func validateEmail(v string) string {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || !strings.Contains(v[strings.LastIndex(v, "@")+1:], ".") {
		return "Please enter a valid email address."
	}
	return ""
}
