package password

import (
	"regexp"

	"github.com/dmitrijs2005/gophauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MsgTooShort    = "Passwords must be at least 6 characters."
	MsgNeedsDigit  = "Passwords must have at least one digit ('0'-'9')."
	MsgNeedsLower  = "Passwords must have at least one lowercase ('a'-'z')."
	minPasswordLen = 6
)

type requirement struct {
	description string
	rules       []validation.Rule
}

// Policy checks a candidate password against every requirement and reports
// all that fail, not just the first.
type Policy struct {
	requirements []requirement
}

// DefaultPolicy requires six characters with at least one digit and one
// lowercase letter.
func DefaultPolicy() *Policy {
	return &Policy{requirements: []requirement{
		{MsgTooShort, []validation.Rule{validation.Required, validation.RuneLength(minPasswordLen, 0)}},
		{MsgNeedsDigit, []validation.Rule{validation.Required, validation.Match(regexp.MustCompile(`[0-9]`))}},
		{MsgNeedsLower, []validation.Rule{validation.Required, validation.Match(regexp.MustCompile(`[a-z]`))}},
	}}
}

// Check returns a *common.ValidationError listing every failed requirement,
// or nil.
func (p *Policy) Check(plain string) error {
	var failed []string
	for _, r := range p.requirements {
		if err := validation.Validate(plain, r.rules...); err != nil {
			failed = append(failed, r.description)
		}
	}
	if len(failed) > 0 {
		return common.NewValidationError(failed...)
	}
	return nil
}
