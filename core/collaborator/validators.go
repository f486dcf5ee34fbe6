package collaborator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/epicevents/crm/core"
)

var (
	roleTag  = "role"
	roleText = fmt.Sprintf("invalid role, must be one of: %s", strings.Join(AllRoles, ", "))

	// password policy
	pwdMaxLen = 72 // bcrypt limit, in bytes

	errPwdEmpty    = errors.New("password must not be empty")
	errPwdTooLong  = errors.Errorf("password exceeds bcrypt maximum length of %d characters", pwdMaxLen)
	pwdMinLen      = 8
	errPwdMinLen   = errors.Errorf("password must contain at least %d characters", pwdMinLen)
	errPwdNoSpace  = errors.New("password must not contain whitespace")
	errPwdAllNum   = errors.New("password cannot be entirely numeric")
	pwdMaxSim      = .7
	errPwdTooSimil = errors.New("password cannot be similar to the full name or email")
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, roleTag, roleText)
}

// roleValidation checks that the role is one of AllRoles
func roleValidation(fl validator.FieldLevel) bool {
	return HasRole(fl.Field().String(), AllRoles)
}

// validatePassword applies the password policy:
// - not empty
// - maxLen: 72 bytes
// and when strict:
// - minLen: 8
// - no whitespace
// - not all numeric
// - no full name / email similarity
func validatePassword(pwd, fullName, email string, strict bool) error {
	if strings.TrimSpace(pwd) == "" {
		return errPwdEmpty
	}
	if len(pwd) > pwdMaxLen {
		return errPwdTooLong
	}
	if !strict {
		return nil
	}

	if len([]rune(pwd)) < pwdMinLen {
		return errPwdMinLen
	}
	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return errPwdNoSpace
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len([]rune(pwd)) {
		return errPwdAllNum
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		pass, attr = strings.ToLower(pass), strings.ToLower(attr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	if getRatio(pwd, fullName) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		return errPwdTooSimil
	}
	return nil
}
