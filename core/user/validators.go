package user

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/brighttutor/brightdesk/core"
)

var (
	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password should be at least %d characters", pwdMinLen)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your email"
)

// InitValidators registers the user validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(resetPasswordStructValidation, ResetPassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func resetPasswordStructValidation(sl validator.StructLevel) {
	rp, ok := sl.Current().Interface().(ResetPassword)
	if !ok || rp.Password == "" {
		return
	}
	switch checkPassword(rp.Password, "") {
	case CodeWeakPassword:
		sl.ReportError(rp.Password, "password", "Password", pwdMinLenTag, "")
	}
}

// checkPassword applies the password policy and returns the failing auth code, if any:
// - minLen: 6
// - not too similar to the email
func checkPassword(pwd, email string) string {
	if len([]rune(pwd)) < pwdMinLen {
		return CodeWeakPassword
	}
	if email != "" && similarity(strings.ToLower(pwd), email) >= pwdMaxSim {
		return CodePasswordTooSimilar
	}
	return ""
}

// similarity compares pwd with the whole email and with its local part.
func similarity(pwd, email string) float64 {
	ratio := func(attr string) float64 {
		return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
	}
	max := ratio(email)
	if i := strings.LastIndex(email, "@"); i > 0 {
		if r := ratio(email[:i]); r > max {
			max = r
		}
	}
	return max
}
