package user

import (
	"strings"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
)

var (
	// password policy
	pwdMinLen    = 8
	pwdMinLenTag = "pwdminlen"
	pwdMinLenKey = "validation.pwdminlen"

	pwdMaxSim     = .7
	pwdAttrSimTag = "pwdtoosim"
	pwdAttrSimKey = "validation.pwdtoosim"

	// bcrypt only reads 72 bytes
	pwdMaxBytes = 72

	maxTag = "max"
	maxKey = "validation.max"

	// registration choices
	departmentTag = "department"
	titleTag      = "title"
	choiceKey     = "validation.choice"
)

// InitValidators registers the user validators and their messages in every supported language.
func InitValidators(validate *validator.Validate, translators *i18n.Translators, dict *i18n.Dictionary) {
	validate.RegisterStructValidation(userStructValidation, NewUser{})
	validate.RegisterStructValidation(resetStructValidation, PasswordReset{})
	_ = validate.RegisterValidation(departmentTag, choiceValidation(Departments))
	_ = validate.RegisterValidation(titleTag, choiceValidation(Titles))

	translators.Each(func(lang i18n.Code, translator ut.Translator) {
		core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, dict.Lookup(lang, pwdMinLenKey), true)
		core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, dict.Lookup(lang, pwdAttrSimKey), true)
		core.RegisterCustomTranslation(validate, translator, maxTag, dict.Lookup(lang, maxKey), true)
		core.RegisterCustomTranslation(validate, translator, departmentTag, dict.Lookup(lang, choiceKey), true)
		core.RegisterCustomTranslation(validate, translator, titleTag, dict.Lookup(lang, choiceKey), true)
	})
}

// choiceValidation accepts only the values of choices.
func choiceValidation(choices []Choice) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, c := range choices {
			if c.Value == val {
				return true
			}
		}
		return false
	}
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if usr, ok := sl.Current().Interface().(NewUser); ok && usr.Password != "" {
		validatePassword(usr.Password, usr.Name, usr.Email, sl)
	}
}

// resetStructValidation does struct level validation on PasswordReset.
func resetStructValidation(sl validator.StructLevel) {
	if pr, ok := sl.Current().Interface().(PasswordReset); ok && pr.Password != "" {
		validatePassword(pr.Password, pr.name, pr.Email, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - maxLen: 72 bytes
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if utf8.RuneCountInString(pwd) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	if len(pwd) > pwdMaxBytes {
		reportErr(maxTag)
		return
	}

	if tooSimilar(pwd, name) || tooSimilar(pwd, email) {
		reportErr(pwdAttrSimTag)
	}
}

func tooSimilar(pwd, usrAttr string) bool {
	if usrAttr == "" {
		return false
	}
	ratio := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(usrAttr, "")).QuickRatio()
	return ratio >= pwdMaxSim
}
