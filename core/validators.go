package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// MessageFunc returns the localized text of a message key.
type MessageFunc func(key string) string

var (
	// custom validation tags & message keys
	acceptedTag = "accepted"
	acceptedKey = "validation.accepted"

	requiredTag = "required"
	requiredKey = "validation.required"

	emailTag = "email"
	emailKey = "validation.email"

	eqFieldTag = "eqfield"
	eqFieldKey = "validation.eqfield"
)

// InitValidators instantiates the validator for use with the given translator.
// It is called once per supported language; texts resolves message keys in that language.
func InitValidators(validate *validator.Validate, translator ut.Translator, texts MessageFunc) {
	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(acceptedTag, acceptedValidation)
	RegisterCustomTranslation(validate, translator, acceptedTag, texts(acceptedKey), true)

	RegisterCustomTranslation(validate, translator, requiredTag, texts(requiredKey), true)
	RegisterCustomTranslation(validate, translator, emailTag, texts(emailKey), true)
	RegisterCustomTranslation(validate, translator, eqFieldTag, texts(eqFieldKey), true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// acceptedValidation requires a checked box.
func acceptedValidation(fl validator.FieldLevel) bool {
	return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
}
