package i18n

import (
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	"github.com/go-playground/locales/zh_Hant_TW"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	zh_tw_translations "github.com/go-playground/validator/v10/translations/zh_tw"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
)

var localeNames = map[Code]string{
	English:            "en",
	SimplifiedChinese:  "zh",
	TraditionalChinese: "zh_Hant_TW",
}

// Translators holds one validation message translator per supported language.
type Translators struct {
	uni    *ut.UniversalTranslator
	byCode map[Code]ut.Translator
}

// NewTranslators registers validator's default messages for every supported language,
// then overrides the common ones with the dictionary's `validation.*` texts.
func NewTranslators(validate *validator.Validate, dict *Dictionary) (*Translators, error) {
	_en := en.New()
	uni := ut.New(_en, _en, zh.New(), zh_Hant_TW.New())

	trans := &Translators{uni: uni, byCode: make(map[Code]ut.Translator, len(Supported))}
	for _, lang := range Supported {
		translator, found := uni.GetTranslator(localeNames[lang])
		if !found {
			return nil, errors.Errorf("i18n: no locale for %q", lang)
		}

		var err error
		switch lang {
		case English:
			err = en_translations.RegisterDefaultTranslations(validate, translator)
		case SimplifiedChinese:
			err = zh_translations.RegisterDefaultTranslations(validate, translator)
		case TraditionalChinese:
			err = zh_tw_translations.RegisterDefaultTranslations(validate, translator)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "registering %s validation messages", lang)
		}

		core.InitValidators(validate, translator, dict.Texts(lang))
		trans.byCode[lang] = translator
	}
	return trans, nil
}

// Get returns the translator of lang, falling back to English.
func (t *Translators) Get(lang Code) ut.Translator {
	if translator, ok := t.byCode[lang]; ok {
		return translator
	}
	return t.byCode[English]
}

// Each calls fn for every supported language.
func (t *Translators) Each(fn func(lang Code, translator ut.Translator)) {
	for _, lang := range Supported {
		fn(lang, t.byCode[lang])
	}
}
