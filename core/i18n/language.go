package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Code is a supported UI language.
type Code string

const (
	English            Code = "en"
	SimplifiedChinese  Code = "zh-CN"
	TraditionalChinese Code = "zh-TW"

	// DefaultCode is used when nothing was persisted nor negotiated.
	DefaultCode = SimplifiedChinese
)

var (
	// Supported lists the languages in switcher order.
	Supported = []Code{SimplifiedChinese, TraditionalChinese, English}

	labels = map[Code]string{
		English:            "English",
		SimplifiedChinese:  "简体",
		TraditionalChinese: "繁體",
	}

	supportedTags = []language.Tag{
		language.MustParse(string(SimplifiedChinese)),
		language.MustParse(string(TraditionalChinese)),
		language.MustParse(string(English)),
	}
	matcher = language.NewMatcher(supportedTags)
)

// Valid reports whether c is one of the supported codes.
func (c Code) Valid() bool {
	_, ok := labels[c]
	return ok
}

// Label is the language's name written in that language.
func (c Code) Label() string { return labels[c] }

func (c Code) String() string { return string(c) }

// Parse matches any BCP 47 tag (e.g. "zh-Hant-HK", "en_GB") to a supported code.
func Parse(s string) (Code, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	if s == "" {
		return "", false
	}
	for _, c := range Supported {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	return Match(tag)
}

// Match picks the best supported code for the given tags, in preference order.
func Match(tags ...language.Tag) (Code, bool) {
	if len(tags) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return Supported[idx], true
}

// MatchAcceptLanguage negotiates an Accept-Language header value.
func MatchAcceptLanguage(header string) (Code, bool) {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return "", false
	}
	return Match(tags...)
}

// Option is a language switcher entry.
type Option struct {
	Code   Code
	Label  string
	Active bool
}

// BuildOptions returns the switcher entries with the active one flagged.
func BuildOptions(active Code) []Option {
	options := make([]Option, 0, len(Supported))
	for _, c := range Supported {
		options = append(options, Option{Code: c, Label: c.Label(), Active: c == active})
	}
	return options
}
