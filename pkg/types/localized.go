package types

import "github.com/seifpharma/storefront-gateway/pkg/enums"

// LocalizedMessage carries the Arabic and English renderings of a
// user-facing string. Upstream catalog payloads use the same two-field
// shape for product and category names.
type LocalizedMessage struct {
	AR string `json:"ar"`
	EN string `json:"en"`
}

// Pick returns the rendering for the given locale, falling back to the
// other language when the requested one is blank.
func (m LocalizedMessage) Pick(locale enums.Locale) string {
	if locale == enums.LocaleEnglish {
		if m.EN != "" {
			return m.EN
		}
		return m.AR
	}
	if m.AR != "" {
		return m.AR
	}
	return m.EN
}

func (m LocalizedMessage) IsZero() bool {
	return m.AR == "" && m.EN == ""
}
