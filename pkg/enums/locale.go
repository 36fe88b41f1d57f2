package enums

// Locale selects the language for user-facing notification text.
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"
)

// String implements fmt.Stringer.
func (l Locale) String() string {
	return string(l)
}

// IsValid reports whether the value is a known Locale.
func (l Locale) IsValid() bool {
	return l == LocaleArabic || l == LocaleEnglish
}

// NormalizeLocale maps unknown input to Arabic, the storefront default.
func NormalizeLocale(value string) Locale {
	locale := Locale(value)
	if locale.IsValid() {
		return locale
	}
	return LocaleArabic
}
