package enums

import "fmt"

// PromoState tracks the lifecycle of a promo-code application.
// Invalid is a transient display state; the persisted state falls back
// to Unapplied once the failure has been surfaced.
type PromoState string

const (
	PromoStateUnapplied PromoState = "unapplied"
	PromoStateApplying  PromoState = "applying"
	PromoStateApplied   PromoState = "applied"
	PromoStateInvalid   PromoState = "invalid"
)

var validPromoStates = []PromoState{
	PromoStateUnapplied,
	PromoStateApplying,
	PromoStateApplied,
	PromoStateInvalid,
}

// String implements fmt.Stringer.
func (p PromoState) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromoState.
func (p PromoState) IsValid() bool {
	for _, candidate := range validPromoStates {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromoState converts raw input into a PromoState.
func ParsePromoState(value string) (PromoState, error) {
	for _, candidate := range validPromoStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promo state %q", value)
}
