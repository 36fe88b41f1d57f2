package enums

import "fmt"

// CheckoutStep is one ordered stage of the checkout flow.
type CheckoutStep string

const (
	CheckoutStepLocation    CheckoutStep = "location"
	CheckoutStepContactInfo CheckoutStep = "contact_info"
	CheckoutStepPayment     CheckoutStep = "payment"
)

var orderedCheckoutSteps = []CheckoutStep{
	CheckoutStepLocation,
	CheckoutStepContactInfo,
	CheckoutStepPayment,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range orderedCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// Ordinal returns the 0-based position of the step, or -1 when unknown.
func (c CheckoutStep) Ordinal() int {
	for i, candidate := range orderedCheckoutSteps {
		if candidate == c {
			return i
		}
	}
	return -1
}

// Next returns the following step and false when already at the last one.
func (c CheckoutStep) Next() (CheckoutStep, bool) {
	i := c.Ordinal()
	if i < 0 || i >= len(orderedCheckoutSteps)-1 {
		return c, false
	}
	return orderedCheckoutSteps[i+1], true
}

// Prev returns the preceding step and false when already at the first one.
func (c CheckoutStep) Prev() (CheckoutStep, bool) {
	i := c.Ordinal()
	if i <= 0 {
		return c, false
	}
	return orderedCheckoutSteps[i-1], true
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range orderedCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
