package checkout

import (
	"regexp"
	"strings"

	"github.com/seifpharma/storefront-gateway/pkg/types"
)

// Contact field patterns. These are deliberately hand-rolled rather
// than struct tags: violations must be reported one at a time in a
// fixed order (name, phone, secondary phones, address), and the
// patterns are shared verbatim with the storefront's other clients.
var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\x{0600}-\x{06FF}\s]+$`)
	phonePattern = regexp.MustCompile(`^01[0125][0-9]{8}$`)
)

const minAddressLength = 8

// Violation is the first contact-info problem found, with a message in
// both languages.
type Violation struct {
	Field   string
	Message types.LocalizedMessage
}

var (
	violationName = types.LocalizedMessage{
		AR: "برجاء إدخال اسم صحيح",
		EN: "Please enter a valid name",
	}
	violationPhone = types.LocalizedMessage{
		AR: "برجاء إدخال رقم هاتف صحيح",
		EN: "Please enter a valid phone number",
	}
	violationSecondaryPhone = types.LocalizedMessage{
		AR: "برجاء إدخال رقم هاتف إضافي صحيح",
		EN: "Please enter a valid secondary phone number",
	}
	violationAddress = types.LocalizedMessage{
		AR: "برجاء إدخال عنوان لا يقل عن ٨ أحرف",
		EN: "Please enter an address of at least 8 characters",
	}
)

// ValidateContact checks the contact block and returns the first
// violation in field order, nil when everything passes. Later fields
// are not inspected once an earlier one fails.
func ValidateContact(info ContactInfo) *Violation {
	name := strings.TrimSpace(info.Name)
	if name == "" || !namePattern.MatchString(name) {
		return &Violation{Field: "name", Message: violationName}
	}

	if !phonePattern.MatchString(strings.TrimSpace(info.Phone)) {
		return &Violation{Field: "phone", Message: violationPhone}
	}

	for _, phone := range info.SecondaryPhones {
		trimmed := strings.TrimSpace(phone)
		if trimmed == "" {
			continue
		}
		if !phonePattern.MatchString(trimmed) {
			return &Violation{Field: "secondaryPhones", Message: violationSecondaryPhone}
		}
	}

	if len(strings.TrimSpace(info.Address)) < minAddressLength {
		return &Violation{Field: "address", Message: violationAddress}
	}
	return nil
}
