package checkout

import "testing"

func validContact() ContactInfo {
	return ContactInfo{
		Name:    "Ahmed Hassan",
		Phone:   "01012345678",
		Address: "12 El Tahrir Street, Giza",
	}
}

func TestValidateContactAccepts(t *testing.T) {
	cases := map[string]ContactInfo{
		"latin name":       validContact(),
		"arabic name":      {Name: "أحمد حسن", Phone: "01112345678", Address: "شارع التحرير ١٢ الجيزة"},
		"mixed name":       {Name: "Ahmed أحمد", Phone: "01212345678", Address: "12 El Tahrir St"},
		"secondary phones": {Name: "Mona", Phone: "01512345678", SecondaryPhones: []string{"01087654321"}, Address: "12345678"},
		"blank secondary":  {Name: "Mona", Phone: "01512345678", SecondaryPhones: []string{"", "  "}, Address: "12345678"},
	}
	for name, info := range cases {
		if violation := ValidateContact(info); violation != nil {
			t.Fatalf("%s: unexpected violation %+v", name, violation)
		}
	}
}

func TestValidateContactFirstViolationOnly(t *testing.T) {
	// Everything is wrong; only the name violation is reported.
	info := ContactInfo{Name: "123", Phone: "bad", Address: "x"}
	violation := ValidateContact(info)
	if violation == nil || violation.Field != "name" {
		t.Fatalf("expected name violation first, got %+v", violation)
	}

	info.Name = "Ahmed"
	violation = ValidateContact(info)
	if violation == nil || violation.Field != "phone" {
		t.Fatalf("expected phone violation second, got %+v", violation)
	}

	info.Phone = "01012345678"
	info.SecondaryPhones = []string{"0999"}
	violation = ValidateContact(info)
	if violation == nil || violation.Field != "secondaryPhones" {
		t.Fatalf("expected secondary phone violation third, got %+v", violation)
	}

	info.SecondaryPhones = nil
	violation = ValidateContact(info)
	if violation == nil || violation.Field != "address" {
		t.Fatalf("expected address violation last, got %+v", violation)
	}
}

func TestValidateContactPhonePrefixes(t *testing.T) {
	valid := []string{"01012345678", "01112345678", "01212345678", "01512345678"}
	for _, phone := range valid {
		info := validContact()
		info.Phone = phone
		if violation := ValidateContact(info); violation != nil {
			t.Fatalf("phone %s rejected: %+v", phone, violation)
		}
	}

	invalid := []string{"01312345678", "0101234567", "010123456789", "21012345678", "0101234567a"}
	for _, phone := range invalid {
		info := validContact()
		info.Phone = phone
		violation := ValidateContact(info)
		if violation == nil || violation.Field != "phone" {
			t.Fatalf("phone %s should be rejected", phone)
		}
	}
}

func TestValidateContactMessagesAreLocalized(t *testing.T) {
	violation := ValidateContact(ContactInfo{})
	if violation == nil {
		t.Fatalf("expected violation")
	}
	if violation.Message.AR == "" || violation.Message.EN == "" {
		t.Fatalf("violation must carry both languages: %+v", violation.Message)
	}
}
