package textnorm

import (
	"regexp"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "IN"

var phoneStrip = regexp.MustCompile(`[^+0-9]`)

// NormalizePhone returns raw in E.164 form, or "" when it is not a valid number.
func NormalizePhone(raw string) string {
	return NormalizePhoneRegion(raw, DefaultRegion)
}

func NormalizePhoneRegion(raw, region string) string {
	if raw == "" {
		return ""
	}
	cleaned := phoneStrip.ReplaceAllString(raw, "")
	if cleaned == "" {
		return ""
	}
	num, err := phonenumbers.Parse(cleaned, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
