package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// The fleet operates in India; bare national numbers are parsed against IN
// first, with US as a fallback for tourist accounts.
var supportedRegions = []string{
	"IN",
	"US",
}

func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}
