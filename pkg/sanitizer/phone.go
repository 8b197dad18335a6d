package sanitizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone renders phone in E.164. Numbers without a country code are
// read as belonging to defaultRegion. An empty input yields "" and no error.
// Only the length is checked against the region's numbering plan; whether the
// number is assigned is not.
func NormalizePhone(phone, defaultRegion string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(phone, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsPossibleNumber(parsed) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, phone)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
