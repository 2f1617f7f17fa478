package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// ResolveCountry maps a phone number in international format to its
// lowercase ISO 3166-1 country code. Pure; identical input always yields
// the identical result.
func ResolveCountry(phoneNumber string) (string, error) {
	num, err := phonenumbers.Parse(phoneNumber, "")
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPhoneNumber, phoneNumber, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, phoneNumber)
	}

	region := phonenumbers.GetRegionCodeForNumber(num)
	if region == "" || region == "ZZ" {
		return "", fmt.Errorf("%w: no region for %q", ErrInvalidPhoneNumber, phoneNumber)
	}

	return strings.ToLower(region), nil
}
