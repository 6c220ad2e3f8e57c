package security

import "strings"

// MaskMsisdn keeps the last four digits of a subscriber number for log correlation
func MaskMsisdn(msisdn string) string {
	if len(msisdn) <= 4 {
		return strings.Repeat("*", len(msisdn))
	}
	return strings.Repeat("*", len(msisdn)-4) + msisdn[len(msisdn)-4:]
}
