package extract

import "regexp"

// An NFe access key is 44 decimal digits: UF code, emission date, issuer CNPJ,
// model, series, receipt number, emission form, numeric code and check digit.
var keyPattern = regexp.MustCompile(`[0-9]{44}`)

// Key returns the first 44-digit access key found in a QR payload.
// The second return value reports whether a key was present.
func Key(payload string) (string, bool) {
	m := keyPattern.FindString(payload)
	if m == "" {
		return "", false
	}
	return m, true
}

// Valid reports whether s is exactly one well-formed access key.
func Valid(s string) bool {
	if len(s) != 44 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
