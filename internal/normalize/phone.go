// internal/normalize/phone.go
package normalize

import "strings"

// NormalizePhone converts provider phone formats to E.164-ish form.
// JID-style routing suffixes ("15551234567@s.whatsapp.net") are stripped; a
// bare 10-digit number is assumed NANP and gets "+1"; anything else just
// gains a leading "+".
func NormalizePhone(raw string) string {
	s := raw
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "+") {
		return s
	}
	if len(s) == 10 && allDigits(s) {
		return "+1" + s
	}
	return "+" + strings.TrimLeft(s, "+")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
