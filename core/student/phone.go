package student

import "strings"

// NormalizePhone converts a PH mobile number to E.164 (+63...).
// Inputs like "0917 123 4567", "9171234567" or "639171234567" all normalize
// to "+639171234567". Unrecognized formats are returned digit-stripped as-is.
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(value) {
		if (ch >= '0' && ch <= '9') || ch == '+' {
			b.WriteRune(ch)
		}
	}
	s := b.String()
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "+63"):
		return s
	case strings.HasPrefix(s, "63"):
		return "+" + s
	case strings.HasPrefix(s, "09") && len(s) >= 11:
		return "+63" + s[1:]
	case strings.HasPrefix(s, "9") && len(s) >= 10:
		return "+63" + s
	}
	return s // might already be international
}
