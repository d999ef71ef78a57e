package emailutil

import "strings"

// Normalize lowercases and trims an email address so comparisons
// against invitation records and admin lists are casing-insensitive.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ExtractDomain extracts the domain part of an email address,
// returning "" for anything that is not a single local@domain pair.
func ExtractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Redact keeps the first character of the local part and the full domain,
// for log lines that must not carry whole addresses.
func Redact(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***@" + email[at+1:]
}
