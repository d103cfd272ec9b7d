package utils

import "strings"

// InternalUserID maps an identity provider subject ("google-oauth2|1234")
// to the internal id ("user_1234"). Subjects without a provider prefix are
// used whole.
func InternalUserID(subject string) string {
	subject = strings.TrimSpace(subject)
	if parts := strings.Split(subject, "|"); len(parts) > 1 {
		subject = parts[1]
	}
	if subject == "" {
		return ""
	}
	return "user_" + subject
}
