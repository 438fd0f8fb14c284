package respond

import "regexp"

// redaction masks one kind of credential. The first capture group is kept.
type redaction struct {
	re   *regexp.Regexp
	keep string
}

var redactions = []redaction{
	{re: regexp.MustCompile(`(?i)(apikey=)[^&\s"]+`), keep: "${1}****"},
	{re: regexp.MustCompile(`(?i)(x-api-key:\s*)\S+`), keep: "${1}****"},
	{re: regexp.MustCompile(`(?i)(authorization:\s*bearer\s+)\S+`), keep: "${1}****"},
	// URL form DSN, user:password@host
	{re: regexp.MustCompile(`(://[^:/\s]+:)[^@\s]+@`), keep: "${1}****@"},
	// key/value form DSN, password=secret
	{re: regexp.MustCompile(`(?i)(\bpassword=)\S+`), keep: "${1}****"},
}

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks NewsAPI keys, bearer tokens and database passwords in msg.
func SanitizeString(msg string) string {
	for _, r := range redactions {
		msg = r.re.ReplaceAllString(msg, r.keep)
	}
	return msg
}
