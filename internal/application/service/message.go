package service

import "strings"

var stackMarkers = []string{"Stacktrace:", "goroutine ", "\n\t"}

// UserMessage trims low-level diagnostic noise from an error so it can be shown
// to people who only want to know what went wrong.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range stackMarkers {
		if i := strings.Index(msg, marker); i >= 0 {
			msg = msg[:i]
		}
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "unexpected error"
	}
	return msg
}

// HasStackTrace reports whether the raw error text carries trace detail that
// UserMessage would hide.
func HasStackTrace(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range stackMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
