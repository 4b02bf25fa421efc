// Package validate contains simple input validation helpers.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

// usernameRe enforces a conservative username pattern.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// Username validates a username string for length and allowed characters.
func Username(s string) error {
	if !usernameRe.MatchString(s) {
		return errors.New("invalid username")
	}
	return nil
}

// OriginalName validates a client-supplied file name kept as metadata.
// Stored names are generated, so this only guards the metadata column.
func OriginalName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 255 {
		return errors.New("invalid file name")
	}
	if strings.ContainsAny(s, "\x00\n\r") {
		return errors.New("invalid file name")
	}
	return nil
}
