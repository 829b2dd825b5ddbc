package store

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Names that stand for "no document yet". They are never persisted.
const (
	DefaultName  = "default"
	UntitledName = "Untitled"
)

// MaxNameLength bounds names accepted by Create.
const MaxNameLength = 30

// Document is a persisted sheet. Content is the percent-encoded editor state
// or, when PasswordProtected is set, a sealed envelope of it.
type Document struct {
	Name              string    `json:"name"`
	Created           time.Time `json:"created"`
	Modified          time.Time `json:"modified"`
	Content           string    `json:"content"`
	BillType          int       `json:"billType"`
	PasswordProtected bool      `json:"passwordProtected"`
}

// IsReserved reports whether name is one of the unsaved-document sentinels.
func IsReserved(name string) bool {
	return name == DefaultName || name == UntitledName
}

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9- ]*$`)

// ValidateName checks a user supplied document name and returns it trimmed.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", &Error{Op: "validate", Err: ErrInvalidName}
	case IsReserved(name):
		return "", &Error{Op: "validate", Name: name, Err: ErrInvalidName}
	case utf8.RuneCountInString(name) > MaxNameLength:
		return "", &Error{Op: "validate", Name: name, Err: ErrInvalidName}
	case !namePattern.MatchString(name):
		return "", &Error{Op: "validate", Name: name, Err: ErrInvalidName}
	}
	return name, nil
}

// encodeURIComponent leaves these unescaped; url.QueryEscape does not.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeContent percent-encodes serialized editor state the same way
// JavaScript's encodeURIComponent does.
func EncodeContent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// DecodeContent reverses EncodeContent. A literal '+' is kept as is.
func DecodeContent(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", &Error{Op: "decode", Err: ErrInvalidRecord}
	}
	return out, nil
}
