package service

import (
	"errors"
	"fmt"
	"strings"
)

// Failure is a normalized failed remote call. Status is zero for
// transport failures. Message is the server-supplied human-readable
// text, if the response carried one.
type Failure struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Op)
	if f.Status != 0 {
		fmt.Fprintf(&b, ": status %d", f.Status)
	}
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	} else if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// Unauthorized reports whether the service rejected the credential.
func (f *Failure) Unauthorized() bool {
	return f.Status == 401 || f.Status == 403
}

// DisplayMessage returns the server-supplied message carried by err, or
// fallback when there is none.
func DisplayMessage(err error, fallback string) string {
	var f *Failure
	if errors.As(err, &f) && strings.TrimSpace(f.Message) != "" {
		return f.Message
	}
	return fallback
}
