package agent

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxCommentSize bounds the comments the agent looks at.
const DefaultMaxCommentSize = 64 * 1024

var (
	ErrCommentTooLarge = errors.New("comment exceeds maximum allowed size")
	ErrInvalidUTF8     = errors.New("comment contains invalid UTF-8 sequences")
)

// Sanitize cleans comment text by enforcing a size limit, validating
// UTF-8 and stripping the control characters XML cannot carry.
// A limit of zero or less means DefaultMaxCommentSize.
func Sanitize(body string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxCommentSize
	}
	// Rejected rather than truncated, a cut comment could change meaning.
	if len(body) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrCommentTooLarge, len(body), limit)
	}
	if !utf8.ValidString(body) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range body {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for _, r := range body {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
