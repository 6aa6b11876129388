package consume

import (
	"strings"
	"unicode/utf8"
)

// Verdict is the classification outcome for one delivery payload.
type Verdict int

const (
	// VerdictAccept means the payload is valid single-line UTF-8 text and
	// can be emitted as one output line.
	VerdictAccept Verdict = iota
	// VerdictRejectNewline means the payload decoded but contains a newline,
	// which would corrupt the one-line-per-message output contract.
	VerdictRejectNewline
	// VerdictRejectParseError means the payload is not valid UTF-8.
	VerdictRejectParseError
)

// Classify decides whether a payload is acceptable for emission. It is a
// pure function of the payload bytes; text is empty on a parse error.
func Classify(payload []byte) (text string, v Verdict) {
	if !utf8.Valid(payload) {
		return "", VerdictRejectParseError
	}

	text = string(payload)
	if strings.ContainsRune(text, '\n') {
		return text, VerdictRejectNewline
	}

	return text, VerdictAccept
}
