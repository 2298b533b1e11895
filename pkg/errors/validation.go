package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node, edge and session ids accepted from outside the
// process. Dataset ids longer than this are rejected at the surface.
const maxIDLength = 256

// ValidateNodeID checks a node id received from a request or a command line.
// It rejects empty ids, overlong ids and ids with control characters.
// Whether the node exists is the engine's concern, not this function's.
func ValidateNodeID(id string) error {
	return validateID("node", id)
}

// ValidateSessionID checks a session id before it is used as a storage key
// or file name. On top of [ValidateNodeID]'s rules it rejects path
// separators and traversal sequences.
func ValidateSessionID(id string) error {
	if err := validateID("session", id); err != nil {
		return err
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || id == "." {
		return New(ErrCodeInvalidInput, "session id %q contains path characters", id)
	}
	return nil
}

func validateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains control characters", kind)
		}
	}
	return nil
}
