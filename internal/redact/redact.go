// Package redact keeps credential fragments out of logs and client-facing
// error messages.
package redact

import "strings"

// maskMinLen is the shortest key that still gets a partial mask; anything
// shorter is masked entirely so that first4+last4 cannot reconstruct it.
const maskMinLen = 8

// secretPrefixes are substrings that mark a message as potentially carrying a
// credential fragment.
var secretPrefixes = []string{"sk-", "Bearer "}

// MaskKey masks an API key for display: the first 4 and last 4 characters are
// kept and everything between is replaced with '*', preserving the original
// length. Keys shorter than 8 characters are masked entirely.
func MaskKey(key string) string {
	if len(key) < maskMinLen {
		return "***"
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-8+4:]
}

// ContainsSecret reports whether a message looks like it carries a credential
// fragment. The check is heuristic; false positives are acceptable since the
// full message stays in server-side logs.
func ContainsSecret(msg string) bool {
	for _, p := range secretPrefixes {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Sanitize replaces a message with a generic one when it may contain a
// credential fragment. Messages without secrets pass through unchanged.
func Sanitize(msg string) string {
	if ContainsSecret(msg) {
		return "an internal error occurred while contacting the inference provider"
	}
	return msg
}
