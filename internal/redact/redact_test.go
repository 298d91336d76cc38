package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"typical key", "sk-1234567890abcdef", "sk-1***********cdef"},
		{"short key", "short", "***"},
		{"empty", "", "***"},
		{"exactly eight", "12345678", "12345678"},
		{"nine chars", "123456789", "1234*6789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskKey(tt.in)
			assert.Equal(t, tt.want, got)
			if len(tt.in) >= 8 {
				assert.Len(t, got, len(tt.in))
			}
		})
	}
}

func TestContainsSecret(t *testing.T) {
	assert.True(t, ContainsSecret("request failed: invalid key sk-abc123"))
	assert.True(t, ContainsSecret("header Authorization: Bearer xyz"))
	assert.False(t, ContainsSecret("file not found: contract.pdf"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t,
		"an internal error occurred while contacting the inference provider",
		Sanitize("401 unauthorized: key sk-1234 rejected"))
	assert.Equal(t, "no pages processed", Sanitize("no pages processed"))
}
