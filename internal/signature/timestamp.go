package signature

import (
	"errors"
	"fmt"
	"time"

	"github.com/digitorus/timestamp"
)

// TimestampValidator validates an RFC 3161 timestamp token and returns the
// attested signing time. The full ASN.1/TSA validation is delegated to the
// crypto library; the verifier only folds the result into the verdict.
type TimestampValidator interface {
	Validate(token []byte) (time.Time, error)
}

// RFC3161Validator parses tokens with the digitorus timestamp library.
type RFC3161Validator struct{}

var _ TimestampValidator = RFC3161Validator{}

// Validate accepts either a full TimeStampResp or a bare TimeStampToken.
func (RFC3161Validator) Validate(token []byte) (time.Time, error) {
	ts, err := timestamp.ParseResponse(token)
	if err != nil {
		ts, err = timestamp.Parse(token)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp token: %w", err)
		}
	}
	if ts.Time.IsZero() {
		return time.Time{}, errors.New("timestamp token carries no signing time")
	}
	return ts.Time, nil
}
