package signature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/ocsp"

	"docsign/internal/model"
)

// ErrOCSPNotConfigured means no responder is configured and the signature
// carries no embedded OCSP response. The verifier reports this as a warning,
// not a failure: OCSP is best-effort when the infrastructure is absent, but
// its absence must be visible in the verdict.
var ErrOCSPNotConfigured = errors.New("no OCSP responder configured")

// OCSPChecker resolves the revocation status for a signature's certificate.
type OCSPChecker interface {
	Check(ctx context.Context, sig *model.QualifiedSignature) (model.OCSPStatus, error)
}

// HTTPOCSPChecker prefers the OCSP response captured at signing time and
// falls back to querying the configured responder by serial number.
type HTTPOCSPChecker struct {
	responderURL string
	httpClient   *http.Client
}

var _ OCSPChecker = (*HTTPOCSPChecker)(nil)

// NewHTTPOCSPChecker creates a checker for the given responder URL, which may
// be empty.
func NewHTTPOCSPChecker(responderURL string, timeout time.Duration) *HTTPOCSPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPOCSPChecker{
		responderURL: strings.TrimRight(responderURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Check parses the embedded DER response when present, otherwise queries the
// responder. Returns ErrOCSPNotConfigured when neither source is available.
func (c *HTTPOCSPChecker) Check(ctx context.Context, sig *model.QualifiedSignature) (model.OCSPStatus, error) {
	if len(sig.OCSPResponse) > 0 {
		resp, err := ocsp.ParseResponse(sig.OCSPResponse, nil)
		if err != nil {
			return model.OCSPStatusUnknown, fmt.Errorf("parse embedded OCSP response: %w", err)
		}
		return statusFromOCSP(resp.Status), nil
	}

	if c.responderURL == "" {
		return model.OCSPStatusUnknown, ErrOCSPNotConfigured
	}

	url := c.responderURL + "/" + sig.Certificate.SerialNumber
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.OCSPStatusUnknown, fmt.Errorf("create OCSP request: %w", err)
	}
	req.Header.Set("Accept", "application/ocsp-response")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.OCSPStatusUnknown, fmt.Errorf("query OCSP responder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.OCSPStatusUnknown, fmt.Errorf("OCSP responder returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.OCSPStatusUnknown, fmt.Errorf("read OCSP response: %w", err)
	}
	parsed, err := ocsp.ParseResponse(body, nil)
	if err != nil {
		return model.OCSPStatusUnknown, fmt.Errorf("parse OCSP response: %w", err)
	}
	return statusFromOCSP(parsed.Status), nil
}

func statusFromOCSP(status int) model.OCSPStatus {
	switch status {
	case ocsp.Good:
		return model.OCSPStatusGood
	case ocsp.Revoked:
		return model.OCSPStatusRevoked
	default:
		return model.OCSPStatusUnknown
	}
}
