package signature

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docsign/internal/config"
	"docsign/internal/model"
)

// requiredKeyUsages must all be present on a qualified signing certificate.
var requiredKeyUsages = []string{"digitalSignature", "nonRepudiation"}

// Verifier runs the fixed sequence of signature checks and aggregates them
// into a VerificationVerdict. It is pure: loading the signature and persisting
// the verdict are the caller's concern.
//
// All checks run even when an earlier one fails, so a verdict always carries
// the complete error report rather than just the first problem.
type Verifier struct {
	cfg  config.VerificationConfig
	ocsp OCSPChecker
	tsa  TimestampValidator
	now  func() time.Time
}

// VerifierOption customizes a Verifier.
type VerifierOption func(*Verifier)

// WithClock overrides the time source; for tests.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier builds a verifier with the given policy and check dependencies.
func NewVerifier(cfg config.VerificationConfig, ocsp OCSPChecker, tsa TimestampValidator, opts ...VerifierOption) *Verifier {
	v := &Verifier{cfg: cfg, ocsp: ocsp, tsa: tsa, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs all five checks against the signature record.
//
// Aggregation: IsValid = certificate AND OCSP AND chain. Timestamp and
// temporal-sanity findings are collected in Errors but do not gate IsValid;
// TSA infrastructure is optional in this deployment and that policy is
// deliberate.
func (v *Verifier) Verify(ctx context.Context, sig *model.QualifiedSignature) model.VerificationVerdict {
	now := v.now().UTC()
	verdict := model.VerificationVerdict{
		VerifiedAt: now,
		Errors:     []string{},
	}

	certValid := v.checkCertificate(sig, now, &verdict)
	ocspValid := v.checkOCSP(ctx, sig, &verdict)
	chainValid := v.checkChain(sig, &verdict)
	v.checkTimestamp(sig, &verdict)
	v.checkTemporal(sig, &verdict)

	verdict.CertificateStatus = checkStatus(certValid)
	verdict.ChainStatus = checkStatus(chainValid)
	verdict.IsValid = certValid && ocspValid && chainValid
	return verdict
}

// checkCertificate validates the validity window, the signature algorithm
// allow-list, and the required key usages.
func (v *Verifier) checkCertificate(sig *model.QualifiedSignature, now time.Time, verdict *model.VerificationVerdict) bool {
	cert := sig.Certificate
	valid := true

	if now.Before(cert.ValidFrom) {
		verdict.Errors = append(verdict.Errors,
			fmt.Sprintf("certificate not yet valid: validity starts %s", cert.ValidFrom.Format(time.RFC3339)))
		valid = false
	}
	if now.After(cert.ValidTo) {
		verdict.Errors = append(verdict.Errors,
			fmt.Sprintf("certificate expired on %s", cert.ValidTo.Format(time.RFC3339)))
		valid = false
	}

	if !v.algorithmAllowed(cert.Algorithm) {
		verdict.Errors = append(verdict.Errors,
			fmt.Sprintf("signature algorithm %q is not allowed", cert.Algorithm))
		valid = false
	}

	for _, usage := range requiredKeyUsages {
		if !cert.HasKeyUsage(usage) {
			verdict.Errors = append(verdict.Errors,
				fmt.Sprintf("certificate is missing required key usage %q", usage))
			valid = false
		}
	}
	return valid
}

func (v *Verifier) algorithmAllowed(algorithm string) bool {
	for _, a := range v.cfg.AllowedAlgorithms {
		if a == algorithm {
			return true
		}
	}
	return false
}

// checkOCSP resolves revocation status. A missing responder is a warning, not
// a failure, but it must be visible in the verdict.
func (v *Verifier) checkOCSP(ctx context.Context, sig *model.QualifiedSignature, verdict *model.VerificationVerdict) bool {
	status, err := v.ocsp.Check(ctx, sig)
	verdict.OCSPStatus = status

	if errors.Is(err, ErrOCSPNotConfigured) {
		verdict.Errors = append(verdict.Errors,
			"warning: OCSP check skipped, no responder configured")
		return true
	}
	if err != nil {
		verdict.Errors = append(verdict.Errors, fmt.Sprintf("OCSP check failed: %v", err))
		return false
	}
	if status == model.OCSPStatusRevoked {
		verdict.Errors = append(verdict.Errors, "certificate has been revoked")
		return false
	}
	if status == model.OCSPStatusUnknown {
		verdict.Errors = append(verdict.Errors, "OCSP responder reported unknown certificate status")
		return false
	}
	return true
}

// checkChain requires the issuer to appear in the trusted-issuer allow-list.
// An unknown issuer gates IsValid. When no trusted issuers are configured at
// all, the check is skipped with a warning, mirroring the OCSP policy.
func (v *Verifier) checkChain(sig *model.QualifiedSignature, verdict *model.VerificationVerdict) bool {
	if len(v.cfg.TrustedIssuers) == 0 {
		verdict.Errors = append(verdict.Errors,
			"warning: chain-of-trust check skipped, no trusted issuers configured")
		return true
	}
	for _, issuer := range v.cfg.TrustedIssuers {
		if issuer == sig.Certificate.Issuer {
			return true
		}
	}
	verdict.Errors = append(verdict.Errors,
		fmt.Sprintf("unknown certificate issuer: %s", sig.Certificate.Issuer))
	return false
}

// checkTimestamp validates the RFC 3161 token when one is present. Findings
// are collected but do not gate IsValid.
func (v *Verifier) checkTimestamp(sig *model.QualifiedSignature, verdict *model.VerificationVerdict) {
	if len(sig.TimestampToken) == 0 {
		return
	}
	if _, err := v.tsa.Validate(sig.TimestampToken); err != nil {
		verdict.Errors = append(verdict.Errors, fmt.Sprintf("timestamp validation failed: %v", err))
	}
}

// checkTemporal flags signatures that predate their certificate's validity.
func (v *Verifier) checkTemporal(sig *model.QualifiedSignature, verdict *model.VerificationVerdict) {
	if sig.SignedAt == nil {
		return
	}
	if sig.SignedAt.Before(sig.Certificate.ValidFrom) {
		verdict.Errors = append(verdict.Errors, "signed before certificate validity")
	}
}

func checkStatus(valid bool) model.CheckStatus {
	if valid {
		return model.CheckStatusValid
	}
	return model.CheckStatusInvalid
}
