package model

import "time"

// SignatureStatus tracks a qualified signature through its lifecycle:
// pending -> signature_in_progress -> signed -> verification_pending ->
// {verified | verification_failed}. expired and revoked are terminal states
// set by a separate revocation/expiry sweep.
type SignatureStatus string

const (
	SignatureStatusPending             SignatureStatus = "pending"
	SignatureStatusInProgress          SignatureStatus = "signature_in_progress"
	SignatureStatusSigned              SignatureStatus = "signed"
	SignatureStatusVerificationPending SignatureStatus = "verification_pending"
	SignatureStatusVerified            SignatureStatus = "verified"
	SignatureStatusVerificationFailed  SignatureStatus = "verification_failed"
	SignatureStatusExpired             SignatureStatus = "expired"
	SignatureStatusRevoked             SignatureStatus = "revoked"
)

// OCSPStatus is the revocation status reported by an OCSP responder.
type OCSPStatus string

const (
	OCSPStatusGood    OCSPStatus = "good"
	OCSPStatusRevoked OCSPStatus = "revoked"
	OCSPStatusUnknown OCSPStatus = "unknown"
)

// CheckStatus is the binary outcome of a certificate or chain check.
type CheckStatus string

const (
	CheckStatusValid   CheckStatus = "valid"
	CheckStatusInvalid CheckStatus = "invalid"
)

// SignatureCertificate is the certificate snapshot captured at signing time.
// It is immutable once the owning signature record is created.
type SignatureCertificate struct {
	Issuer       string    `json:"issuer"`
	Subject      string    `json:"subject"`
	SerialNumber string    `json:"serial_number"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidTo      time.Time `json:"valid_to"`
	Algorithm    string    `json:"algorithm"`
	KeyUsage     []string  `json:"key_usage"`
}

// HasKeyUsage reports whether the certificate declares the given key usage.
func (c SignatureCertificate) HasKeyUsage(usage string) bool {
	for _, u := range c.KeyUsage {
		if u == usage {
			return true
		}
	}
	return false
}

// VerificationVerdict is the persisted outcome of one verification run.
// Each run replaces the previous verdict in full; verdicts are never merged.
// IsValid is true iff the certificate, OCSP, and chain checks all passed and
// the certificate had not expired as of VerifiedAt.
type VerificationVerdict struct {
	IsValid           bool        `json:"is_valid"`
	VerifiedAt        time.Time   `json:"verified_at"`
	OCSPStatus        OCSPStatus  `json:"ocsp_status"`
	CertificateStatus CheckStatus `json:"certificate_status"`
	ChainStatus       CheckStatus `json:"chain_status"`
	Errors            []string    `json:"errors"`
}

// QualifiedSignature is a signer's completed signing action on a contract.
// Only the verification service mutates it, and only by writing
// VerificationResult and moving Status to verified or verification_failed.
type QualifiedSignature struct {
	ID                 string               `json:"id"`
	ContractID         string               `json:"contract_id"`
	SignerEmail        string               `json:"signer_email"`
	SignerName         string               `json:"signer_name"`
	Status             SignatureStatus      `json:"status"`
	Certificate        SignatureCertificate `json:"certificate"`
	SignatureValue     []byte               `json:"-"`
	SignedAt           *time.Time           `json:"signed_at,omitempty"`
	OCSPResponse       []byte               `json:"-"`
	TimestampToken     []byte               `json:"-"`
	VerificationResult *VerificationVerdict `json:"verification_result,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}
