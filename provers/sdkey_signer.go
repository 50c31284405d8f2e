//go:build !blst

package provers

import (
	"crypto/sha256"
)

// SdkeySigner signs UPS session messages under an SDKey. This build is the
// pure-Go default: a deterministic, non-cryptographic stand-in suitable for
// tests and local development, mirroring the "PureGoBLSBackend" role in
// bls_integration.go's backend-selection pattern. Build with -tags blst to
// link the real BLS12-381 backend in sdkey_signer_blst.go instead.
type SdkeySigner struct {
	secretKey []byte
}

// NewSdkeySigner derives a signer from secretKey. In this backend the key
// is only ever hashed together with the message, never used as a real
// scalar; the error return exists only to keep the constructor signature
// identical to the blst-backed build.
func NewSdkeySigner(secretKey []byte) (*SdkeySigner, error) {
	return &SdkeySigner{secretKey: secretKey}, nil
}

// Name identifies the active backend.
func (s *SdkeySigner) Name() string { return "sdkey-stub" }

// Sign returns a deterministic 32-byte digest standing in for a signature.
func (s *SdkeySigner) Sign(message []byte) ([]byte, error) {
	d := sha256.New()
	d.Write(s.secretKey)
	d.Write(message)
	sum := d.Sum(nil)
	return sum, nil
}

// Verify recomputes Sign and compares, since this backend has no real
// public/private key asymmetry.
func (s *SdkeySigner) Verify(message, sig []byte) bool {
	want, err := s.Sign(message)
	if err != nil {
		return false
	}
	if len(want) != len(sig) {
		return false
	}
	for i := range want {
		if want[i] != sig[i] {
			return false
		}
	}
	return true
}
