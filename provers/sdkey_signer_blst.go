//go:build blst

// Real BLS12-381 SDKey signer using the supranational/blst library, the
// MinPk scheme (public key in G1, signature in G2). Adapted from
// crypto/bls_blst_adapter.go's backend shape: same key/signature sizes and
// domain separation tag convention, repointed at SDKey session messages
// instead of consensus attestations.
//
// Build with: go build -tags blst
package provers

import (
	"errors"

	blst "github.com/supranational/blst/bindings/go"
)

var sdkeyDST = []byte("SDKEY_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

const (
	sdkeyPubkeySize = 48 // compressed G1
	sdkeySigSize    = 96 // compressed G2
	sdkeySecretSize = 32 // scalar field element
)

var (
	ErrSdkeyInvalidIKM       = errors.New("sdkey: IKM must be at least 32 bytes")
	ErrSdkeyKeyGenFailed     = errors.New("sdkey: key generation failed")
	ErrSdkeyInvalidSecretKey = errors.New("sdkey: invalid secret key bytes")
	ErrSdkeySignFailed       = errors.New("sdkey: signing failed")
	ErrSdkeyInvalidSignature = errors.New("sdkey: invalid signature bytes")
)

// SdkeySigner signs UPS session messages with a real BLS12-381 secret key.
type SdkeySigner struct {
	secretKey []byte
	publicKey []byte
}

// NewSdkeySigner derives a BLS key pair from secretKey material (at least
// 32 bytes of entropy) and returns a signer bound to it.
func NewSdkeySigner(ikm []byte) (*SdkeySigner, error) {
	if len(ikm) < 32 {
		return nil, ErrSdkeyInvalidIKM
	}
	sk := blst.KeyGen(ikm)
	if sk == nil {
		return nil, ErrSdkeyKeyGenFailed
	}
	pk := new(blst.P1Affine).From(sk)
	return &SdkeySigner{secretKey: sk.Serialize(), publicKey: pk.Compress()}, nil
}

// Name identifies the active backend.
func (s *SdkeySigner) Name() string { return "sdkey-blst" }

// PublicKey returns the compressed G1 public key.
func (s *SdkeySigner) PublicKey() []byte { return s.publicKey }

// Sign produces a compressed G2 BLS signature over message.
func (s *SdkeySigner) Sign(message []byte) ([]byte, error) {
	sk := new(blst.SecretKey).Deserialize(s.secretKey)
	if sk == nil {
		return nil, ErrSdkeyInvalidSecretKey
	}
	sig := new(blst.P2Affine).Sign(sk, message, sdkeyDST)
	if sig == nil {
		return nil, ErrSdkeySignFailed
	}
	return sig.Compress(), nil
}

// Verify checks a compressed G2 signature against this signer's public key.
func (s *SdkeySigner) Verify(message, sig []byte) bool {
	if len(sig) != sdkeySigSize {
		return false
	}
	pk := new(blst.P1Affine).Uncompress(s.publicKey)
	if pk == nil {
		return false
	}
	sigPoint := new(blst.P2Affine).Uncompress(sig)
	if sigPoint == nil {
		return false
	}
	return sigPoint.Verify(true, pk, true, message, sdkeyDST)
}
