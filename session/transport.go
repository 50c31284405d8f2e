package session

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/sdprotocol/ups-engine/types"
)

// transportKeyInfo is the HKDF info string binding a derived key to the UPS
// submission channel, so a key derived here cannot be replayed against an
// unrelated protocol that happens to share the same secret.
const transportKeyInfo = "ups-engine/session-submit-v1"

// deriveTransportKey derives a 32-byte key for encrypting an end-cap
// submission in transit, from a per-session secret and the session's own
// id as salt. Grounded on luxfi-consensus/qzmq's HKDF-over-chacha20poly1305
// handshake, which derives send/recv keys the same way; this core only
// needs a single one-shot key since submission is a single request.
func deriveTransportKey(sessionSecret []byte, header types.UpsHeader) ([]byte, error) {
	salt := []byte(header.SessionId)
	kdf := hkdf.New(sha256.New, sessionSecret, salt, []byte(transportKeyInfo))

	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("%w: deriving transport key: %s", types.ErrInternalError, err)
	}
	return key, nil
}
