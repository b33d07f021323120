package solana

import (
	"crypto/ed25519"

	"filippo.io/edwards25519"
)

// IsOnCurve reports whether pub decodes to a point on the ed25519 curve.
//
// Program derived addresses must never be on the curve, since a point on the
// curve may have a private key. This check is independent of the one used
// during derivation.
func IsOnCurve(pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}

	_, err := new(edwards25519.Point).SetBytes(pub)
	return err == nil
}
