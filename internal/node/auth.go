package node

import (
	"crypto/ed25519"
	"errors"

	"github.com/1024market/kernel/internal/wire"
)

// ErrBadSignature is returned when an instruction envelope's signature does
// not verify against its claimed signer, the off-chain equivalent of a
// Solana transaction's signer check failing.
var ErrBadSignature = errors.New("node: signature does not verify against claimed signer")

// VerifyEnvelope checks that sig is a valid ed25519 signature by env.Signer
// over env.Body, the same check the original program got for free from the
// runtime's transaction signer verification.
func VerifyEnvelope(env *wire.Envelope, sig []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return ErrBadSignature
	}
	if !ed25519.Verify(env.Signer[:], env.Body, sig) {
		return ErrBadSignature
	}
	return nil
}
