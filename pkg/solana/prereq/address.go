package prereq

import (
	"crypto/ed25519"

	"github.com/turbin3/prereq-client/pkg/solana"
)

var (
	PrereqPrefix = []byte("prereq")
)

// GetPrereqAddress derives the enrollment account of signer.
func (p *Program) GetPrereqAddress(signer ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		p.ID,
		PrereqPrefix,
		signer,
	)
}
