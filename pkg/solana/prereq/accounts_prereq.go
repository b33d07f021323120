package prereq

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/turbin3/prereq-client/pkg/solana/binary"
)

var PrereqAccountDiscriminator = binary.AnchorAccountDiscriminator("PrereqAccount")

// PrereqAccount is the on-chain state written by complete and update.
type PrereqAccount struct {
	Github []byte
	Key    ed25519.PublicKey
}

func (a *PrereqAccount) Size() int {
	return (PrereqAccountDiscriminator.Size() +
		binary.SizeOfBytes(a.Github) + // github
		ed25519.PublicKeySize) // key
}

func (a *PrereqAccount) Marshal() []byte {
	var offset int
	data := make([]byte, a.Size())

	binary.PutDiscriminator(data, PrereqAccountDiscriminator, &offset)
	binary.PutBytes(data, a.Github, &offset)
	binary.PutKey32(data, a.Key, &offset)

	return data
}

// Unmarshal decodes account data. Trailing bytes are allowed since the program
// may allocate more space than the current handle needs.
func (a *PrereqAccount) Unmarshal(data []byte) error {
	var offset int

	if err := binary.GetDiscriminator(data, PrereqAccountDiscriminator, &offset); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}
	if err := binary.GetBytes(data, &a.Github, &offset); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}
	if err := binary.GetKey32(data, &a.Key, &offset); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}

	return nil
}

func UnmarshalPrereqAccount(data []byte) (*PrereqAccount, error) {
	var a PrereqAccount
	if err := a.Unmarshal(data); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *PrereqAccount) String() string {
	return fmt.Sprintf(
		"PrereqAccount{github=%s,key=%s}",
		string(a.Github),
		base58.Encode(a.Key),
	)
}
