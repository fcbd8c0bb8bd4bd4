package committee

import (
	"github.com/zialiel/zialiel/src/common"
)

// Member is a validator identity: a moniker (the account id votes and
// transfers are keyed on) and the public key used to verify its signatures.
type Member struct {
	Moniker   string
	PubKeyHex string

	id       uint32
	pubBytes []byte
}

// NewMember creates a Member from a moniker and raw public key bytes.
func NewMember(moniker string, pubKey []byte) *Member {
	return &Member{
		Moniker:   moniker,
		PubKeyHex: common.EncodeToString(pubKey),
		pubBytes:  pubKey,
	}
}

// ID returns a short numeric identifier derived from the public key.
func (m *Member) ID() uint32 {
	if m.id == 0 {
		m.id = common.Hash32(m.PubKeyBytes())
	}
	return m.id
}

// PubKeyBytes returns the member's public key as a byte array.
func (m *Member) PubKeyBytes() []byte {
	if len(m.pubBytes) == 0 {
		m.pubBytes, _ = common.DecodeFromString(m.PubKeyHex)
	}
	return m.pubBytes
}
