package walletkeys

import (
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
	"github.com/godcoin-go/godcoind/internal/crypto"
)

// serializeAccount encodes an Account as "[id:u64][n_keys:u16][wif_seed]{n}",
// each key rendered as its address-encoded private seed so the sealed
// record on disk carries the same textual form an operator would paste
// into a minter key file.
func serializeAccount(acc Account) []byte {
	w := codec.NewWriter()
	chain.WriteAccountID(w, acc.ID)
	w.WriteUint16(uint16(len(acc.Keys)))
	for _, kp := range acc.Keys {
		wif := crypto.EncodePrivateKeyAddress(kp.Seed())
		w.WriteBytes([]byte(wif))
	}
	return w.Bytes()
}

func deserializeAccount(data []byte) (Account, error) {
	r := codec.NewReader(data)
	id, err := chain.ReadAccountID(r)
	if err != nil {
		return Account{}, err
	}
	n, err := r.ReadUint16()
	if err != nil {
		return Account{}, err
	}
	keys := make([]*crypto.Keypair, n)
	for i := range keys {
		raw, err := r.ReadBytes()
		if err != nil {
			return Account{}, err
		}
		seed, err := crypto.DecodePrivateKeyAddress(string(raw))
		if err != nil {
			return Account{}, err
		}
		keys[i] = crypto.KeypairFromSeed(seed)
	}
	if err := r.Finish(); err != nil {
		return Account{}, err
	}
	return Account{ID: id, Keys: keys}, nil
}
