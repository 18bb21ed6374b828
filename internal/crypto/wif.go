package crypto

import (
	"encoding/binary"
	"errors"

	"github.com/decred/dcrd/crypto/ripemd160"
	"github.com/mr-tron/base58"
)

// Address payload type bytes, per the wire-protocol address encoding.
const (
	payloadAccountID  byte = 0x03
	payloadPublicKey  byte = 0x02
	payloadPrivateKey byte = 0x01
)

// ErrInvalidAddress is returned when a WIF-encoded address fails to decode
// or its checksum does not match.
var ErrInvalidAddress = errors.New("crypto: invalid address encoding")

// checksum4 returns the first 4 bytes of DoubleSHA256(payload).
func checksum4(payload []byte) []byte {
	d := DoubleSHA256(payload)
	return d[:4]
}

func encodeChecked(prefix string, payloadType byte, body []byte) string {
	payload := make([]byte, 0, 1+len(body)+4)
	payload = append(payload, payloadType)
	payload = append(payload, body...)
	payload = append(payload, checksum4(payload)...)
	return prefix + base58.Encode(payload)
}

func decodeChecked(prefix string, wantType byte, s string) ([]byte, error) {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return nil, ErrInvalidAddress
	}
	payload, err := base58.Decode(s[len(prefix):])
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if len(payload) < 1+4 {
		return nil, ErrInvalidAddress
	}
	body, sum := payload[:len(payload)-4], payload[len(payload)-4:]
	want := checksum4(body)
	for i := range want {
		if want[i] != sum[i] {
			return nil, ErrInvalidAddress
		}
	}
	if body[0] != wantType {
		return nil, ErrInvalidAddress
	}
	return body[1:], nil
}

// EncodeAccountAddress renders an account id as "<prefix><base58(0x03‖id‖checksum)>".
func EncodeAccountAddress(prefix string, id uint64) string {
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], id)
	return encodeChecked(prefix, payloadAccountID, idBytes[:])
}

// DecodeAccountAddress parses an address produced by EncodeAccountAddress.
func DecodeAccountAddress(prefix, s string) (uint64, error) {
	body, err := decodeChecked(prefix, payloadAccountID, s)
	if err != nil {
		return 0, err
	}
	if len(body) != 8 {
		return 0, ErrInvalidAddress
	}
	return binary.BigEndian.Uint64(body), nil
}

// EncodePublicKeyAddress renders a public key as "<prefix><base58(0x02‖pubkey‖checksum)>".
func EncodePublicKeyAddress(prefix string, pubkey []byte) string {
	return encodeChecked(prefix, payloadPublicKey, pubkey)
}

// DecodePublicKeyAddress parses an address produced by EncodePublicKeyAddress.
func DecodePublicKeyAddress(prefix, s string) ([]byte, error) {
	return decodeChecked(prefix, payloadPublicKey, s)
}

// EncodePrivateKeyAddress renders a private seed as "<base58(0x01‖seed‖checksum)>",
// with no chain prefix per the wire-protocol spec.
func EncodePrivateKeyAddress(seed []byte) string {
	return encodeChecked("", payloadPrivateKey, seed)
}

// DecodePrivateKeyAddress parses an address produced by EncodePrivateKeyAddress.
func DecodePrivateKeyAddress(s string) ([]byte, error) {
	return decodeChecked("", payloadPrivateKey, s)
}

// CompactKeyHash computes RIPEMD160(DoubleSHA256(publicKey)), a 20-byte
// compact handle for a public key. Nothing else in this module calls it.
// Grounded on the same double-hash-for-short-ids idea as Bitcoin/XRPL
// address derivation.
func CompactKeyHash(publicKey []byte) [20]byte {
	sha := DoubleSHA256(publicKey)
	h := ripemd160.New()
	h.Write(sha[:])
	sum := h.Sum(nil)
	var out [20]byte
	copy(out[:], sum)
	return out
}
