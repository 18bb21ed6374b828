// Package walletkeys implements an operator-side encrypted keystore for
// minter and account signing keys: a password-derived key wraps a random
// per-store secret, and every account entry is sealed under that secret,
// mirroring the CLI wallet's own key-at-rest design.
package walletkeys

import (
	"context"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/crypto"
	"github.com/godcoin-go/godcoind/internal/kvstore"
)

const (
	saltSize = 16
	// argon2id parameters tuned for an interactive CLI unlock, not a
	// high-throughput server path.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var initKey = []byte("walletkeys:init")
var accountPrefix = []byte("walletkeys:account:")

// State is the keystore's lifecycle: a fresh store has no password set
// yet, an existing one starts Locked until Unlock succeeds.
type State int

const (
	StateNew State = iota
	StateLocked
	StateUnlocked
)

var (
	ErrWrongPassword  = errors.New("walletkeys: wrong password")
	ErrLocked         = errors.New("walletkeys: keystore is locked")
	ErrInvalidState   = errors.New("walletkeys: operation invalid in current state")
	ErrAccountExists  = errors.New("walletkeys: account already present")
	ErrAccountMissing = errors.New("walletkeys: account not found")
)

// Store is a password-protected, pebble-backed collection of per-account
// signing keys. Every value is sealed with secretbox under a random
// 32-byte secret; the secret itself is sealed under a key argon2id
// derives from the store's password, so a password change never requires
// re-encrypting every account.
type Store struct {
	db    *kvstore.PebbleDB
	state State
	key   *[32]byte // the unwrapped per-store secret, nil while locked
}

// Open opens (creating if absent) the keystore at dir.
func Open(dir string) (*Store, error) {
	db, err := kvstore.Open(dir)
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

func newStore(db *kvstore.PebbleDB) (*Store, error) {
	s := &Store{db: db}
	_, err := db.Read(context.Background(), initKey)
	switch {
	case errors.Is(err, kvstore.ErrKeyNotFound):
		s.state = StateNew
	case err != nil:
		return nil, err
	default:
		s.state = StateLocked
	}
	return s, nil
}

// State reports the keystore's current lifecycle state.
func (s *Store) State() State { return s.state }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SetPassword sets (or changes) the store's password. On a new store this
// generates a fresh per-store secret; on an unlocked store the existing
// secret is kept, re-wrapped under the new password, so already-sealed
// account entries remain valid.
func (s *Store) SetPassword(ctx context.Context, password []byte) error {
	if s.state != StateNew && s.state != StateUnlocked {
		return ErrInvalidState
	}

	var secret [32]byte
	if s.state == StateUnlocked {
		secret = *s.key
	} else if _, err := io.ReadFull(rand.Reader, secret[:]); err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	wrapKey := deriveKey(password, salt)

	sealed, err := seal(secret[:], &wrapKey)
	if err != nil {
		return err
	}

	record := make([]byte, 0, len(salt)+len(sealed))
	record = append(record, salt...)
	record = append(record, sealed...)
	if err := s.db.Write(ctx, initKey, record); err != nil {
		return err
	}

	s.key = &secret
	s.state = StateUnlocked
	return nil
}

// Unlock derives the wrap key from password and unwraps the store's
// secret, returning ErrWrongPassword if it does not decrypt.
func (s *Store) Unlock(ctx context.Context, password []byte) error {
	if s.state != StateLocked {
		return ErrInvalidState
	}

	record, err := s.db.Read(ctx, initKey)
	if err != nil {
		return err
	}
	if len(record) < saltSize {
		return ErrInvalidState
	}
	salt, sealed := record[:saltSize], record[saltSize:]
	wrapKey := deriveKey(password, salt)

	secret, ok := open(sealed, &wrapKey)
	if !ok {
		return ErrWrongPassword
	}

	var key [32]byte
	copy(key[:], secret)
	s.key = &key
	s.state = StateUnlocked
	return nil
}

// Lock discards the unwrapped secret. The store returns to Locked.
func (s *Store) Lock() {
	s.key = nil
	s.state = StateLocked
}

func deriveKey(password, salt []byte) [32]byte {
	raw := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, 32)
	var key [32]byte
	copy(key[:], raw)
	return key
}

func seal(plaintext []byte, key *[32]byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

func open(sealed []byte, key *[32]byte) ([]byte, bool) {
	if len(sealed) < 24 {
		return nil, false
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	return secretbox.Open(nil, sealed[24:], &nonce, key)
}

// Account is one wallet entry: the ledger account it signs for, and every
// keypair authorized to sign on its behalf (its Permissions.Keys may name
// more keys than this operator holds).
type Account struct {
	ID   chain.AccountID
	Keys []*crypto.Keypair
}

func accountKey(name string) []byte {
	return append(append([]byte(nil), accountPrefix...), []byte(name)...)
}

// SetAccount seals and stores acc under name, overwriting any existing
// entry of the same name.
func (s *Store) SetAccount(ctx context.Context, name string, acc Account) error {
	if s.state != StateUnlocked {
		return ErrLocked
	}
	sealed, err := seal(serializeAccount(acc), s.key)
	if err != nil {
		return err
	}
	return s.db.Write(ctx, accountKey(name), sealed)
}

// GetAccount returns the account stored under name.
func (s *Store) GetAccount(ctx context.Context, name string) (Account, error) {
	if s.state != StateUnlocked {
		return Account{}, ErrLocked
	}
	sealed, err := s.db.Read(ctx, accountKey(name))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return Account{}, ErrAccountMissing
	}
	if err != nil {
		return Account{}, err
	}
	raw, ok := open(sealed, s.key)
	if !ok {
		return Account{}, ErrWrongPassword
	}
	return deserializeAccount(raw)
}

// DeleteAccount removes the entry stored under name.
func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	if s.state != StateUnlocked {
		return ErrLocked
	}
	return s.db.Delete(ctx, accountKey(name))
}

// ListAccountNames returns every account name currently stored.
func (s *Store) ListAccountNames(ctx context.Context) ([]string, error) {
	if s.state != StateUnlocked {
		return nil, ErrLocked
	}
	end := append(append([]byte(nil), accountPrefix...), 0xff)
	it, err := s.db.Iterator(ctx, accountPrefix, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var names []string
	for it.Next() {
		names = append(names, string(it.Key()[len(accountPrefix):]))
	}
	return names, it.Error()
}
