package script

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
)

// --- tiny test-local assembler; the wire format it produces is the same
// header + function-body layout engine.go parses. ---

type scriptBuilder struct {
	order []uint8
	fns   map[uint8][]byte
}

func newScriptBuilder() *scriptBuilder {
	return &scriptBuilder{fns: map[uint8][]byte{}}
}

func (b *scriptBuilder) fn(id uint8, body []byte) *scriptBuilder {
	b.order = append(b.order, id)
	b.fns[id] = body
	return b
}

func (b *scriptBuilder) build() []byte {
	header := []byte{byte(len(b.order))}
	offset := 1 + len(b.order)*5
	offsets := make([]uint32, len(b.order))
	for i, id := range b.order {
		offsets[i] = uint32(offset)
		offset += len(b.fns[id])
	}
	for i, id := range b.order {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], offsets[i])
		header = append(header, id)
		header = append(header, buf[:]...)
	}
	var body []byte
	for _, id := range b.order {
		body = append(body, b.fns[id]...)
	}
	return append(header, body...)
}

func concatOps(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func op(o Op) []byte { return []byte{byte(o)} }

func define(tags ...ArgTag) []byte {
	out := []byte{byte(OpDefine), byte(len(tags))}
	for _, t := range tags {
		out = append(out, byte(t))
	}
	return out
}

func pushAccountID(id chain.AccountID) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return append([]byte{byte(OpPushAccountID)}, buf[:]...)
}

func pushAsset(a asset.Asset) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(a.MinorUnits()))
	return append([]byte{byte(OpPushAsset)}, buf[:]...)
}

func checkMultiPerms(fastFail bool, threshold, n uint8) []byte {
	o := OpCheckMultiPerms
	if fastFail {
		o = OpCheckMultiPermsFastFail
	}
	return []byte{byte(o), threshold, n}
}

type fakeLookup map[chain.AccountID]*chain.Account

func (f fakeLookup) Account(id chain.AccountID) (*chain.Account, bool) {
	a, ok := f[id]
	return a, ok
}

func evalErr(t *testing.T, err error) *EvalError {
	t.Helper()
	var ee *EvalError
	require.True(t, errors.As(err, &ee), "expected *EvalError, got %v", err)
	return ee
}

func TestSimpleReturnTrue(t *testing.T) {
	body := concatOps(define(), op(OpPushTrue), op(OpReturn))
	s := newScriptBuilder().fn(0, body).build()

	res, err := Eval(Input{Script: s, CallFn: 0, From: 1, Lookup: fakeLookup{}})
	require.NoError(t, err)
	assert.Empty(t, res.Log)
}

func TestReturnFalseIsScriptRetFalse(t *testing.T) {
	body := concatOps(define(), op(OpPushFalse), op(OpReturn))
	s := newScriptBuilder().fn(0, body).build()

	_, err := Eval(Input{Script: s, CallFn: 0, From: 1, Lookup: fakeLookup{}})
	ee := evalErr(t, err)
	assert.Equal(t, ScriptRetFalse, ee.Kind)
}

// TestArithmeticTransferWithRemainder exercises scenario S2: a script that
// transfers a computed amount less than total_amt, terminates with True
// and no trailing Destroy, so the unspent remainder is refunded to
// tx.From automatically.
func TestArithmeticTransferWithRemainder(t *testing.T) {
	const from, to chain.AccountID = 1, 2
	body := concatOps(
		define(),
		pushAccountID(to),
		pushAsset(asset.New(300000)), // 3.00000
		pushAsset(asset.New(400000)), // 4.00000
		op(OpAdd),                    // -> 7.00000
		op(OpTransfer),
		op(OpPushTrue),
		op(OpReturn),
	)
	s := newScriptBuilder().fn(0, body).build()

	lookup := fakeLookup{to: {ID: to}}
	res, err := Eval(Input{
		Script:     s,
		CallFn:     0,
		IsTransfer: true,
		From:       from,
		TotalAmt:   asset.New(1000000), // 10.00000
		Lookup:     lookup,
	})
	require.NoError(t, err)
	require.Len(t, res.Log, 2)
	assert.Equal(t, chain.Transfer(to, asset.New(700000)), res.Log[0])
	assert.Equal(t, chain.Transfer(from, asset.New(300000)), res.Log[1])
}

// TestDestroyRedirectsRemainder exercises scenario S3: a Destroy call
// terminates the script immediately and the leftover total_amt is routed
// to the destroyed account instead of back to tx.From.
func TestDestroyRedirectsRemainder(t *testing.T) {
	const from, target chain.AccountID = 1, 3
	body := concatOps(define(), pushAccountID(target), op(OpDestroy))
	s := newScriptBuilder().fn(0, body).build()

	res, err := Eval(Input{
		Script:     s,
		CallFn:     0,
		IsTransfer: true,
		From:       from,
		TotalAmt:   asset.New(1000000),
		Lookup:     fakeLookup{target: {ID: target}},
	})
	require.NoError(t, err)
	require.Len(t, res.Log, 2)
	assert.Equal(t, chain.Destroy(target), res.Log[0])
	assert.Equal(t, chain.Transfer(target, asset.New(1000000)), res.Log[1])
}

func TestDestroyRejectsSelfTarget(t *testing.T) {
	const from chain.AccountID = 1
	body := concatOps(define(), pushAccountID(from), op(OpDestroy))
	s := newScriptBuilder().fn(0, body).build()

	_, err := Eval(Input{Script: s, CallFn: 0, IsTransfer: true, From: from, Lookup: fakeLookup{}})
	ee := evalErr(t, err)
	assert.Equal(t, Aborted, ee.Kind)
}

func TestDestroyRejectsMissingAccount(t *testing.T) {
	const from, target chain.AccountID = 1, 3
	body := concatOps(define(), pushAccountID(target), op(OpDestroy))
	s := newScriptBuilder().fn(0, body).build()

	_, err := Eval(Input{Script: s, CallFn: 0, IsTransfer: true, From: from, Lookup: fakeLookup{}})
	ee := evalErr(t, err)
	assert.Equal(t, AccountNotFound, ee.Kind)
}

func TestDestroyRejectsAlreadyDestroyedAccount(t *testing.T) {
	const from, target chain.AccountID = 1, 3
	body := concatOps(define(), pushAccountID(target), op(OpDestroy))
	s := newScriptBuilder().fn(0, body).build()

	lookup := fakeLookup{target: {ID: target, Destroyed: true}}
	_, err := Eval(Input{Script: s, CallFn: 0, IsTransfer: true, From: from, Lookup: lookup})
	ee := evalErr(t, err)
	assert.Equal(t, AccountNotFound, ee.Kind)
}

func TestDestroyRequiresTransferTx(t *testing.T) {
	body := concatOps(define(), pushAccountID(3), op(OpDestroy))
	s := newScriptBuilder().fn(0, body).build()

	_, err := Eval(Input{Script: s, CallFn: 0, IsTransfer: false, From: 1, Lookup: fakeLookup{}})
	ee := evalErr(t, err)
	assert.Equal(t, Aborted, ee.Kind)
}

// TestNestedIfElseSkipping checks that an outer false branch correctly
// skips over a fully nested If/Else/EndIf without stopping at the inner
// markers, landing on its own Else.
func TestNestedIfElseSkipping(t *testing.T) {
	body := concatOps(
		define(),
		op(OpPushFalse), // outer condition: false
		op(OpIf),
		op(OpPushTrue),
		op(OpIf),
		op(OpPushFalse),
		op(OpElse),
		op(OpPushFalse),
		op(OpEndIf),
		op(OpElse),
		op(OpPushTrue), // outer else branch
		op(OpEndIf),
		op(OpReturn),
	)
	s := newScriptBuilder().fn(0, body).build()

	res, err := Eval(Input{Script: s, CallFn: 0, From: 1, Lookup: fakeLookup{}})
	require.NoError(t, err)
	assert.Empty(t, res.Log)
}

func genAccount(t *testing.T, id chain.AccountID, threshold uint8, keys ...ed25519.PublicKey) (*chain.Account, []ed25519.PrivateKey) {
	t.Helper()
	ks := make([][32]byte, len(keys))
	for i, k := range keys {
		copy(ks[i][:], k)
	}
	return &chain.Account{ID: id, Permissions: chain.Permissions{Threshold: threshold, Keys: ks}}, nil
}

func sig(priv ed25519.PrivateKey, msg []byte) chain.SigPair {
	pub := priv.Public().(ed25519.PublicKey)
	var sp chain.SigPair
	copy(sp.PubKey[:], pub)
	copy(sp.Signature[:], ed25519.Sign(priv, msg))
	return sp
}

func TestCheckPermsPushesSatisfaction(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	const accID chain.AccountID = 5
	acc, _ := genAccount(t, accID, 1, pub)

	body := concatOps(define(), pushAccountID(accID), op(OpCheckPerms), op(OpReturn))
	s := newScriptBuilder().fn(0, body).build()

	msg := []byte("message")
	res, err := Eval(Input{
		Script:      s,
		CallFn:      0,
		From:        1,
		SignMessage: msg,
		Signatures:  []chain.SigPair{sig(priv, msg)},
		Lookup:      fakeLookup{accID: acc},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Log)
}

func TestCheckPermsUnsatisfiedReturnsFalse(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	const accID chain.AccountID = 5
	acc, _ := genAccount(t, accID, 1, pub)

	body := concatOps(define(), pushAccountID(accID), op(OpCheckPerms), op(OpReturn))
	s := newScriptBuilder().fn(0, body).build()

	_, err = Eval(Input{
		Script:      s,
		CallFn:      0,
		From:        1,
		SignMessage: []byte("message"),
		Lookup:      fakeLookup{accID: acc},
	})
	ee := evalErr(t, err)
	assert.Equal(t, ScriptRetFalse, ee.Kind)
}

func TestCheckPermsFastFailAborts(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	const accID chain.AccountID = 5
	acc, _ := genAccount(t, accID, 1, pub)

	body := concatOps(define(), pushAccountID(accID), op(OpCheckPermsFastFail), op(OpPushTrue), op(OpReturn))
	s := newScriptBuilder().fn(0, body).build()

	_, err = Eval(Input{
		Script:      s,
		CallFn:      0,
		From:        1,
		SignMessage: []byte("message"),
		Lookup:      fakeLookup{accID: acc},
	})
	ee := evalErr(t, err)
	assert.Equal(t, ScriptRetFalse, ee.Kind)
}

func TestCheckMultiPermsThreshold(t *testing.T) {
	pubA, privA, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	pubB, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	const accA, accB chain.AccountID = 10, 11
	aAcc, _ := genAccount(t, accA, 1, pubA)
	bAcc, _ := genAccount(t, accB, 1, pubB)

	body := concatOps(
		define(),
		pushAccountID(accA),
		pushAccountID(accB),
		checkMultiPerms(false, 1, 2),
		op(OpReturn),
	)
	s := newScriptBuilder().fn(0, body).build()

	msg := []byte("message")
	res, err := Eval(Input{
		Script:      s,
		CallFn:      0,
		From:        1,
		SignMessage: msg,
		Signatures:  []chain.SigPair{sig(privA, msg)},
		Lookup:      fakeLookup{accA: aAcc, accB: bAcc},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Log)
}

func TestUnbalancedIfIsUnexpectedEOF(t *testing.T) {
	// False condition forces skipTo to hunt for Else/EndIf, which never
	// appears before the function body runs out.
	body := concatOps(define(), op(OpPushFalse), op(OpIf), op(OpPushTrue))
	s := newScriptBuilder().fn(0, body).build()

	_, err := Eval(Input{Script: s, CallFn: 0, From: 1, Lookup: fakeLookup{}})
	ee := evalErr(t, err)
	assert.Equal(t, UnexpectedEOF, ee.Kind)
}

func TestUnknownFn(t *testing.T) {
	body := concatOps(define(), op(OpPushTrue), op(OpReturn))
	s := newScriptBuilder().fn(0, body).build()

	_, err := Eval(Input{Script: s, CallFn: 9, From: 1, Lookup: fakeLookup{}})
	ee := evalErr(t, err)
	assert.Equal(t, UnknownFn, ee.Kind)
}

func TestTransferInvalidAmountAboveRemaining(t *testing.T) {
	const from, to chain.AccountID = 1, 2
	body := concatOps(
		define(),
		pushAccountID(to),
		pushAsset(asset.New(1500000)), // 15.00000, exceeds total_amt
		op(OpTransfer),
		op(OpPushTrue),
		op(OpReturn),
	)
	s := newScriptBuilder().fn(0, body).build()

	_, err := Eval(Input{
		Script:     s,
		CallFn:     0,
		IsTransfer: true,
		From:       from,
		TotalAmt:   asset.New(1000000),
		Lookup:     fakeLookup{to: {ID: to}},
	})
	ee := evalErr(t, err)
	assert.Equal(t, InvalidAmount, ee.Kind)
}
