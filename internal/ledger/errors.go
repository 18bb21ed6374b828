package ledger

import (
	"errors"
	"fmt"

	"github.com/godcoin-go/godcoind/internal/script"
)

// ErrBlockNotFound is returned by internal block lookups (fee curve,
// get_block) when no block is indexed at the requested height.
var ErrBlockNotFound = errors.New("ledger: block not found")

// TxErrKind enumerates the validation failures execute_tx/push can
// surface to a submitter. None of them mutate state.
type TxErrKind int

const (
	ScriptEval TxErrKind = iota
	ScriptHashMismatch
	AccountNotFound
	AccountAlreadyExists
	InvalidAccountPermissions
	Arithmetic
	InvalidAmount
	InvalidFeeAmount
	TooManySignatures
	TxTooLarge
	TxProhibited
	TxExpired
	TxDupe
)

func (k TxErrKind) String() string {
	switch k {
	case ScriptEval:
		return "ScriptEval"
	case ScriptHashMismatch:
		return "ScriptHashMismatch"
	case AccountNotFound:
		return "AccountNotFound"
	case AccountAlreadyExists:
		return "AccountAlreadyExists"
	case InvalidAccountPermissions:
		return "InvalidAccountPermissions"
	case Arithmetic:
		return "Arithmetic"
	case InvalidAmount:
		return "InvalidAmount"
	case InvalidFeeAmount:
		return "InvalidFeeAmount"
	case TooManySignatures:
		return "TooManySignatures"
	case TxTooLarge:
		return "TxTooLarge"
	case TxProhibited:
		return "TxProhibited"
	case TxExpired:
		return "TxExpired"
	case TxDupe:
		return "TxDupe"
	default:
		return "Unknown"
	}
}

// TxErr is a structured transaction validation failure. ScriptPos/
// ScriptKind are only meaningful when Kind == ScriptEval.
type TxErr struct {
	Kind       TxErrKind
	ScriptPos  int
	ScriptKind script.ErrorKind
}

func (e *TxErr) Error() string {
	if e.Kind == ScriptEval {
		return fmt.Sprintf("tx error: script eval failed at %d: %s", e.ScriptPos, e.ScriptKind)
	}
	return fmt.Sprintf("tx error: %s", e.Kind)
}

func txFail(kind TxErrKind) error {
	return &TxErr{Kind: kind}
}

func txFailScript(err *script.EvalError) error {
	return &TxErr{Kind: ScriptEval, ScriptPos: err.Pos, ScriptKind: err.Kind}
}

// BlockErrKind enumerates the ways a whole block can fail verification.
type BlockErrKind int

const (
	InvalidBlockHeight BlockErrKind = iota
	InvalidReceiptRoot
	InvalidSignature
	InvalidPrevHash
	InvalidTx
)

func (k BlockErrKind) String() string {
	switch k {
	case InvalidBlockHeight:
		return "InvalidBlockHeight"
	case InvalidReceiptRoot:
		return "InvalidReceiptRoot"
	case InvalidSignature:
		return "InvalidSignature"
	case InvalidPrevHash:
		return "InvalidPrevHash"
	case InvalidTx:
		return "InvalidTx"
	default:
		return "Unknown"
	}
}

// BlockErr is a structured block validation failure. Cause is set and
// wrapped when Kind == InvalidTx: a whole block is rejected if any one
// receipt fails re-execution.
type BlockErr struct {
	Kind  BlockErrKind
	Cause error
}

func (e *BlockErr) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("block error: %s: %s", e.Kind, e.Cause)
	}
	return fmt.Sprintf("block error: %s", e.Kind)
}

func (e *BlockErr) Unwrap() error {
	return e.Cause
}

func blockFail(kind BlockErrKind) error {
	return &BlockErr{Kind: kind}
}

func blockFailTx(err error) error {
	return &BlockErr{Kind: InvalidTx, Cause: err}
}
