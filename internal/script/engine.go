package script

import (
	"encoding/binary"

	"github.com/godcoin-go/godcoind/internal/asset"
	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/codec"
)

// AccountLookup resolves an account id to its current effective state
// (indexed state with any pending-in-block effects already applied). The
// ledger engine supplies the implementation; the VM never touches storage
// directly.
type AccountLookup interface {
	Account(id chain.AccountID) (*chain.Account, bool)
}

// Input is everything eval needs: which function to enter, the raw
// argument bytes (Transfer only), the transfer amount at entry, and the
// signing context used by permission checks.
type Input struct {
	Script      []byte
	CallFn      uint8
	Args        []byte
	IsTransfer  bool
	From        chain.AccountID
	TotalAmt    asset.Asset
	SignMessage []byte
	Signatures  []chain.SigPair
	Lookup      AccountLookup
}

// Result is the effect log produced by a successful evaluation.
type Result struct {
	Log []chain.LogEntry
}

// Engine holds the mutable evaluation state for one eval call. It is not
// reused across calls: Eval constructs one, runs it to completion, and
// discards it, so determinism (same inputs, same result) is structural
// rather than something callers must reason about.
type Engine struct {
	code         []byte
	pc           int
	functionEnd  int
	stack        stack
	in           Input
	totalAmt     asset.Asset
	remainingAmt asset.Asset
	log          []chain.LogEntry
	destroyTo    *chain.AccountID
}

// Eval runs script starting at the function named by in.CallFn (0 for
// every variant except Transfer, which uses tx.call_fn) and returns the
// accumulated effect log, or a structured EvalError.
func Eval(in Input) (*Result, error) {
	if len(in.Script) == 0 {
		return nil, failAt(0, HeaderReadErr)
	}

	fns, offsets, err := parseHeader(in.Script)
	if err != nil {
		return nil, err
	}
	entryOffset, ok := fns[in.CallFn]
	if !ok {
		return nil, failAt(0, UnknownFn)
	}
	if int(entryOffset) >= len(in.Script) {
		return nil, failAt(int(entryOffset), InvalidEntryPoint)
	}

	functionEnd := len(in.Script)
	for _, o := range offsets {
		if o > entryOffset && int(o) < functionEnd {
			functionEnd = int(o)
		}
	}

	e := &Engine{
		code:         in.Script,
		pc:           int(entryOffset),
		functionEnd:  functionEnd,
		in:           in,
		totalAmt:     in.TotalAmt,
		remainingAmt: in.TotalAmt,
	}

	if err := e.readPrologue(); err != nil {
		return nil, err
	}
	return e.run()
}

func parseHeader(script []byte) (map[uint8]uint32, []uint32, error) {
	r := codec.NewReader(script)
	n, err := r.ReadUint8()
	if err != nil {
		return nil, nil, failAt(0, HeaderReadErr)
	}
	fns := make(map[uint8]uint32, n)
	offsets := make([]uint32, 0, n)
	for i := 0; i < int(n); i++ {
		fnID, err := r.ReadUint8()
		if err != nil {
			return nil, nil, failAt(r.Pos(), HeaderReadErr)
		}
		offset, err := r.ReadUint32()
		if err != nil {
			return nil, nil, failAt(r.Pos(), HeaderReadErr)
		}
		fns[fnID] = offset
		offsets = append(offsets, offset)
	}
	return fns, offsets, nil
}

// readPrologue parses the mandatory OpDefine at e.pc and, for Transfer
// calls, deserialises tx.Args against the declared arg tags, pushing each
// as an initial stack frame.
func (e *Engine) readPrologue() error {
	pos := e.pc
	if e.pc >= e.functionEnd {
		return failAt(pos, UnexpectedEOF)
	}
	if Op(e.code[e.pc]) != OpDefine {
		return failAt(pos, InvalidEntryPoint)
	}
	e.pc++

	if e.pc >= e.functionEnd {
		return failAt(pos, HeaderReadErr)
	}
	nArgs := int(e.code[e.pc])
	e.pc++

	tags := make([]ArgTag, nArgs)
	for i := 0; i < nArgs; i++ {
		if e.pc >= e.functionEnd {
			return failAt(pos, HeaderReadErr)
		}
		tags[i] = ArgTag(e.code[e.pc])
		e.pc++
	}

	if !e.in.IsTransfer {
		if nArgs != 0 {
			return failAt(pos, ArgDeserialization)
		}
		return nil
	}

	r := codec.NewReader(e.in.Args)
	for _, tag := range tags {
		var f Frame
		switch tag {
		case ArgBool:
			v, err := r.ReadBool()
			if err != nil {
				return failAt(pos, ArgDeserialization)
			}
			f = boolFrame(v)
		case ArgAccountID:
			v, err := r.ReadUint64()
			if err != nil {
				return failAt(pos, ArgDeserialization)
			}
			f = accountFrame(chain.AccountID(v))
		case ArgAsset:
			v, err := r.ReadInt64()
			if err != nil {
				return failAt(pos, ArgDeserialization)
			}
			f = assetFrame(asset.New(v))
		default:
			return failAt(pos, UnknownArgType)
		}
		if err := e.stack.push(f); err != nil {
			return atPos(err, pos)
		}
	}
	if err := r.Finish(); err != nil {
		return failAt(pos, ArgDeserialization)
	}
	return nil
}

// decode reads the opcode at e.pc without advancing it, returning the
// opcode, its operand bytes, and the total instruction length (1+operand).
func (e *Engine) decode() (Op, []byte, int, error) {
	if e.pc >= e.functionEnd {
		return 0, nil, 0, failAt(e.pc, UnexpectedEOF)
	}
	op := Op(e.code[e.pc])
	ol := operandLen(op)
	if ol < 0 {
		return 0, nil, 0, failAt(e.pc, UnknownOp)
	}
	if e.pc+1+ol > e.functionEnd {
		return 0, nil, 0, failAt(e.pc, UnexpectedEOF)
	}
	return op, e.code[e.pc+1 : e.pc+1+ol], 1 + ol, nil
}

// skipTo advances the instruction pointer past the next occurrence of one
// of targets at the current nesting depth, counting nested If/EndIf pairs
// so an inner branch's markers never terminate an outer skip early. There
// are no precomputed jump targets: this walk re-decodes every opcode it
// passes over, including their operand lengths.
func (e *Engine) skipTo(targets ...Op) error {
	depth := 0
	for {
		op, _, n, err := e.decode()
		if err != nil {
			return err
		}
		if depth == 0 {
			for _, t := range targets {
				if op == t {
					e.pc += n
					return nil
				}
			}
		}
		switch op {
		case OpIf:
			depth++
		case OpEndIf:
			if depth > 0 {
				depth--
			}
		}
		e.pc += n
	}
}

func (e *Engine) run() (*Result, error) {
	for {
		op, operand, n, err := e.decode()
		if err != nil {
			return nil, err
		}
		pos := e.pc
		e.pc += n

		switch op {
		case OpPushFalse:
			err = e.stack.push(boolFrame(false))
		case OpPushTrue:
			err = e.stack.push(boolFrame(true))
		case OpPushAccountID:
			id := binary.BigEndian.Uint64(operand)
			err = e.stack.push(accountFrame(chain.AccountID(id)))
		case OpPushAsset:
			v := int64(binary.BigEndian.Uint64(operand))
			err = e.stack.push(assetFrame(asset.New(v)))
		case OpLoadAmt:
			err = e.stack.push(assetFrame(e.totalAmt))
		case OpLoadRemAmt:
			err = e.stack.push(assetFrame(e.remainingAmt))
		case OpAdd, OpSub, OpMul, OpDiv:
			err = e.execArith(op)
		case OpNot:
			var b bool
			b, err = e.stack.popBool()
			if err == nil {
				err = e.stack.push(boolFrame(!b))
			}
		case OpIf:
			var cond bool
			cond, err = e.stack.popBool()
			if err == nil && !cond {
				err = e.skipTo(OpElse, OpEndIf)
			}
		case OpElse:
			err = e.skipTo(OpEndIf)
		case OpEndIf:
			// marker only; no effect on the normal-execution path
		case OpReturn:
			var b bool
			b, err = e.stack.popBool()
			if err != nil {
				return nil, atPos(err, pos)
			}
			return e.terminate(b)
		case OpAbort:
			return nil, failAt(pos, Aborted)
		case OpCheckPerms, OpCheckPermsFastFail:
			err = e.execCheckPerms(op, pos)
		case OpCheckMultiPerms, OpCheckMultiPermsFastFail:
			err = e.execCheckMultiPerms(op, operand, pos)
		case OpTransfer:
			err = e.execTransfer(pos)
		case OpDestroy:
			var to chain.AccountID
			to, err = e.stack.popAccountID()
			if err != nil {
				return nil, atPos(err, pos)
			}
			if !e.in.IsTransfer || to == e.in.From {
				return nil, failAt(pos, Aborted)
			}
			acc, ok := e.in.Lookup.Account(to)
			if !ok || acc.Destroyed {
				return nil, failAt(pos, AccountNotFound)
			}
			e.log = append(e.log, chain.Destroy(to))
			target := to
			e.destroyTo = &target
			return e.terminate(true)
		default:
			err = failAt(pos, UnknownOp)
		}
		if err != nil {
			return nil, atPos(err, pos)
		}

		if e.pc >= e.functionEnd {
			b, perr := e.stack.popBool()
			if perr != nil {
				return nil, atPos(perr, e.pc)
			}
			return e.terminate(b)
		}
	}
}

func (e *Engine) execArith(op Op) error {
	rhs, err := e.stack.popAsset()
	if err != nil {
		return err
	}
	lhs, err := e.stack.popAsset()
	if err != nil {
		return err
	}
	var result asset.Asset
	var aerr error
	switch op {
	case OpAdd:
		result, aerr = lhs.Add(rhs)
	case OpSub:
		result, aerr = lhs.Sub(rhs)
	case OpMul:
		result, aerr = lhs.Mul(rhs)
	case OpDiv:
		result, aerr = lhs.Div(rhs)
	}
	if aerr != nil {
		return failAt(0, Arithmetic)
	}
	return e.stack.push(assetFrame(result))
}

func (e *Engine) execCheckPerms(op Op, pos int) error {
	accID, err := e.stack.popAccountID()
	if err != nil {
		return err
	}
	acc, ok := e.in.Lookup.Account(accID)
	if !ok {
		return failAt(pos, AccountNotFound)
	}
	satisfied := acc.Permissions.Satisfies(e.in.SignMessage, e.in.Signatures)
	if op == OpCheckPermsFastFail {
		if !satisfied {
			return failAt(pos, ScriptRetFalse)
		}
		return nil
	}
	return e.stack.push(boolFrame(satisfied))
}

func (e *Engine) execCheckMultiPerms(op Op, operand []byte, pos int) error {
	threshold := operand[0]
	count := int(operand[1])
	ids := make([]chain.AccountID, count)
	for i := count - 1; i >= 0; i-- {
		id, err := e.stack.popAccountID()
		if err != nil {
			return err
		}
		ids[i] = id
	}
	satisfiedCount := 0
	for _, id := range ids {
		acc, ok := e.in.Lookup.Account(id)
		if !ok {
			return failAt(pos, AccountNotFound)
		}
		if acc.Permissions.Satisfies(e.in.SignMessage, e.in.Signatures) {
			satisfiedCount++
		}
	}
	satisfied := satisfiedCount >= int(threshold)
	if op == OpCheckMultiPermsFastFail {
		if !satisfied {
			return failAt(pos, ScriptRetFalse)
		}
		return nil
	}
	return e.stack.push(boolFrame(satisfied))
}

func (e *Engine) execTransfer(pos int) error {
	amount, err := e.stack.popAsset()
	if err != nil {
		return err
	}
	to, err := e.stack.popAccountID()
	if err != nil {
		return err
	}
	if amount.Negative() || amount.Cmp(e.remainingAmt) > 0 {
		return failAt(pos, InvalidAmount)
	}
	acc, ok := e.in.Lookup.Account(to)
	if !ok || acc.Destroyed {
		return failAt(pos, AccountNotFound)
	}
	rem, err := e.remainingAmt.Sub(amount)
	if err != nil {
		return failAt(pos, Arithmetic)
	}
	e.remainingAmt = rem
	e.log = append(e.log, chain.Transfer(to, amount))
	return nil
}

// terminate applies the spec's end-of-evaluation rule: a false result is
// ScriptRetFalse; a true result with unspent remaining_amt appends one
// final Transfer for the remainder, directed at a preceding Destroy's
// target if one ran, else back to tx.From.
func (e *Engine) terminate(final bool) (*Result, error) {
	if !final {
		return nil, failAt(e.pc, ScriptRetFalse)
	}
	if e.remainingAmt > 0 {
		target := e.in.From
		if e.destroyTo != nil {
			target = *e.destroyTo
		}
		e.log = append(e.log, chain.Transfer(target, e.remainingAmt))
		e.remainingAmt = 0
	}
	return &Result{Log: e.log}, nil
}

func atPos(err error, pos int) error {
	if ee, ok := err.(*EvalError); ok {
		ee.Pos = pos
		return ee
	}
	return err
}
