package chain

import "github.com/godcoin-go/godcoind/internal/asset"

// LogEntryKind discriminates the two effect kinds a script can produce.
type LogEntryKind uint8

const (
	LogEntryTransfer LogEntryKind = iota
	LogEntryDestroy
)

// LogEntry is one effect produced by a Transfer transaction's script: a
// balance credit to an account, or an irrevocable destruction of one.
type LogEntry struct {
	Kind    LogEntryKind
	Account AccountID
	Amount  asset.Asset // meaningful only for LogEntryTransfer
}

// Transfer constructs a LogEntryTransfer effect.
func Transfer(to AccountID, amount asset.Asset) LogEntry {
	return LogEntry{Kind: LogEntryTransfer, Account: to, Amount: amount}
}

// Destroy constructs a LogEntryDestroy effect.
func Destroy(to AccountID) LogEntry {
	return LogEntry{Kind: LogEntryDestroy, Account: to}
}
