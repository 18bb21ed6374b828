// Command godcoind runs a permissioned ledger node.
package main

import "github.com/godcoin-go/godcoind/internal/cli"

func main() {
	cli.Execute()
}
