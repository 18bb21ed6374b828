package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/spf13/cobra"

	"github.com/godcoin-go/godcoind/internal/chain"
	"github.com/godcoin-go/godcoind/internal/config"
	"github.com/godcoin-go/godcoind/internal/crypto"
	"github.com/godcoin-go/godcoind/internal/walletkeys"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage an operator's encrypted keystore of signing keys",
}

var walletInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new keystore and set its password",
	Run:   runWalletInit,
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name> <account-id>",
	Short: "Generate a fresh keypair and store it under name for account-id",
	Args:  cobra.ExactArgs(2),
	Run:   runWalletImport,
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account name held in the keystore",
	Run:   runWalletList,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletInitCmd, walletImportCmd, walletListCmd)
}

func openWalletStore() (*walletkeys.Store, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	return walletkeys.Open(filepath.Join(cfg.DataDir, "wallet"))
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		return pw, err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

func runWalletInit(cmd *cobra.Command, args []string) {
	store, err := openWalletStore()
	if err != nil {
		log.Fatalf("wallet: open keystore: %v", err)
	}
	defer store.Close()

	if store.State() != walletkeys.StateNew {
		log.Fatal("wallet: keystore already initialized, use import or list instead")
	}

	pw, err := readPassword("keystore password: ")
	if err != nil {
		log.Fatalf("wallet: read password: %v", err)
	}
	if err := store.SetPassword(context.Background(), pw); err != nil {
		log.Fatalf("wallet: set password: %v", err)
	}
	fmt.Println("wallet: keystore initialized")
}

func runWalletImport(cmd *cobra.Command, args []string) {
	name, idArg := args[0], args[1]
	var id uint64
	if _, err := fmt.Sscanf(idArg, "%d", &id); err != nil {
		log.Fatalf("wallet: invalid account id %q", idArg)
	}

	store, err := openWalletStore()
	if err != nil {
		log.Fatalf("wallet: open keystore: %v", err)
	}
	defer store.Close()

	pw, err := readPassword("keystore password: ")
	if err != nil {
		log.Fatalf("wallet: read password: %v", err)
	}
	ctx := context.Background()
	if store.State() == walletkeys.StateLocked {
		if err := store.Unlock(ctx, pw); err != nil {
			log.Fatalf("wallet: unlock: %v", err)
		}
	}

	kp, err := crypto.GenerateKeypair()
	if err != nil {
		log.Fatalf("wallet: generate keypair: %v", err)
	}
	acc := walletkeys.Account{ID: chain.AccountID(id), Keys: []*crypto.Keypair{kp}}
	if err := store.SetAccount(ctx, name, acc); err != nil {
		log.Fatalf("wallet: store account: %v", err)
	}
	fmt.Printf("wallet: stored %q for account %d, public key %x\n", name, id, kp.PublicKey)
}

func runWalletList(cmd *cobra.Command, args []string) {
	store, err := openWalletStore()
	if err != nil {
		log.Fatalf("wallet: open keystore: %v", err)
	}
	defer store.Close()

	pw, err := readPassword("keystore password: ")
	if err != nil {
		log.Fatalf("wallet: read password: %v", err)
	}
	ctx := context.Background()
	if store.State() == walletkeys.StateLocked {
		if err := store.Unlock(ctx, pw); err != nil {
			log.Fatalf("wallet: unlock: %v", err)
		}
	}

	names, err := store.ListAccountNames(ctx)
	if err != nil {
		log.Fatalf("wallet: list accounts: %v", err)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}
