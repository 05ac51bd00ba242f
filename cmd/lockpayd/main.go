package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/iov-one/lockpay"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// When a cmd function is called it is given stdin, stdout and command line
// arguments except the program name and this command name. It is the
// responsibility of the command function to parse the arguments.
//
// Every command operating on the state opens the store found in the home
// directory, executes and commits before returning. For example, a full
// escrow round is
//
//	$ lockpayd genesis -file genesis.json
//	$ lockpayd keygen -name alice
//	$ lockpayd initialize -signer alice -receiver <addr> -amount 25000000
//	$ lockpayd claim -signer bob -sender <alice addr>
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"addr":       cmdAddr,
	"audit":      cmdAudit,
	"balance":    cmdBalance,
	"cancel":     cmdCancel,
	"claim":      cmdClaim,
	"config":     cmdConfig,
	"genesis":    cmdGenesis,
	"initialize": cmdInitialize,
	"keyaddr":    cmdKeyaddr,
	"keygen":     cmdKeygen,
	"vault":      cmdVault,
	"vaults":     cmdVaults,
	"version":    cmdVersion,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s runs escrow transactions against a local state.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	// Skip two first arguments. Second argument is the command name that
	// we just consumed.
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	_, err := fmt.Fprintln(out, lockpay.Version())
	return err
}
