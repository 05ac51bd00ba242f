package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/lockpay/app"
	lockpayd "github.com/iov-one/lockpay/cmd/lockpayd/app"
)

func cmdGenesis(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Initialize the state from a genesis file.

The genesis file sets the chain id, the initial balances and optionally
the escrow configuration. A state can be initialized only once.
`)
		fl.PrintDefaults()
	}
	var (
		n      = nodeFlags(fl)
		fileFl = fl.String("file", "genesis.json", "Path to the genesis file.")
	)
	fl.Parse(args)

	gen, err := app.LoadGenesis(*fileFl)
	if err != nil {
		return err
	}
	exec, err := n.open()
	if err != nil {
		return err
	}
	defer exec.Close()

	if err := exec.InitGenesis(gen, lockpayd.Initializers()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, gen.ChainID)
	return err
}
