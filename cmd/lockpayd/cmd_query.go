package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/lockpay"
	lockpayd "github.com/iov-one/lockpay/cmd/lockpayd/app"
	"github.com/iov-one/lockpay/x/escrow"
)

func cmdVault(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the live vault of a sender and receiver pair.
`)
		fl.PrintDefaults()
	}
	var (
		n          = nodeFlags(fl)
		senderFl   = flAddress(fl, "sender", "Address of the sender.")
		receiverFl = flAddress(fl, "receiver", "Address of the receiver.")
	)
	fl.Parse(args)

	if err := requireAddress("sender", *senderFl); err != nil {
		return err
	}
	if err := requireAddress("receiver", *receiverFl); err != nil {
		return err
	}
	return n.query(func(db lockpay.ReadOnlyKVStore) error {
		addr, v, err := escrow.LoadVault(db, *senderFl, *receiverFl)
		if err != nil {
			return err
		}
		return printJSON(output, vaultView{Address: addr, Vault: v})
	})
}

type vaultView struct {
	Address lockpay.Address `json:"address"`
	*escrow.Vault
}

func cmdVaults(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print all live vaults ordered by their address.
`)
		fl.PrintDefaults()
	}
	n := nodeFlags(fl)
	fl.Parse(args)

	return n.query(func(db lockpay.ReadOnlyKVStore) error {
		vaults := make([]vaultView, 0)
		err := escrow.ForEachVault(db, func(addr lockpay.Address, v *escrow.Vault) error {
			vaults = append(vaults, vaultView{Address: addr, Vault: v})
			return nil
		})
		if err != nil {
			return err
		}
		return printJSON(output, vaults)
	})
}

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the balance of an account.
`)
		fl.PrintDefaults()
	}
	var (
		n      = nodeFlags(fl)
		addrFl = flAddress(fl, "addr", "Address of the account.")
	)
	fl.Parse(args)

	if err := requireAddress("addr", *addrFl); err != nil {
		return err
	}
	return n.query(func(db lockpay.ReadOnlyKVStore) error {
		b, err := lockpayd.Bank().Balance(db, *addrFl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(output, b)
		return err
	})
}

func cmdAudit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Compare the custodian balance with the funds locked by all live vaults.

This command fails if the custodian does not hold exactly its reserve and
the locked funds.
`)
		fl.PrintDefaults()
	}
	n := nodeFlags(fl)
	fl.Parse(args)

	return n.query(func(db lockpay.ReadOnlyKVStore) error {
		a, err := escrow.RunAudit(db, lockpayd.Bank())
		if err != nil {
			return err
		}
		if err := printJSON(output, a); err != nil {
			return err
		}
		if !a.Solvent() {
			return fmt.Errorf("custodian holds %d, want %d", a.Balance, a.Reserve+a.Locked)
		}
		return nil
	})
}

func cmdConfig(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the escrow configuration in use.
`)
		fl.PrintDefaults()
	}
	n := nodeFlags(fl)
	fl.Parse(args)

	return n.query(func(db lockpay.ReadOnlyKVStore) error {
		conf, err := escrow.LoadConfiguration(db)
		if err != nil {
			return err
		}
		return printJSON(output, conf)
	})
}

func cmdAddr(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the vault address of a sender and receiver pair and the custodian
address. Addresses are derived and the state is not accessed.
`)
		fl.PrintDefaults()
	}
	var (
		senderFl   = flAddress(fl, "sender", "Address of the sender.")
		receiverFl = flAddress(fl, "receiver", "Address of the receiver.")
	)
	fl.Parse(args)

	if err := requireAddress("sender", *senderFl); err != nil {
		return err
	}
	if err := requireAddress("receiver", *receiverFl); err != nil {
		return err
	}
	vault, vaultBump, err := escrow.VaultAddress(*senderFl, *receiverFl)
	if err != nil {
		return err
	}
	custodian, custodianBump, err := escrow.CustodianAddress()
	if err != nil {
		return err
	}
	return printJSON(output, struct {
		Vault         lockpay.Address `json:"vault"`
		VaultBump     uint8           `json:"vault_bump"`
		Custodian     lockpay.Address `json:"custodian"`
		CustodianBump uint8           `json:"custodian_bump"`
	}{vault, vaultBump, custodian, custodianBump})
}
