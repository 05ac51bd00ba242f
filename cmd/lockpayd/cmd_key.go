package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/iov-one/lockpay/crypto"
	"github.com/iov-one/lockpay/errors"
)

// bech32Prefix is the human readable part of bech32 encoded addresses.
const bech32Prefix = "lockpay"

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Generate a new private key and store it in the home directory.

This command fails if a key with the same name already exists. The address
of the new key is printed.
`)
		fl.PrintDefaults()
	}
	var (
		n      = nodeFlags(fl)
		nameFl = fl.String("name", "default", "Name of the key.")
	)
	fl.Parse(args)

	path := n.keyPath(*nameFl)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		// Do not allow to overwrite already existing private key. User
		// must manually delete it first.
		return fmt.Errorf("private key file %q already exists, delete this file and try again", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("cannot create key directory: %s", err)
	}

	key := crypto.GenPrivKeyEd25519()
	seed := hex.EncodeToString(key.Seed())
	if err := ioutil.WriteFile(path, []byte(seed+"\n"), 0600); err != nil {
		return fmt.Errorf("cannot write private key: %s", err)
	}
	_, err := fmt.Fprintln(output, key.PublicKey().Address())
	return err
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the hex and bech32 address associated with a private key.
`)
		fl.PrintDefaults()
	}
	var (
		n      = nodeFlags(fl)
		nameFl = fl.String("name", "default", "Name of the key.")
	)
	fl.Parse(args)

	key, err := loadKey(n.keyPath(*nameFl))
	if err != nil {
		return err
	}
	addr := key.PublicKey().Address()
	bech, err := addr.Bech32String(bech32Prefix)
	if err != nil {
		return errors.Wrap(err, "bech32")
	}
	_, err = fmt.Fprintf(output, "%s\n%s\n", addr, bech)
	return err
}

// loadKey reads a private key written by the keygen command.
func loadKey(path string) (crypto.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "cannot read private key file: %s", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "private key file %q: %s", path, err)
	}
	if len(seed) != 32 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid private key length: %d", len(seed))
	}
	return crypto.PrivKeyEd25519FromSeed(seed), nil
}
