package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/app"
	lockpayd "github.com/iov-one/lockpay/cmd/lockpayd/app"
	"github.com/iov-one/lockpay/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// env returns the value of an environment variable if provided (even if empty)
// or a fallback value.
func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

// node holds the flags shared by all commands that access the state.
type node struct {
	home     *string
	engine   *string
	logLevel *string
}

func nodeFlags(fl *flag.FlagSet) node {
	return node{
		home: fl.String("home", env("LOCKPAYD_HOME", filepath.Join(os.Getenv("HOME"), ".lockpayd")),
			"Directory holding the state and the keys. You can use LOCKPAYD_HOME environment variable to set it."),
		engine: fl.String("store", env("LOCKPAYD_STORE", lockpayd.StoreBolt),
			"Storage engine, one of bolt or iavl."),
		logLevel: fl.String("log", "info",
			"Log level, one of debug, info, error or none."),
	}
}

func (n node) logger() (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr)).With("module", "lockpay")
	opt, err := log.AllowLevel(*n.logLevel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

func (n node) keyPath(name string) string {
	return filepath.Join(*n.home, "keys", name+".key")
}

// open returns an executor on top of the state stored in the home
// directory. Caller must close it.
func (n node) open() (*app.Executor, error) {
	logger, err := n.logger()
	if err != nil {
		return nil, err
	}
	db, err := lockpayd.CommitKVStore(*n.engine, filepath.Join(*n.home, "data"))
	if err != nil {
		return nil, err
	}
	exec, err := lockpayd.NewExecutor(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return exec, nil
}

// query opens the state, calls fn with a read only view of it and closes
// the state.
func (n node) query(fn func(db lockpay.ReadOnlyKVStore) error) error {
	exec, err := n.open()
	if err != nil {
		return err
	}
	defer exec.Close()
	return exec.Query(fn)
}

// submit encodes msg, delivers it on behalf of the signer and writes the
// result to output.
func (n node) submit(output io.Writer, signer string, msg app.ProtoMsg) error {
	key, err := loadKey(n.keyPath(signer))
	if err != nil {
		return err
	}
	raw, err := lockpayd.Codec().Encode(msg)
	if err != nil {
		return err
	}
	exec, err := n.open()
	if err != nil {
		return err
	}
	defer exec.Close()

	res, err := exec.Deliver(raw, key.PublicKey().Condition())
	if err != nil {
		return err
	}
	return printJSON(output, struct {
		Path string          `json:"path"`
		Data lockpay.Address `json:"data,omitempty"`
		Log  string          `json:"log,omitempty"`
	}{
		Path: msg.Path(),
		Data: res.Data,
		Log:  res.Log,
	})
}

func printJSON(output io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrap(err, "serialize")
	}
	_, err = fmt.Fprintln(output, string(raw))
	return err
}

// describe returns the message presented to the user for a failed command.
// Errors without a registered code are local to this process and are shown
// in full.
func describe(err error) string {
	code, msg := errors.ABCIInfo(err, false)
	if code == errors.InternalABCICode {
		msg = err.Error()
	}
	return fmt.Sprintf("error %d: %s", code, msg)
}

// addressValue implements flag.Value for lockpay.Address.
type addressValue struct {
	addr *lockpay.Address
}

func (v addressValue) String() string {
	if v.addr == nil || len(*v.addr) == 0 {
		return ""
	}
	return v.addr.String()
}

func (v addressValue) Set(raw string) error {
	a, err := lockpay.ParseAddress(raw)
	if err != nil {
		return err
	}
	*v.addr = a
	return nil
}

// flAddress returns an address value that is set by a command line
// argument. The value is nil if the flag was not provided.
func flAddress(fl *flag.FlagSet, name, usage string) *lockpay.Address {
	var a lockpay.Address
	fl.Var(addressValue{addr: &a}, name, usage)
	return &a
}

// requireAddress returns an error naming the flag if the address is not
// set.
func requireAddress(name string, a lockpay.Address) error {
	if len(a) == 0 {
		return errors.Wrapf(errors.ErrEmpty, "-%s flag is required", name)
	}
	return nil
}
