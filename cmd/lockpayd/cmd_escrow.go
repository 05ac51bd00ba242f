package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/lockpay/x/escrow"
)

func cmdInitialize(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Lock funds of the signer in a new vault for the receiver.

The receiver reference defaults to the receiver. Provide it to submit the
receiver account resolved separately from the declared one.
`)
		fl.PrintDefaults()
	}
	var (
		n           = nodeFlags(fl)
		signerFl    = fl.String("signer", "default", "Name of the key of the sender.")
		receiverFl  = flAddress(fl, "receiver", "Address of the receiver.")
		receiverRef = flAddress(fl, "receiver-ref", "Resolved receiver account. Defaults to the receiver.")
		amountFl    = fl.Uint64("amount", 0, "Amount to lock.")
	)
	fl.Parse(args)

	if err := requireAddress("receiver", *receiverFl); err != nil {
		return err
	}
	msg := escrow.NewInitializeMsg(*receiverFl, *amountFl)
	if len(*receiverRef) != 0 {
		msg.ReceiverRef = *receiverRef
	}
	return n.submit(output, *signerFl, msg)
}

func cmdClaim(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Release the vault locked by the sender to its receiver. The signer must be
the receiver.
`)
		fl.PrintDefaults()
	}
	var (
		n          = nodeFlags(fl)
		signerFl   = fl.String("signer", "default", "Name of the key of the receiver.")
		senderFl   = flAddress(fl, "sender", "Address of the sender that created the vault.")
		receiverFl = flAddress(fl, "receiver", "Address of the receiver. Defaults to the signer address.")
	)
	fl.Parse(args)

	if err := requireAddress("sender", *senderFl); err != nil {
		return err
	}
	key, err := loadKey(n.keyPath(*signerFl))
	if err != nil {
		return err
	}
	receiver := *receiverFl
	if len(receiver) == 0 {
		receiver = key.PublicKey().Address()
	}
	msg, err := escrow.NewClaimMsg(*senderFl, receiver)
	if err != nil {
		return err
	}
	return n.submit(output, *signerFl, msg)
}

func cmdCancel(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Return the vault locked for the receiver back to its sender. The signer
must be the sender.
`)
		fl.PrintDefaults()
	}
	var (
		n          = nodeFlags(fl)
		signerFl   = fl.String("signer", "default", "Name of the key of the sender.")
		senderFl   = flAddress(fl, "sender", "Address of the sender. Defaults to the signer address.")
		receiverFl = flAddress(fl, "receiver", "Address of the receiver of the vault.")
	)
	fl.Parse(args)

	if err := requireAddress("receiver", *receiverFl); err != nil {
		return err
	}
	key, err := loadKey(n.keyPath(*signerFl))
	if err != nil {
		return err
	}
	sender := *senderFl
	if len(sender) == 0 {
		sender = key.PublicKey().Address()
	}
	msg, err := escrow.NewCancelMsg(sender, *receiverFl)
	if err != nil {
		return err
	}
	return n.submit(output, *signerFl, msg)
}
