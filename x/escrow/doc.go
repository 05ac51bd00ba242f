/*
Package escrow implements a two party escrow with a shared custodian.

A sender locks funds for a receiver. The receiver may claim the full
amount or the sender may cancel and take it back, never both and never
partially.

All locked funds are held by a single custodian account. Neither the
custodian nor any vault has a private key: their addresses are derived
from fixed seeds so that the derived digest is not a valid ed25519 point.
Only this extension, holding the derivation bump, can move funds out of
the custodian.

There is at most one live vault per (sender, receiver) pair because the
vault address is derived from the pair. Settling a vault removes it and
returns its allocation deposit to the sender.
*/
package escrow
