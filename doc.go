/*

Package lockpay defines the interfaces used throughout the application, such
as storage, messages, handlers and context helpers.

Extensions (see the x/ directory) are built from these blocks. The escrow
extension in x/escrow is the heart of the application: funds are locked
by a sender for a single receiver, held by a shared custodian account and
released either to the receiver (claim) or back to the sender (cancel).

*/

package lockpay
