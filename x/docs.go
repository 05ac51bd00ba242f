/*
Package x contains the extensions of the custody system.

Extensions implement the functionality (Handler, Decorator,
Initializer) that is combined together by the app package.
This package itself holds the authentication glue shared by all
of them: the host verifies signatures and stores the signers in
the context, extensions read them through an Authenticator.

Note that message types in exported code will be prefixed by
the package, so follow standard go naming conventions and avoid
stutter. Use eg. `escrow.ClaimMsg` in place of `escrow.EscrowClaimMsg`.
*/
package x
