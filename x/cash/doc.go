/*
Package cash keeps the balances of the native currency.

There is no logic in the currency, except that the balance of any
account may not go below zero and may not overflow. Accounts are
addressed by lockpay.Address and are created on the first credit.
An account whose balance drops to zero is removed, so moving the
whole balance out of an account reclaims its storage.
*/
package cash
