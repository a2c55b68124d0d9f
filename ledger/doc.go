// Package ledger binds the gateway client to the Hedera ledger SDK.
//
// The gateway core needs exactly four shapes from the ledger side: decode
// a private key, sign bytes, rebuild a transaction from node-provided
// bytes, and serialize the signed transaction. Wallet wraps the Hedera SDK
// behind those shapes; nothing else in this repository touches ledger
// semantics.
package ledger
