package ledger

import (
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// Wallet is a Hedera account identity with its signing key. It implements
// the gateway's Signer port.
type Wallet struct {
	accountID  hedera.AccountID
	privateKey hedera.PrivateKey
}

// NewWallet builds a wallet from an account id ("0.0.N") and a private key
// string in any encoding the Hedera SDK understands (raw hex or DER).
func NewWallet(accountID, privateKey string) (*Wallet, error) {
	id, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: invalid account id %q: %w", accountID, err)
	}
	key, err := hedera.PrivateKeyFromString(privateKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode private key: %w", err)
	}
	return &Wallet{accountID: id, privateKey: key}, nil
}

// Generate creates a wallet with a fresh ed25519 key for the given account
// id. Meant for demos and tests; a real account's key comes from outside.
func Generate(accountID string) (*Wallet, error) {
	id, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: invalid account id %q: %w", accountID, err)
	}
	key, err := hedera.PrivateKeyGenerateEd25519()
	if err != nil {
		return nil, fmt.Errorf("ledger: generate key: %w", err)
	}
	return &Wallet{accountID: id, privateKey: key}, nil
}

// AccountID returns the account id string presented as the wallet id.
func (w *Wallet) AccountID() string { return w.accountID.String() }

// PublicKey returns the wallet's public key string.
func (w *Wallet) PublicKey() string { return w.privateKey.PublicKey().String() }

// PublicKeyBytes returns the raw public key material.
func (w *Wallet) PublicKeyBytes() []byte { return w.privateKey.PublicKey().BytesRaw() }

// Sign produces a detached signature over message.
func (w *Wallet) Sign(message []byte) ([]byte, error) {
	return w.privateKey.Sign(message), nil
}

// SignTransactionBytes rebuilds a transaction from gateway-provided bytes,
// signs it with the wallet key and returns the signed serialization ready
// for execution.
func (w *Wallet) SignTransactionBytes(txBytes []byte) ([]byte, error) {
	tx, err := hedera.TransactionFromBytes(txBytes)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode transaction: %w", err)
	}
	signed, err := hedera.TransactionSign(tx, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: sign transaction: %w", err)
	}
	out, err := hedera.TransactionToBytes(signed)
	if err != nil {
		return nil, fmt.Errorf("ledger: serialize signed transaction: %w", err)
	}
	return out, nil
}
