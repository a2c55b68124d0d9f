package ledger

import (
	"crypto/ed25519"
	"testing"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWalletValidation(t *testing.T) {
	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	w, err := NewWallet("0.0.4242", key.String())
	require.NoError(t, err)
	assert.Equal(t, "0.0.4242", w.AccountID())

	_, err = NewWallet("not-an-account", key.String())
	require.Error(t, err)

	_, err = NewWallet("0.0.4242", "not-a-key")
	require.Error(t, err)
}

func TestGenerateWallet(t *testing.T) {
	w, err := Generate("0.0.4242")
	require.NoError(t, err)
	assert.Equal(t, "0.0.4242", w.AccountID())
	assert.Len(t, w.PublicKeyBytes(), ed25519.PublicKeySize)

	_, err = Generate("bogus")
	require.Error(t, err)
}

func TestSignVerifiesAgainstRawPublicKey(t *testing.T) {
	w, err := Generate("0.0.4242")
	require.NoError(t, err)

	message := []byte(`{"serverSignature":[1,2,3],"originalPayload":"abc"}`)
	sig, err := w.Sign(message)
	require.NoError(t, err)

	pub := ed25519.PublicKey(w.PublicKeyBytes())
	assert.True(t, ed25519.Verify(pub, message, sig))
	assert.False(t, ed25519.Verify(pub, []byte("tampered"), sig))
}

func TestSignIsDeterministicPerKey(t *testing.T) {
	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	a, err := NewWallet("0.0.1", key.String())
	require.NoError(t, err)
	b, err := NewWallet("0.0.2", key.String())
	require.NoError(t, err)

	sigA, err := a.Sign([]byte("payload"))
	require.NoError(t, err)
	sigB, err := b.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB, "ed25519 signatures are deterministic")
}

func TestSignTransactionBytesRoundTrip(t *testing.T) {
	w, err := Generate("0.0.4242")
	require.NoError(t, err)

	// Build an offline transfer the way a node would before handing the
	// bytes to the wallet.
	nodeID, err := hedera.AccountIDFromString("0.0.3")
	require.NoError(t, err)
	sender, err := hedera.AccountIDFromString("0.0.4242")
	require.NoError(t, err)
	receiver, err := hedera.AccountIDFromString("0.0.5005")
	require.NoError(t, err)

	tx, err := hedera.NewTransferTransaction().
		AddHbarTransfer(sender, hedera.NewHbar(-1)).
		AddHbarTransfer(receiver, hedera.NewHbar(1)).
		SetTransactionID(hedera.TransactionIDGenerate(sender)).
		SetNodeAccountIDs([]hedera.AccountID{nodeID}).
		Freeze()
	require.NoError(t, err)

	txBytes, err := tx.ToBytes()
	require.NoError(t, err)

	signedBytes, err := w.SignTransactionBytes(txBytes)
	require.NoError(t, err)
	require.NotEmpty(t, signedBytes)

	// The signed serialization still decodes and carries our signature.
	decoded, err := hedera.TransactionFromBytes(signedBytes)
	require.NoError(t, err)
	signedTx, ok := decoded.(hedera.TransferTransaction)
	require.True(t, ok)

	signatures, err := signedTx.GetSignatures()
	require.NoError(t, err)
	require.NotEmpty(t, signatures)
}

func TestSignTransactionBytesRejectsGarbage(t *testing.T) {
	w, err := Generate("0.0.4242")
	require.NoError(t, err)

	_, err = w.SignTransactionBytes([]byte{0xde, 0xad, 0xbe, 0xef})
	require.Error(t, err)
}
