package eth

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
	assert.True(t, ValidAddress("0x71c7656ec7ab88b098defb751b7401b5f6d8976f"))

	for _, s := range []string{"", "0x", "0x1234", "71C7656EC7ab88b098defB751B7401B5f6d8976F0x", "not-an-address"} {
		assert.False(t, ValidAddress(s), "address %q", s)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "0x71c7656ec7ab88b098defb751b7401b5f6d8976f", Normalize(" 0x71C7656EC7ab88b098defB751B7401B5f6d8976F "))
}

func TestRecoverAddressRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)

	message := []byte("CertLayer wants you to sign in with your wallet")
	sig, err := PersonalSign(message, key)
	require.NoError(t, err)

	got, err := RecoverAddress(message, sig)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecoverAddressZeroBasedV(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)

	message := []byte("hello")
	raw, err := crypto.Sign(accounts.TextHash(message), key)
	require.NoError(t, err)
	require.Less(t, raw[crypto.RecoveryIDOffset], byte(27))

	got, err := RecoverAddress(message, hexutil.Encode(raw))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecoverAddressWrongMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	sig, err := PersonalSign([]byte("signed message"), key)
	require.NoError(t, err)

	// Recovery over a different message succeeds but yields a different
	// address, which is how a forged signature is detected.
	got, err := RecoverAddress([]byte("another message"), sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer, got)
}

func TestRecoverAddressMalformed(t *testing.T) {
	cases := []string{
		"",
		"0x",
		"garbage",
		"0x1234",
		"0x" + strings.Repeat("00", 64),
		"0x" + strings.Repeat("00", 66),
	}
	for _, sig := range cases {
		_, err := RecoverAddress([]byte("msg"), sig)
		assert.Error(t, err, "signature %q", sig)
	}
}
