// Package eth wraps the go-ethereum primitives the auth service needs:
// address validation and EIP-191 personal-sign address recovery.
package eth

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ValidAddress reports whether s is a well-formed 20-byte hex address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// Normalize lower-cases an address for storage and comparison. Addresses
// are compared case-insensitively on the wire; internally only the
// lower-cased form is ever stored.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RecoverAddress recovers the signer of an EIP-191 personal-sign signature
// over message. The signature is hex-encoded, 65 bytes, with V as either
// {0,1} or the {27,28} form wallets produce.
func RecoverAddress(message []byte, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// PersonalSign signs message with key using the EIP-191 personal-sign
// scheme and returns the hex signature with V in {27,28}, the way wallets
// produce it.
func PersonalSign(message []byte, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}
