// Package wallet provides the local signer that stands in for a browser
// wallet: a raw hex key or an encrypted keystore file.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/subeth/subeth/internal/shared/config"
)

// Wallet signs on behalf of a single account.
type Wallet interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// PasswordFunc supplies a keystore password when none is configured.
type PasswordFunc func(prompt string) (string, error)

// KeyWallet holds an unlocked private key in memory.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Wallet = (*KeyWallet)(nil)

// NewKeyWallet wraps an already decoded key.
func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// FromHex parses a hex private key, with or without the 0x prefix.
func FromHex(hexKey string) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeyWallet(key), nil
}

// FromKeystore decrypts a V3 keystore file.
func FromKeystore(path, password string) (*KeyWallet, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(blob, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}
	return NewKeyWallet(key.PrivateKey), nil
}

// Load builds a wallet from configuration. A raw key wins over a keystore.
// prompt is only consulted for a keystore with no configured password.
func Load(cfg config.WalletConfig, prompt PasswordFunc) (*KeyWallet, error) {
	switch {
	case cfg.PrivateKey != "":
		return FromHex(cfg.PrivateKey)
	case cfg.KeystorePath != "":
		password := cfg.Password
		if password == "" && prompt != nil {
			p, err := prompt(fmt.Sprintf("Password for %s: ", cfg.KeystorePath))
			if err != nil {
				return nil, fmt.Errorf("failed to read password: %w", err)
			}
			password = p
		}
		return FromKeystore(cfg.KeystorePath, password)
	default:
		return nil, fmt.Errorf("wallet not configured: set wallet.private_key or wallet.keystore_path")
	}
}

func (w *KeyWallet) Address() common.Address {
	return w.address
}

// SignTypedData returns a 65-byte EIP-712 signature with V in {27, 28}.
func (w *KeyWallet) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return w.signHash(hash)
}

// SignTx signs with the latest signer for chainID.
func (w *KeyWallet) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}

// SignMessage produces an EIP-191 personal signature.
func (w *KeyWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.signHash(accounts.TextHash(message))
}

func (w *KeyWallet) signHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
