package blockchain

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

const (
	domainName    = "SubscriptionDelegate"
	domainVersion = "1"

	primaryCreate = "CreateSubscription"
	primaryCancel = "CancelSubscription"
)

var eip712DomainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

var createSubscriptionType = []apitypes.Type{
	{Name: "token", Type: "address"},
	{Name: "receiver", Type: "address"},
	{Name: "amount", Type: "uint256"},
	{Name: "interval", Type: "uint64"},
	{Name: "startTime", Type: "uint64"},
	{Name: "endTime", Type: "uint64"},
	{Name: "maxExecutions", Type: "uint32"},
	{Name: "nonce", Type: "uint256"},
}

var cancelSubscriptionType = []apitypes.Type{
	{Name: "subscriptionId", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
}

func domain(account common.Address, chainID int64) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              domainName,
		Version:           domainVersion,
		ChainId:           math.NewHexOrDecimal256(chainID),
		VerifyingContract: account.Hex(),
	}
}

// BuildCreateTypedData builds the CreateSubscription message. The verifying
// contract is the account itself.
func BuildCreateTypedData(account common.Address, chainID int64, t subscription.Terms, nonce *big.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			primaryCreate:  createSubscriptionType,
		},
		PrimaryType: primaryCreate,
		Domain:      domain(account, chainID),
		Message: apitypes.TypedDataMessage{
			"token":         t.Token.Hex(),
			"receiver":      t.Receiver.Hex(),
			"amount":        t.Amount.String(),
			"interval":      strconv.FormatUint(t.Interval, 10),
			"startTime":     strconv.FormatUint(t.StartTime, 10),
			"endTime":       strconv.FormatUint(t.EndTime, 10),
			"maxExecutions": strconv.FormatUint(uint64(t.MaxExecutions), 10),
			"nonce":         nonce.String(),
		},
	}
}

// BuildCancelTypedData builds the CancelSubscription message.
func BuildCancelTypedData(account common.Address, chainID int64, subscriptionID, nonce *big.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			primaryCancel:  cancelSubscriptionType,
		},
		PrimaryType: primaryCancel,
		Domain:      domain(account, chainID),
		Message: apitypes.TypedDataMessage{
			"subscriptionId": subscriptionID.String(),
			"nonce":          nonce.String(),
		},
	}
}

// TypedDataSigner asks the wallet for EIP-712 signatures. Any wallet failure
// is reported as a rejected signature.
type TypedDataSigner struct {
	logger logger.Interface
}

// NewTypedDataSigner creates a new typed data signer
func NewTypedDataSigner(logger logger.Interface) *TypedDataSigner {
	return &TypedDataSigner{logger: logger}
}

// SignCreate signs a CreateSubscription authorization and returns it 0x-encoded.
func (s *TypedDataSigner) SignCreate(ctx context.Context, signer subscription.Signer, chainID int64, t subscription.Terms, nonce *big.Int) (string, error) {
	return s.sign(ctx, signer, BuildCreateTypedData(signer.Address(), chainID, t, nonce))
}

// SignCancel signs a CancelSubscription authorization and returns it 0x-encoded.
func (s *TypedDataSigner) SignCancel(ctx context.Context, signer subscription.Signer, chainID int64, subscriptionID, nonce *big.Int) (string, error) {
	return s.sign(ctx, signer, BuildCancelTypedData(signer.Address(), chainID, subscriptionID, nonce))
}

func (s *TypedDataSigner) sign(ctx context.Context, signer subscription.Signer, data apitypes.TypedData) (string, error) {
	sig, err := signer.SignTypedData(ctx, data)
	if err != nil {
		s.logger.Warnw("typed data signature rejected",
			"primary_type", data.PrimaryType,
			"account", signer.Address().Hex(),
			"error", err,
		)
		return "", errors.NewSigningRejectedError("Signature request rejected", err.Error())
	}
	return hexutil.Encode(sig), nil
}
