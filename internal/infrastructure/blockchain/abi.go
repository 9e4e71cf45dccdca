package blockchain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/subeth/subeth/internal/domain/subscription"
)

// SubscriptionDelegateABI is the EIP-7702 account implementation the EOA
// delegates to. Calls always target the account itself.
const SubscriptionDelegateABI = `[
 {"type":"function","name":"cancelSubscription","stateMutability":"nonpayable",
  "inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"createSubscription","stateMutability":"nonpayable",
  "inputs":[
    {"name":"token","type":"address"},
    {"name":"receiver","type":"address"},
    {"name":"amount","type":"uint256"},
    {"name":"interval","type":"uint64"},
    {"name":"startTime","type":"uint64"},
    {"name":"endTime","type":"uint64"},
    {"name":"maxExecutions","type":"uint32"}],
  "outputs":[{"name":"id","type":"uint256"}]},
 {"type":"function","name":"executeSubscription","stateMutability":"nonpayable",
  "inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"getSubscription","stateMutability":"view",
  "inputs":[{"name":"id","type":"uint256"}],
  "outputs":[{"name":"","type":"tuple","components":[
    {"name":"token","type":"address"},
    {"name":"receiver","type":"address"},
    {"name":"amount","type":"uint256"},
    {"name":"interval","type":"uint64"},
    {"name":"nextExecutionTime","type":"uint64"},
    {"name":"endTime","type":"uint64"},
    {"name":"maxExecutions","type":"uint32"},
    {"name":"executionCount","type":"uint32"},
    {"name":"active","type":"bool"}]}]},
 {"type":"function","name":"subscriptionCount","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"signatureNonce","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"owner","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

const (
	methodCreate   = "createSubscription"
	methodCancel   = "cancelSubscription"
	methodGet      = "getSubscription"
	methodCount    = "subscriptionCount"
	methodSigNonce = "signatureNonce"
)

var delegateABI = mustParseABI(SubscriptionDelegateABI)

// DelegateABI returns the parsed delegate ABI.
func DelegateABI() abi.ABI {
	return delegateABI
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid delegate ABI: %v", err))
	}
	return parsed
}

// subscriptionTuple matches the getSubscription output layout.
type subscriptionTuple struct {
	Token             common.Address
	Receiver          common.Address
	Amount            *big.Int
	Interval          uint64
	NextExecutionTime uint64
	EndTime           uint64
	MaxExecutions     uint32
	ExecutionCount    uint32
	Active            bool
}

func (t subscriptionTuple) toDomain() *subscription.OnChainSubscription {
	return &subscription.OnChainSubscription{
		Token:             t.Token,
		Receiver:          t.Receiver,
		Amount:            t.Amount,
		Interval:          t.Interval,
		NextExecutionTime: t.NextExecutionTime,
		EndTime:           t.EndTime,
		MaxExecutions:     t.MaxExecutions,
		ExecutionCount:    t.ExecutionCount,
		Active:            t.Active,
	}
}

// PackCreate encodes createSubscription calldata.
func PackCreate(t subscription.Terms) ([]byte, error) {
	return delegateABI.Pack(methodCreate, t.Token, t.Receiver, t.Amount, t.Interval, t.StartTime, t.EndTime, t.MaxExecutions)
}

// PackCancel encodes cancelSubscription calldata.
func PackCancel(id *big.Int) ([]byte, error) {
	return delegateABI.Pack(methodCancel, id)
}

func unpackSubscription(data []byte) (tuple subscriptionTuple, err error) {
	out, err := delegateABI.Unpack(methodGet, data)
	if err != nil {
		return subscriptionTuple{}, err
	}
	if len(out) != 1 {
		return subscriptionTuple{}, fmt.Errorf("getSubscription: expected 1 output, got %d", len(out))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("getSubscription: %v", r)
		}
	}()
	tuple = *abi.ConvertType(out[0], new(subscriptionTuple)).(*subscriptionTuple)
	return tuple, nil
}

func unpackUint256(method string, data []byte) (*big.Int, error) {
	out, err := delegateABI.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return value, nil
}
