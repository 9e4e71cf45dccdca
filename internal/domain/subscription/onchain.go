package subscription

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OnChainSubscription mirrors the delegate contract's Subscription struct.
// It is authoritative over the backend record whenever it can be read.
type OnChainSubscription struct {
	Token             common.Address `json:"token"`
	Receiver          common.Address `json:"receiver"`
	Amount            *big.Int       `json:"amount"`
	Interval          uint64         `json:"interval"`
	NextExecutionTime uint64         `json:"nextExecutionTime"`
	EndTime           uint64         `json:"endTime"`
	MaxExecutions     uint32         `json:"maxExecutions"`
	ExecutionCount    uint32         `json:"executionCount"`
	Active            bool           `json:"active"`
}

// Matches reports whether the on-chain terms equal the plan's terms.
func (s *OnChainSubscription) Matches(t Terms) bool {
	if s.Amount == nil || t.Amount == nil {
		return false
	}
	return s.Token == t.Token &&
		s.Receiver == t.Receiver &&
		s.Amount.Cmp(t.Amount) == 0 &&
		s.Interval == t.Interval
}
