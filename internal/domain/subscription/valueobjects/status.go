package valueobjects

import "fmt"

// SubscriptionStatus is the backend's view of a subscription. On-chain state
// overrides it whenever it can be read.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusPastDue   SubscriptionStatus = "past_due"
)

var validStatuses = map[SubscriptionStatus]bool{
	StatusActive:    true,
	StatusCancelled: true,
	StatusPastDue:   true,
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	return validStatuses[s]
}

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid subscription status: %s", s)
	}
	return status, nil
}

// ExecutionPath selects how a subscription operation reaches the chain.
type ExecutionPath string

const (
	// PathRelay signs an EIP-712 message and lets the backend relayer pay gas.
	PathRelay ExecutionPath = "relay"
	// PathDirect sends a transaction from the account itself.
	PathDirect ExecutionPath = "direct"
	// PathAuto prefers the gasless relay path.
	PathAuto ExecutionPath = "auto"
)

func ParseExecutionPath(s string) (ExecutionPath, error) {
	switch p := ExecutionPath(s); p {
	case PathRelay, PathDirect, PathAuto:
		return p, nil
	case "":
		return PathAuto, nil
	default:
		return "", fmt.Errorf("invalid execution path: %s", s)
	}
}

// Resolve maps auto onto a concrete path.
func (p ExecutionPath) Resolve() ExecutionPath {
	if p == PathDirect {
		return PathDirect
	}
	return PathRelay
}
