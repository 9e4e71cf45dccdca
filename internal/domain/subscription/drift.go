package subscription

import (
	"math/big"
	"sort"
)

type DriftKind string

const (
	DriftInSync DriftKind = "in_sync"
	// DriftStale: backend says active, chain says inactive.
	DriftStale DriftKind = "stale"
	// DriftDiverged: backend says cancelled, chain still active.
	DriftDiverged DriftKind = "diverged"
	// DriftUnrecorded: active on chain, no backend record references it.
	DriftUnrecorded DriftKind = "unrecorded"
	// DriftUnknown: the chain read failed.
	DriftUnknown DriftKind = "unknown"
)

type DriftEntry struct {
	Kind      DriftKind            `json:"kind"`
	OnChainID *big.Int             `json:"onChainId"`
	Record    *Subscription        `json:"record,omitempty"`
	OnChain   *OnChainSubscription `json:"onChain,omitempty"`
}

// DetectDrift compares backend records against chain records keyed by the
// decimal on-chain id. Records without an on-chain id are skipped; inactive
// chain records nobody references are ignored.
func DetectDrift(records []*Subscription, onChain map[string]*OnChainSubscription) []DriftEntry {
	var entries []DriftEntry
	referenced := make(map[string]bool, len(records))

	for _, r := range records {
		if !r.HasOnChainID() {
			continue
		}
		key := r.OnChainSubscriptionID.String()
		referenced[key] = true

		chain, ok := onChain[key]
		entry := DriftEntry{OnChainID: r.OnChainSubscriptionID, Record: r, OnChain: chain}
		switch {
		case !ok || chain == nil:
			entry.Kind = DriftUnknown
		case r.BackendActive() && !chain.Active:
			entry.Kind = DriftStale
		case r.BackendCancelled() && chain.Active:
			entry.Kind = DriftDiverged
		default:
			entry.Kind = DriftInSync
		}
		entries = append(entries, entry)
	}

	var unrecorded []DriftEntry
	for key, chain := range onChain {
		if referenced[key] || chain == nil || !chain.Active {
			continue
		}
		id, ok := new(big.Int).SetString(key, 10)
		if !ok {
			continue
		}
		unrecorded = append(unrecorded, DriftEntry{Kind: DriftUnrecorded, OnChainID: id, OnChain: chain})
	}
	sort.Slice(unrecorded, func(i, j int) bool {
		return unrecorded[i].OnChainID.Cmp(unrecorded[j].OnChainID) < 0
	})

	return append(entries, unrecorded...)
}
