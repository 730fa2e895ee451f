package domain

// NetworkType distinguishes mainnet and testnet chain-registry entries.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// HeightUnknown is the sentinel for "latest block height not determined".
// Callers must never treat it as a real height.
const HeightUnknown int64 = -1

// Sources an accepted upgrade can come from.
const (
	SourceActiveProposals = "active_upgrade_proposals"
	SourceCurrentPlan     = "current_upgrade_plan"
)

// Endpoint is one registry-listed node address. Identity is the address;
// the provider name is opaque and carried through untouched.
type Endpoint struct {
	Address  string `json:"address"`
	Provider string `json:"provider"`
}

// UpgradeInfo is a detected software upgrade: its extracted semantic
// version and the target block height.
type UpgradeInfo struct {
	Version string
	Height  int64
}

// NetworkResult is the per-network outcome of one scan. It is built once
// and never mutated afterwards; UpgradeFound holds iff Version is set.
type NetworkResult struct {
	Type               NetworkType `json:"type"`
	Network            string      `json:"network"`
	UpgradeFound       bool        `json:"upgrade_found"`
	LatestBlockHeight  int64       `json:"latest_block_height"`
	UpgradeBlockHeight *int64      `json:"upgrade_block_height"`
	Version            string      `json:"version"`
	RPCServer          string      `json:"rpc_server"`
	Source             string      `json:"source"`
}
