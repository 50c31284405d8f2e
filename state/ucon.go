package state

import (
	"sort"

	"github.com/sdprotocol/ups-engine/hashutil"
	"github.com/sdprotocol/ups-engine/types"
)

// Ucon is a user's aggregate of per-contract CSTATE roots, with a root kept
// in sync on every update.
type Ucon struct {
	userId         types.UserId
	contractStates map[types.ContractId]types.Hash
	root           types.Hash
}

// NewUcon returns an empty UCON for userId.
func NewUcon(userId types.UserId) *Ucon {
	return &Ucon{
		userId:         userId,
		contractStates: make(map[types.ContractId]types.Hash),
		root:           types.ZeroHash,
	}
}

// UserId returns the owning user.
func (u *Ucon) UserId() types.UserId { return u.userId }

// Root returns the current UCON root.
func (u *Ucon) Root() types.Hash { return u.root }

// UpdateContractState sets the CSTATE root recorded for contractId and
// recomputes the UCON root.
func (u *Ucon) UpdateContractState(contractId types.ContractId, newRoot types.Hash) {
	u.contractStates[contractId] = newRoot
	u.root = RecomputeUconRoot(u.contractStates)
}

// ContractState returns the CSTATE root recorded for contractId, or the
// zero hash if the contract has never been touched in this UCON.
func (u *Ucon) ContractState(contractId types.ContractId) (types.Hash, bool) {
	h, ok := u.contractStates[contractId]
	return h, ok
}

// RecomputeUconRoot computes a UCON root deterministically from a
// contractId->CSTATE-root map (§4.2): sort entries by contract id bytes
// ascending, concatenate contractIdBytes || stateRoot, hash.
func RecomputeUconRoot(contractStates map[types.ContractId]types.Hash) types.Hash {
	if len(contractStates) == 0 {
		return types.ZeroHash
	}
	keys := make([]types.ContractId, 0, len(contractStates))
	for k := range contractStates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([][]byte, 0, len(keys)*2)
	for _, k := range keys {
		h := contractStates[k]
		parts = append(parts, []byte(k), h.Bytes())
	}
	return hashutil.H(parts...)
}
