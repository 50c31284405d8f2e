// Package state implements the UCON/CSTATE dual-level state model (§4.2):
// a per-contract key-value store (CSTATE) aggregated into a per-user root
// (UCON), both deterministic accumulators over sorted pairs rather than a
// true sparse Merkle tree. Grounded on the root-recomputation-on-write
// pattern in rollup/state_proof.go and rollup/anchor_state.go, and on the
// exact sort-then-hash algorithm in original_source's state.rs.
package state

import (
	"sort"

	"github.com/sdprotocol/ups-engine/hashutil"
	"github.com/sdprotocol/ups-engine/types"
)

// Cstate is a contract's key-value state: a map of slot to raw value, with
// a root kept in sync on every write.
type Cstate struct {
	contractId types.ContractId
	slots      map[uint64][]byte
	root       types.Hash
}

// NewCstate returns an empty CSTATE for contractId; its root is the
// all-zero hash until a slot is written.
func NewCstate(contractId types.ContractId) *Cstate {
	return &Cstate{
		contractId: contractId,
		slots:      make(map[uint64][]byte),
		root:       types.ZeroHash,
	}
}

// ContractId returns the contract this CSTATE belongs to.
func (c *Cstate) ContractId() types.ContractId { return c.contractId }

// Root returns the current root.
func (c *Cstate) Root() types.Hash { return c.root }

// WriteSlot sets slot to value and recomputes the root. A write that
// leaves the map unchanged (same slot, identical bytes) still leaves the
// root unchanged, since the root is purely a function of the final
// mapping (§4.2 invariant).
func (c *Cstate) WriteSlot(slot uint64, value []byte) {
	c.slots[slot] = value
	c.root = RecomputeCstateRoot(c.slots)
}

// SetRoot overwrites the current root directly, bypassing slot-based
// recomputation, for a caller that already holds an externally-proven root
// (e.g. the EndContractStateRoot a Prover returns for a CFC call) rather
// than the individual slot writes behind it.
func (c *Cstate) SetRoot(root types.Hash) {
	c.root = root
}

// ReadSlot returns the value at slot and whether it has ever been written.
func (c *Cstate) ReadSlot(slot uint64) ([]byte, bool) {
	v, ok := c.slots[slot]
	return v, ok
}

// Slots returns a snapshot copy of the slot map.
func (c *Cstate) Slots() map[uint64][]byte {
	out := make(map[uint64][]byte, len(c.slots))
	for k, v := range c.slots {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// RecomputeCstateRoot computes a CSTATE root deterministically from a slot
// map (§4.2): sort by slot ascending, feed slot.leBytes() || value into a
// running hash, and take the final digest. This is order-independent by
// construction — two CSTATEs with the same mapping always agree on a root
// regardless of write history.
func RecomputeCstateRoot(slots map[uint64][]byte) types.Hash {
	if len(slots) == 0 {
		return types.ZeroHash
	}
	keys := make([]uint64, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([][]byte, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, hashutil.Uint64LE(k), slots[k])
	}
	return hashutil.H(parts...)
}

// GenerateDeltaProof builds a CstateDeltaProof witnessing the transition
// from oldRoot to the CSTATE's current root.
func (c *Cstate) GenerateDeltaProof(oldRoot types.Hash) types.CstateDeltaProof {
	keys := make([]uint64, 0, len(c.slots))
	for k := range c.slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	leaves := make([]types.ModifiedLeaf, 0, len(keys))
	for _, k := range keys {
		leaves = append(leaves, types.ModifiedLeaf{
			Slot:     k,
			NewValue: hashutil.H(c.slots[k]),
		})
	}

	return types.CstateDeltaProof{
		OldRoot:        oldRoot,
		NewRoot:        c.root,
		MerklePath:     nil,
		ModifiedLeaves: leaves,
	}
}
