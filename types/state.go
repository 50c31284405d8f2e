package types

// Cstate is a contract's key-value state: a map of slot to raw value,
// aggregated into a single root by state.RecomputeCstateRoot.
type Cstate struct {
	ContractId ContractId
	Slots      map[uint64][]byte
	Root       Hash
}

// Ucon is a user's aggregate of per-contract CSTATE roots, itself rooted by
// state.RecomputeUconRoot.
type Ucon struct {
	UserId         UserId
	ContractStates map[ContractId]Hash
	Root           Hash
}

// CstateDeltaProof witnesses a legal transition of one CSTATE from OldRoot
// to NewRoot.
type CstateDeltaProof struct {
	OldRoot        Hash            `json:"oldRoot"`
	NewRoot        Hash            `json:"newRoot"`
	MerklePath     []Hash          `json:"merklePath"`
	ModifiedLeaves []ModifiedLeaf  `json:"modifiedLeaves"`
}

// ModifiedLeaf pairs a slot index with the hash of its new value.
type ModifiedLeaf struct {
	Slot     uint64 `json:"slot"`
	NewValue Hash   `json:"newValue"`
}

// UconDeltaProof lifts a CstateDeltaProof into the containing UCON.
type UconDeltaProof struct {
	OldRoot      Hash             `json:"oldRoot"`
	NewRoot      Hash             `json:"newRoot"`
	ContractId   ContractId       `json:"contractId"`
	CstateDelta  CstateDeltaProof `json:"cstateDelta"`
}

// ContractDebt pairs a contract with an outstanding debt amount. Carried
// unchanged through a UPS step per spec.md §4.6 step 4.
type ContractDebt struct {
	ContractId ContractId `json:"contractId"`
	Amount     uint64     `json:"amount"`
}

// DebtDeltaProof is threaded through each UPS integration step. This core
// passes it through unchanged (old == new) rather than computing a real
// debt transition, matching the original model's simplification.
type DebtDeltaProof struct {
	OldDebts []ContractDebt `json:"oldDebts"`
	NewDebts []ContractDebt `json:"newDebts"`
}

// ParthTransfer is the inbox-style transfer record written by both sides
// of a PARTH transfer: the sender into slot 1000+timestamp of its own
// CSTATE, the receiver (after reading history) into slot 2000+timestamp of
// its own. There is no atomic cross-user write (§4.2).
type ParthTransfer struct {
	From      UserId `json:"from"`
	To        UserId `json:"to"`
	Amount    uint64 `json:"amount"`
	Timestamp uint64 `json:"timestamp"`
}

// ParthSendSlotBase and ParthClaimSlotBase are the fixed slot offsets used
// to derive a PARTH transfer's slot number from its timestamp.
const (
	ParthSendSlotBase  = 1000
	ParthClaimSlotBase = 2000
)
