package state

import (
	"encoding/json"
	"fmt"

	"github.com/sdprotocol/ups-engine/types"
)

// SendParthTransfer is the sender-side half of an inbox-style transfer
// (§4.2 "PARTH inbox transfer"): it records the transfer in the sender's
// own CSTATE at slot 1000+timestamp. There is no atomic cross-user write;
// the receiver settles independently via ClaimParthTransfer.
func SendParthTransfer(cstate *Cstate, transfer types.ParthTransfer) error {
	value, err := json.Marshal(transfer)
	if err != nil {
		return fmt.Errorf("%w: parth transfer: %s", types.ErrSerializationError, err)
	}
	slot := types.ParthSendSlotBase + transfer.Timestamp
	cstate.WriteSlot(slot, value)
	return nil
}

// ClaimParthTransfer is the receiver-side half: after reading history, the
// receiver records the same transfer in its own CSTATE at slot
// 2000+timestamp.
func ClaimParthTransfer(cstate *Cstate, transfer types.ParthTransfer) error {
	value, err := json.Marshal(transfer)
	if err != nil {
		return fmt.Errorf("%w: parth transfer: %s", types.ErrSerializationError, err)
	}
	slot := types.ParthClaimSlotBase + transfer.Timestamp
	cstate.WriteSlot(slot, value)
	return nil
}
