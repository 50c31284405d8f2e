// Package preview implements the read-only preview simulator (§4.3): given
// a candidate CFC invocation, it predicts slot modifications, balance
// changes, and whether the call would trigger a daily limit or require
// second-factor confirmation, without committing anything. Grounded on the
// guarded-arithmetic, sentinel-error style of rollup/execution_context.go
// and on original_source's preview.rs for the per-function dispatch table.
package preview

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/sdprotocol/ups-engine/hashutil"
	"github.com/sdprotocol/ups-engine/types"
)

const estimatedGas = 21000

// Simulate runs the preview for one CFC invocation and returns its
// predicted effects. It never mutates user-leaf or policy state.
func Simulate(cfcId types.CfcId, argsJSON string, userLeaf types.UserLeafCtx, policy types.SdkeyPolicy) (types.ReadOnlyPreviewResult, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return types.ReadOnlyPreviewResult{}, fmt.Errorf("%w: args: %s", types.ErrInvalidInput, err)
	}

	var (
		slots          []types.SlotModification
		balanceChanges []types.BalanceChange
		willTrigger    bool
		requires2fa    bool
		err            error
	)

	switch cfcId.FunctionName {
	case "transfer":
		slots, balanceChanges, willTrigger, requires2fa, err = previewTransfer(args, userLeaf, policy)
	case "approve":
		slots, balanceChanges, willTrigger, requires2fa, err = previewApprove(args, policy)
	case "claim":
		slots, balanceChanges, willTrigger, requires2fa, err = previewClaim(args, userLeaf)
	default:
		// Unknown functions: success with no predicted effects (§4.3).
	}
	if err != nil {
		return types.ReadOnlyPreviewResult{}, err
	}

	return types.ReadOnlyPreviewResult{
		Success:          true,
		SlotsToModify:    slots,
		BalanceChanges:   balanceChanges,
		WillTriggerLimit: willTrigger,
		Requires2fa:      requires2fa,
		EstimatedGas:     estimatedGas,
	}, nil
}

func previewTransfer(args map[string]any, userLeaf types.UserLeafCtx, policy types.SdkeyPolicy) ([]types.SlotModification, []types.BalanceChange, bool, bool, error) {
	amount, ok := argUint64(args, "amount")
	if !ok {
		return nil, nil, false, false, fmt.Errorf("%w: transfer: missing amount", types.ErrInvalidInput)
	}
	to, ok := argString(args, "to")
	if !ok {
		return nil, nil, false, false, fmt.Errorf("%w: transfer: missing to", types.ErrInvalidInput)
	}

	willTrigger := policy.DailyLimit != nil && amount > *policy.DailyLimit
	requires2fa := policy.Require2fa || willTrigger

	// Checked subtraction: the source model subtracts unconditionally and
	// can underflow (§9 open item 2). uint256.SubOverflow reports the
	// underflow instead of wrapping.
	oldBalance := new(uint256.Int).SetUint64(userLeaf.Balance)
	amt := new(uint256.Int).SetUint64(amount)
	newBalance := new(uint256.Int)
	if newBalance.SubOverflow(oldBalance, amt) {
		return nil, nil, false, false, fmt.Errorf("%w: transfer: amount %d exceeds balance %d", types.ErrInvalidInput, amount, userLeaf.Balance)
	}
	newBalanceU64 := newBalance.Uint64()

	slots := []types.SlotModification{
		{
			SlotIndex:   0,
			OldValue:    hashutil.Uint64LE(userLeaf.Balance),
			NewValue:    hashutil.Uint64LE(newBalanceU64),
			Description: fmt.Sprintf("balance slot: %d -> %d", userLeaf.Balance, newBalanceU64),
		},
	}

	balanceChanges := []types.BalanceChange{
		{
			Account:    "sender",
			OldBalance: userLeaf.Balance,
			NewBalance: newBalanceU64,
			Delta:      -int64(amount),
		},
		{
			Account:    types.UserId(to),
			OldBalance: 0,
			NewBalance: amount,
			Delta:      int64(amount),
		},
	}

	return slots, balanceChanges, willTrigger, requires2fa, nil
}

func previewApprove(args map[string]any, policy types.SdkeyPolicy) ([]types.SlotModification, []types.BalanceChange, bool, bool, error) {
	amount, _ := argUint64(args, "amount") // defaults to 0 when absent, per source

	slots := []types.SlotModification{
		{
			SlotIndex:   1,
			OldValue:    hashutil.Uint64LE(0),
			NewValue:    hashutil.Uint64LE(amount),
			Description: fmt.Sprintf("allowance slot: 0 -> %d", amount),
		},
	}
	return slots, nil, false, policy.Require2fa, nil
}

func previewClaim(args map[string]any, userLeaf types.UserLeafCtx) ([]types.SlotModification, []types.BalanceChange, bool, bool, error) {
	amount, ok := argUint64(args, "amount")
	if !ok {
		amount = 100
	}

	newBalance := new(uint256.Int).SetUint64(userLeaf.Balance)
	newBalance.Add(newBalance, new(uint256.Int).SetUint64(amount))
	newBalanceU64 := newBalance.Uint64()

	slots := []types.SlotModification{
		{
			SlotIndex:   0,
			OldValue:    hashutil.Uint64LE(userLeaf.Balance),
			NewValue:    hashutil.Uint64LE(newBalanceU64),
			Description: fmt.Sprintf("balance slot: %d -> %d", userLeaf.Balance, newBalanceU64),
		},
	}
	balanceChanges := []types.BalanceChange{
		{
			Account:    "recipient",
			OldBalance: userLeaf.Balance,
			NewBalance: newBalanceU64,
			Delta:      int64(amount),
		},
	}
	return slots, balanceChanges, false, false, nil
}

func argUint64(args map[string]any, key string) (uint64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0, false
	}
	return uint64(f), true
}

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
