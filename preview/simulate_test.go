package preview

import (
	"testing"

	"github.com/sdprotocol/ups-engine/types"
)

func defaultPolicy() types.SdkeyPolicy {
	limit := uint64(10000)
	return types.SdkeyPolicy{DailyLimit: &limit}
}

func TestSimulateTransfer(t *testing.T) {
	// S5 from spec.md §8.
	userLeaf := types.UserLeafCtx{Balance: 1000}
	cfcId := types.CfcId{ContractId: "token", FunctionName: "transfer"}

	result, err := Simulate(cfcId, `{"to":"bob","amount":100}`, userLeaf, defaultPolicy())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(result.SlotsToModify) != 1 {
		t.Fatalf("expected 1 slot modification, got %d", len(result.SlotsToModify))
	}
	if len(result.BalanceChanges) != 2 {
		t.Fatalf("expected 2 balance changes, got %d", len(result.BalanceChanges))
	}
	if result.BalanceChanges[0].NewBalance != 900 || result.BalanceChanges[1].NewBalance != 100 {
		t.Fatalf("unexpected balance changes: %+v", result.BalanceChanges)
	}
	if result.WillTriggerLimit || result.Requires2fa {
		t.Fatal("100 against a 10000 limit should not trigger limit or 2FA")
	}
}

func TestSimulateTransferTriggersLimit(t *testing.T) {
	// S3 from spec.md §8.
	limit := uint64(1000)
	policy := types.SdkeyPolicy{DailyLimit: &limit}
	userLeaf := types.UserLeafCtx{Balance: 100000}
	cfcId := types.CfcId{ContractId: "token", FunctionName: "transfer"}

	result, err := Simulate(cfcId, `{"to":"x","amount":1500}`, userLeaf, policy)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !result.WillTriggerLimit || !result.Requires2fa {
		t.Fatal("amount exceeding daily limit must set willTriggerLimit and requires2fa")
	}
}

func TestSimulateTransferInsufficientBalance(t *testing.T) {
	userLeaf := types.UserLeafCtx{Balance: 10}
	cfcId := types.CfcId{ContractId: "token", FunctionName: "transfer"}

	_, err := Simulate(cfcId, `{"to":"bob","amount":100}`, userLeaf, defaultPolicy())
	if err == nil {
		t.Fatal("expected an error for an amount exceeding balance")
	}
}

func TestSimulateTransferMissingFields(t *testing.T) {
	userLeaf := types.UserLeafCtx{Balance: 1000}
	cfcId := types.CfcId{ContractId: "token", FunctionName: "transfer"}

	if _, err := Simulate(cfcId, `{"amount":100}`, userLeaf, defaultPolicy()); err == nil {
		t.Fatal("expected error for missing to")
	}
	if _, err := Simulate(cfcId, `{"to":"bob"}`, userLeaf, defaultPolicy()); err == nil {
		t.Fatal("expected error for missing amount")
	}
}

func TestSimulateInvalidJSON(t *testing.T) {
	cfcId := types.CfcId{ContractId: "token", FunctionName: "transfer"}
	if _, err := Simulate(cfcId, `not json`, types.UserLeafCtx{}, defaultPolicy()); err == nil {
		t.Fatal("expected error for invalid JSON args")
	}
}

func TestSimulateApprove(t *testing.T) {
	cfcId := types.CfcId{ContractId: "token", FunctionName: "approve"}
	result, err := Simulate(cfcId, `{"amount":50}`, types.UserLeafCtx{}, defaultPolicy())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(result.SlotsToModify) != 1 || result.SlotsToModify[0].SlotIndex != 1 {
		t.Fatalf("approve should modify slot 1, got %+v", result.SlotsToModify)
	}
}

func TestSimulateClaimDefaultAmount(t *testing.T) {
	cfcId := types.CfcId{ContractId: "token", FunctionName: "claim"}
	result, err := Simulate(cfcId, `{}`, types.UserLeafCtx{Balance: 0}, defaultPolicy())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(result.BalanceChanges) != 1 || result.BalanceChanges[0].NewBalance != 100 {
		t.Fatalf("claim with no amount should default to 100, got %+v", result.BalanceChanges)
	}
}

func TestSimulateUnknownFunction(t *testing.T) {
	cfcId := types.CfcId{ContractId: "token", FunctionName: "doSomethingElse"}
	result, err := Simulate(cfcId, `{}`, types.UserLeafCtx{}, defaultPolicy())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(result.SlotsToModify) != 0 || result.WillTriggerLimit || result.Requires2fa {
		t.Fatal("unknown function should predict no effects")
	}
}
