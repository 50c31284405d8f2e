package provers

import (
	"context"
	"testing"

	"github.com/sdprotocol/ups-engine/types"
)

func TestMockNetworkStateFetchUserLeaf(t *testing.T) {
	net := NewMockNetworkState(types.CheckpointRef{BlockNumber: 1})
	net.SetUserLeaf("alice", types.UserLeafCtx{Balance: 500})

	leaf, err := net.FetchUserLeaf(context.Background(), "alice", types.CheckpointRef{})
	if err != nil {
		t.Fatalf("FetchUserLeaf: %v", err)
	}
	if leaf.Balance != 500 {
		t.Fatalf("expected balance 500, got %d", leaf.Balance)
	}

	if _, err := net.FetchUserLeaf(context.Background(), "bob", types.CheckpointRef{}); err == nil {
		t.Fatal("expected not-found for an unregistered user")
	}
}

func TestMockProverProveCfcDeterministic(t *testing.T) {
	prover := MockProver{}
	cfc := types.CfcId{ContractId: "token", FunctionName: "transfer"}
	inputs := types.CfcInputs{FunctionArgs: []byte("args")}

	_, end1, err := prover.ProveCfc(context.Background(), cfc, inputs, types.ZeroHash)
	if err != nil {
		t.Fatalf("ProveCfc: %v", err)
	}
	_, end2, _ := prover.ProveCfc(context.Background(), cfc, inputs, types.ZeroHash)
	if end1.EndContractStateRoot != end2.EndContractStateRoot {
		t.Fatal("ProveCfc should be deterministic given identical inputs")
	}
}

func TestMockSubmitterRecordsCalls(t *testing.T) {
	sub := &MockSubmitter{}
	endcap := types.EndCapProof{FinalStep: types.UpsStepProof{AccumulatedProof: []byte("p")}}

	receipt, err := sub.SubmitEndcap(context.Background(), endcap, nil, []byte("transport-key"))
	if err != nil {
		t.Fatalf("SubmitEndcap: %v", err)
	}
	if receipt.ReceiptId == "" {
		t.Fatal("expected a non-empty receipt id")
	}
	if len(sub.Received) != 1 {
		t.Fatalf("expected 1 recorded submission, got %d", len(sub.Received))
	}
}
