package host

import (
	"context"
	"testing"

	"github.com/sdprotocol/ups-engine/cft"
	"github.com/sdprotocol/ups-engine/provers"
	"github.com/sdprotocol/ups-engine/types"
)

func newTestHost(t *testing.T) (*Host, types.CftInclusionProof, types.CfcFingerprint) {
	t.Helper()

	fingerprint := types.CfcFingerprint("token:transfer")
	root := cft.Build([]types.CfcFingerprint{fingerprint})
	proof, err := cft.GenerateProof([]types.CfcFingerprint{fingerprint}, 0)
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}
	proof.CftRoot = root

	net := provers.NewMockNetworkState(types.CheckpointRef{BlockNumber: 42})
	net.SetUserLeaf("alice", types.UserLeafCtx{Balance: 1000, Nonce: 1, UconRoot: types.ZeroHash})
	net.SetContractRoot("token", root)

	return New(net), proof, fingerprint
}

func TestOpenSessionExecFinalizeSubmit(t *testing.T) {
	h, proof, fingerprint := newTestHost(t)
	ctx := context.Background()

	opened, err := h.OpenSession(ctx, "alice")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if opened.Handle == "" {
		t.Fatal("expected a non-empty handle")
	}

	path := make([]string, len(proof.MerklePath))
	for i, sibling := range proof.MerklePath {
		path[i] = sibling.Hex()
	}

	execResult, err := h.ExecCfc(ctx, opened.Handle, ExecCfcRequest{
		ContractId:    "token",
		FunctionName:  "transfer",
		ArgsJSON:      `{"to":"bob","amount":100}`,
		Fingerprint:   string(fingerprint),
		CftMerklePath: path,
		CftRootHex:    types.Hash(proof.CftRoot).Hex(),
	})
	if err != nil {
		t.Fatalf("ExecCfc: %v", err)
	}
	if !execResult.Success {
		t.Fatal("expected ExecCfc to succeed")
	}

	finalized, err := h.FinalizeEndCap(ctx, opened.Handle, types.SdkeyPolicy{}, "")
	if err != nil {
		t.Fatalf("FinalizeEndCap: %v", err)
	}
	if finalized.SessionId != opened.SessionId {
		t.Fatalf("expected session id %q, got %q", opened.SessionId, finalized.SessionId)
	}
	if finalized.StepCount != 1 {
		t.Fatalf("expected step count 1, got %d", finalized.StepCount)
	}

	submitter := &provers.MockSubmitter{}
	submitted, err := h.SubmitEndCap(ctx, opened.Handle, types.SdkeyPolicy{}, "", submitter)
	if err != nil {
		t.Fatalf("SubmitEndCap: %v", err)
	}
	if submitted.ReceiptId == "" {
		t.Fatal("expected a non-empty receipt id")
	}

	info, err := h.GetSessionInfo(opened.Handle)
	if err != nil {
		t.Fatalf("GetSessionInfo: %v", err)
	}
	if info.UserId != "alice" {
		t.Fatalf("expected userId alice, got %q", info.UserId)
	}
	if info.StepCount != 1 {
		t.Fatalf("expected step count 1, got %d", info.StepCount)
	}
}

func TestLookupUnknownHandle(t *testing.T) {
	h, _, _ := newTestHost(t)
	if _, err := h.GetSessionInfo("does-not-exist"); err == nil {
		t.Fatal("expected an error for an unknown handle")
	}
}

func TestExecCfcRejectsUnwhitelistedFingerprint(t *testing.T) {
	h, proof, _ := newTestHost(t)
	ctx := context.Background()

	opened, err := h.OpenSession(ctx, "alice")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	path := make([]string, len(proof.MerklePath))
	for i, sibling := range proof.MerklePath {
		path[i] = sibling.Hex()
	}

	execResult, err := h.ExecCfc(ctx, opened.Handle, ExecCfcRequest{
		ContractId:    "token",
		FunctionName:  "transfer",
		ArgsJSON:      `{"to":"bob","amount":100}`,
		Fingerprint:   "not-a-real-fingerprint",
		CftMerklePath: path,
		CftRootHex:    types.Hash(proof.CftRoot).Hex(),
	})
	if err != nil {
		t.Fatalf("ExecCfc should return success with the rejection recorded on the item: %v", err)
	}
	if execResult.Success {
		t.Fatal("expected a failed result for a fingerprint not in the CFT")
	}
}
