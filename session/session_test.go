package session

import (
	"context"
	"testing"

	"github.com/sdprotocol/ups-engine/cft"
	"github.com/sdprotocol/ups-engine/types"
)

type fakeNetwork struct {
	chkp         types.CheckpointRef
	userLeaf     types.UserLeafCtx
	contractRoot types.CftRoot
}

func (f *fakeNetwork) LatestFinalizedChkp(context.Context) (types.CheckpointRef, error) {
	return f.chkp, nil
}

func (f *fakeNetwork) FetchUserLeaf(context.Context, types.UserId, types.CheckpointRef) (types.UserLeafCtx, error) {
	return f.userLeaf, nil
}

func (f *fakeNetwork) FetchContractMeta(context.Context, types.ContractId) (types.CftRoot, types.CstateHeight, error) {
	return f.contractRoot, 0, nil
}

func (f *fakeNetwork) FetchCstateLeaf(context.Context, types.ContractId, uint64, types.CheckpointRef) ([]byte, []types.Hash, error) {
	return nil, nil, nil
}

type fakeProver struct {
	calls int
}

func (p *fakeProver) ProveCfc(_ context.Context, _ types.CfcId, _ types.CfcInputs, startCstateRoot types.Hash) (types.CfcProof, types.TxEndCtx, error) {
	p.calls++
	end := types.TxEndCtx{EndContractStateRoot: types.BytesToHash([]byte{byte(p.calls)}), Success: true}
	return types.CfcProof{TxEndCtx: end}, end, nil
}

func (p *fakeProver) UpsIntegrateStep(_ context.Context, prev types.UpsStepProof, cfcProof types.CfcProof, _ types.CftInclusionProof, _ types.UconDeltaProof, debtsDelta types.DebtDeltaProof) (types.UpsStepProof, error) {
	return types.UpsStepProof{
		StepNumber:       prev.StepNumber + 1,
		AccumulatedProof: append(prev.AccumulatedProof, cfcProof.ProofData...),
		CurrentUconRoot:  cfcProof.TxEndCtx.EndContractStateRoot,
		CurrentDebts:     debtsDelta.NewDebts,
	}, nil
}

func (p *fakeProver) FinalizeEndcap(_ context.Context, lastStep types.UpsStepProof, sig types.SignatureProof) (types.EndCapProof, error) {
	return types.EndCapProof{FinalStep: lastStep, SignatureProof: sig}, nil
}

func (p *fakeProver) SignWithSdkey(_ context.Context, _ []byte, _ types.SdkeyPolicy) (types.SignatureProof, error) {
	return types.SignatureProof{ProofData: []byte("sig")}, nil
}

type fakeSubmitter struct{}

func (fakeSubmitter) SubmitEndcap(_ context.Context, _ types.EndCapProof, deltas []types.CstateDelta, _ []byte) (types.SubmitReceipt, error) {
	return types.SubmitReceipt{ReceiptId: "r1"}, nil
}

func TestOpenSetsHeaderFromNetwork(t *testing.T) {
	network := &fakeNetwork{
		chkp:     types.CheckpointRef{BlockNumber: 100},
		userLeaf: types.UserLeafCtx{Balance: 1000, UconRoot: types.BytesToHash([]byte{9})},
	}
	s, err := Open(context.Background(), "alice", network, &fakeProver{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Header().UserId != "alice" {
		t.Fatal("header should carry the opening user id")
	}
	if s.CurrentStep().CurrentUconRoot != network.userLeaf.UconRoot {
		t.Fatal("initial step should seed CurrentUconRoot from the user leaf")
	}
}

func TestExecuteCfcRejectsNonWhitelistedFingerprint(t *testing.T) {
	fingerprints := []types.CfcFingerprint{"other-fn"}
	network := &fakeNetwork{userLeaf: types.UserLeafCtx{Balance: 1000}, contractRoot: cft.Build(fingerprints)}
	s, err := Open(context.Background(), "alice", network, &fakeProver{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cfcId := types.CfcId{ContractId: "token", FunctionName: "transfer"}
	index, _, _ := s.Preview(cfcId, `{"to":"bob","amount":100}`)

	proof, err := cft.GenerateProof(fingerprints, 0)
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	txEnd, err := s.ExecuteCfc(context.Background(), index, cfcId, types.CfcInputs{}, "not-whitelisted", proof)
	if err != nil {
		t.Fatalf("ExecuteCfc should return success with the rejection recorded on the item: %v", err)
	}
	if txEnd.Success {
		t.Fatal("expected a failed TxEndCtx for a fingerprint outside the CFT")
	}

	items := s.Queue().Items()
	if items[index].Status != types.StatusFailed {
		t.Fatalf("expected item forced to Failed, got %s", items[index].Status)
	}
}

func TestExecuteCfcFoldsStep(t *testing.T) {
	fingerprints := []types.CfcFingerprint{"token.transfer"}
	network := &fakeNetwork{userLeaf: types.UserLeafCtx{Balance: 1000}, contractRoot: cft.Build(fingerprints)}
	prover := &fakeProver{}
	s, err := Open(context.Background(), "alice", network, prover)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cfcId := types.CfcId{ContractId: "token", FunctionName: "transfer"}
	index, _, _ := s.Preview(cfcId, `{"to":"bob","amount":100}`)

	proof, err := cft.GenerateProof(fingerprints, 0)
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	_, err = s.ExecuteCfc(context.Background(), index, cfcId, types.CfcInputs{}, "token.transfer", proof)
	if err != nil {
		t.Fatalf("ExecuteCfc: %v", err)
	}
	if s.CurrentStep().StepNumber != 1 {
		t.Fatalf("expected step number 1 after one execution, got %d", s.CurrentStep().StepNumber)
	}

	items := s.Queue().Items()
	if items[index].Status != types.StatusSuccess {
		t.Fatalf("expected item to reach Success, got %s", items[index].Status)
	}
}

func TestFinalizeAndSubmit(t *testing.T) {
	network := &fakeNetwork{userLeaf: types.UserLeafCtx{Balance: 1000}}
	prover := &fakeProver{}
	s, err := Open(context.Background(), "alice", network, prover)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	endcap, err := s.Finalize(context.Background(), types.SdkeyPolicy{}, []byte("verifier"))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	receipt, err := s.Submit(context.Background(), fakeSubmitter{}, endcap)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.ReceiptId != "r1" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}
