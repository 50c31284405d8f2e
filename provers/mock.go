// Package provers supplies reference implementations of the session
// collaborator interfaces (session.NetworkState, session.Prover,
// session.Submitter): in-memory mocks for tests and demos, and an SDKey
// signing backend that can be swapped between a deterministic stand-in and
// a real BLS12-381 signer via the "blst" build tag. Grounded on
// proofs/mock.go's "always valid" mock style.
package provers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/sdprotocol/ups-engine/hashutil"
	"github.com/sdprotocol/ups-engine/types"
)

// MockNetworkState serves a fixed checkpoint and a mutable table of user
// leaves and contract metadata, all held in memory.
type MockNetworkState struct {
	mu            sync.Mutex
	Checkpoint    types.CheckpointRef
	UserLeaves    map[types.UserId]types.UserLeafCtx
	ContractRoots map[types.ContractId]types.CftRoot
}

// NewMockNetworkState returns a MockNetworkState pinned at checkpoint.
func NewMockNetworkState(checkpoint types.CheckpointRef) *MockNetworkState {
	return &MockNetworkState{
		Checkpoint:    checkpoint,
		UserLeaves:    make(map[types.UserId]types.UserLeafCtx),
		ContractRoots: make(map[types.ContractId]types.CftRoot),
	}
}

// SetUserLeaf registers the leaf context FetchUserLeaf returns for userId.
func (m *MockNetworkState) SetUserLeaf(userId types.UserId, leaf types.UserLeafCtx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserLeaves[userId] = leaf
}

// SetContractRoot registers the CFT root FetchContractMeta returns for
// contractId.
func (m *MockNetworkState) SetContractRoot(contractId types.ContractId, root types.CftRoot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContractRoots[contractId] = root
}

func (m *MockNetworkState) LatestFinalizedChkp(context.Context) (types.CheckpointRef, error) {
	return m.Checkpoint, nil
}

func (m *MockNetworkState) FetchUserLeaf(_ context.Context, userId types.UserId, _ types.CheckpointRef) (types.UserLeafCtx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	leaf, ok := m.UserLeaves[userId]
	if !ok {
		return types.UserLeafCtx{}, fmt.Errorf("%w: user leaf for %q", types.ErrNotFound, userId)
	}
	return leaf, nil
}

func (m *MockNetworkState) FetchContractMeta(_ context.Context, contractId types.ContractId) (types.CftRoot, types.CstateHeight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	root, ok := m.ContractRoots[contractId]
	if !ok {
		return types.CftRoot{}, 0, fmt.Errorf("%w: contract meta for %q", types.ErrNotFound, contractId)
	}
	return root, 0, nil
}

func (m *MockNetworkState) FetchCstateLeaf(context.Context, types.ContractId, uint64, types.CheckpointRef) ([]byte, []types.Hash, error) {
	return nil, nil, nil
}

// MockProver folds proofs deterministically by hashing its inputs instead
// of running a real circuit, so tests can assert on exact proof bytes.
type MockProver struct{}

func (MockProver) ProveCfc(_ context.Context, cfc types.CfcId, inputs types.CfcInputs, startCstateRoot types.Hash) (types.CfcProof, types.TxEndCtx, error) {
	end := hashutil.H([]byte(cfc.ContractId), []byte(cfc.FunctionName), inputs.FunctionArgs, startCstateRoot.Bytes())
	txEnd := types.TxEndCtx{EndContractStateRoot: end, GasUsed: 21000, Success: true}
	proof := types.CfcProof{ProofData: end.Bytes(), TxEndCtx: txEnd}
	return proof, txEnd, nil
}

func (MockProver) UpsIntegrateStep(_ context.Context, prev types.UpsStepProof, cfcProof types.CfcProof, cftProof types.CftInclusionProof, ucon types.UconDeltaProof, debts types.DebtDeltaProof) (types.UpsStepProof, error) {
	folded := hashutil.H(prev.AccumulatedProof, cfcProof.ProofData, ucon.NewRoot.Bytes())
	return types.UpsStepProof{
		StepNumber:       prev.StepNumber + 1,
		AccumulatedProof: folded.Bytes(),
		CurrentUconRoot:  ucon.NewRoot,
		CurrentDebts:     debts.NewDebts,
	}, nil
}

func (MockProver) FinalizeEndcap(_ context.Context, lastStep types.UpsStepProof, sig types.SignatureProof) (types.EndCapProof, error) {
	return types.EndCapProof{FinalStep: lastStep, SignatureProof: sig}, nil
}

func (MockProver) SignWithSdkey(_ context.Context, message []byte, policy types.SdkeyPolicy) (types.SignatureProof, error) {
	d := sha256.Sum256(message)
	satisfied := []string{"mock-signature"}
	if policy.DailyLimit != nil {
		satisfied = append(satisfied, "daily-limit-checked")
	}
	return types.SignatureProof{ProofData: d[:], PolicySatisfied: satisfied}, nil
}

// MockSubmitter accepts any end cap and returns a receipt derived from its
// hash, recording every call for test assertions.
type MockSubmitter struct {
	mu       sync.Mutex
	Received []types.EndCapProof
}

// SubmitEndcap mixes transportKey into the receipt id, standing in for a
// real submitter binding the key into the request's authentication tag: two
// identical end caps submitted under different session secrets get
// different receipt ids.
func (m *MockSubmitter) SubmitEndcap(_ context.Context, endcap types.EndCapProof, _ []types.CstateDelta, transportKey []byte) (types.SubmitReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Received = append(m.Received, endcap)
	h := hashutil.H(endcap.FinalStep.AccumulatedProof, endcap.SignatureProof.ProofData, transportKey)
	return types.SubmitReceipt{ReceiptId: h.Hex(), Timestamp: endcap.Timestamp}, nil
}
