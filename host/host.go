// Package host implements the hex/JSON API boundary a UPS session is
// driven through from outside Go (§6): a small handle-keyed registry of
// open sessions, and one method per session lifecycle step returning plain
// JSON-friendly values. Grounded on rpc/api_proof.go's request-handling and
// hex-encoding conventions and on original_source's session.rs WASM
// binding for the exact method set (openSession/execCfc/finalizeEndcap/
// submitEndcap/getSessionInfo), generalized from that binding's single
// fixed session into a handle-keyed registry so a host process can drive
// more than one session at once.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sdprotocol/ups-engine/cft"
	"github.com/sdprotocol/ups-engine/provers"
	"github.com/sdprotocol/ups-engine/session"
	"github.com/sdprotocol/ups-engine/types"
)

// sessionEntry pairs a session with the lock that serializes access to it.
// session.Session is explicitly not safe for concurrent use, so every Host
// method that touches one holds entry.mu for the duration of the call
// rather than just around the registry lookup.
type sessionEntry struct {
	mu sync.Mutex
	s  *session.Session
}

// Host holds a registry of open sessions, each keyed by the session id
// handed back from OpenSession.
type Host struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	network *provers.MockNetworkState
	prover  provers.MockProver
}

// New returns a Host wired to an in-memory mock network and prover, the
// same defaults the original WASM binding wires a browser demo to.
func New(network *provers.MockNetworkState) *Host {
	return &Host{
		sessions: make(map[string]*sessionEntry),
		network:  network,
	}
}

// OpenSessionResult is the JSON response of OpenSession.
type OpenSessionResult struct {
	Handle    string `json:"handle"`
	UserId    string `json:"userId"`
	SessionId string `json:"sessionId"`
}

// OpenSession opens a new session for userId and returns a handle future
// calls are addressed by.
func (h *Host) OpenSession(ctx context.Context, userId string) (OpenSessionResult, error) {
	s, err := session.Open(ctx, types.UserId(userId), h.network, h.prover)
	if err != nil {
		return OpenSessionResult{}, err
	}

	h.mu.Lock()
	h.sessions[s.Header().SessionId] = &sessionEntry{s: s}
	h.mu.Unlock()

	return OpenSessionResult{
		Handle:    s.Header().SessionId,
		UserId:    userId,
		SessionId: s.Header().SessionId,
	}, nil
}

// ExecCfcRequest is the JSON request body for ExecCfc.
type ExecCfcRequest struct {
	ContractId   string `json:"contractId"`
	FunctionName string `json:"functionName"`
	ArgsJSON     string `json:"argsJson"`
	Fingerprint  string `json:"fingerprint"`
	// CftMerklePath is the hex-encoded sibling hashes of the inclusion
	// proof, in bottom-up order.
	CftMerklePath []string `json:"cftMerklePath"`
	CftRootHex    string   `json:"cftRootHex"`
}

// ExecCfcResult is the JSON response of ExecCfc.
type ExecCfcResult struct {
	Success    bool   `json:"success"`
	GasUsed    uint64 `json:"gasUsed"`
	StateRoot  string `json:"stateRoot"`
}

// ExecCfc previews then executes one CFC call against handle's session.
func (h *Host) ExecCfc(ctx context.Context, handle string, req ExecCfcRequest) (ExecCfcResult, error) {
	entry, err := h.lookup(handle)
	if err != nil {
		return ExecCfcResult{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.s

	cfcId := types.CfcId{ContractId: types.ContractId(req.ContractId), FunctionName: req.FunctionName}
	index, _, err := s.Preview(cfcId, req.ArgsJSON)
	if err != nil {
		return ExecCfcResult{}, err
	}

	path := make([]types.Hash, len(req.CftMerklePath))
	for i, hexSibling := range req.CftMerklePath {
		path[i] = types.BytesToHash(common.FromHex(hexSibling))
	}
	proof := types.CftInclusionProof{
		MerklePath: path,
		CftRoot:    types.CftRoot(types.BytesToHash(common.FromHex(req.CftRootHex))),
	}

	inputs := types.CfcInputs{
		FunctionArgs:      []byte(req.ArgsJSON),
		Caller:            s.Header().UserId,
		ContractStateRoot: types.ZeroHash,
	}

	txEnd, err := s.ExecuteCfc(ctx, index, cfcId, inputs, types.CfcFingerprint(req.Fingerprint), proof)
	if err != nil {
		return ExecCfcResult{}, err
	}

	return ExecCfcResult{
		Success:   txEnd.Success,
		GasUsed:   txEnd.GasUsed,
		StateRoot: common.Bytes2Hex(txEnd.EndContractStateRoot.Bytes()),
	}, nil
}

// FinalizeEndCapResult is the JSON response of FinalizeEndCap.
type FinalizeEndCapResult struct {
	SessionId string `json:"sessionId"`
	StepCount uint32 `json:"stepCount"`
	Timestamp uint64 `json:"timestamp"`
	UconRoot  string `json:"uconRoot"`
}

// FinalizeEndCap seals handle's session against sdkeyPolicy and returns a
// summary of the resulting end cap.
func (h *Host) FinalizeEndCap(ctx context.Context, handle string, sdkeyPolicy types.SdkeyPolicy, verifierDataHex string) (FinalizeEndCapResult, error) {
	entry, err := h.lookup(handle)
	if err != nil {
		return FinalizeEndCapResult{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.s

	endcap, err := s.Finalize(ctx, sdkeyPolicy, common.FromHex(verifierDataHex))
	if err != nil {
		return FinalizeEndCapResult{}, err
	}

	return FinalizeEndCapResult{
		SessionId: endcap.UpsHeader.SessionId,
		StepCount: endcap.FinalStep.StepNumber,
		Timestamp: endcap.Timestamp,
		UconRoot:  common.Bytes2Hex(endcap.FinalStep.CurrentUconRoot.Bytes()),
	}, nil
}

// SubmitEndCapResult is the JSON response of SubmitEndCap.
type SubmitEndCapResult struct {
	ReceiptId  string  `json:"receiptId"`
	Timestamp  uint64  `json:"timestamp"`
	GlobalRoot *string `json:"globalRoot,omitempty"`
}

// SubmitEndCap finalizes and submits handle's session in one step,
// matching the original WASM binding's submit_endcap, which re-finalizes
// before submitting rather than requiring a prior FinalizeEndCap call.
func (h *Host) SubmitEndCap(ctx context.Context, handle string, sdkeyPolicy types.SdkeyPolicy, verifierDataHex string, submitter session.Submitter) (SubmitEndCapResult, error) {
	entry, err := h.lookup(handle)
	if err != nil {
		return SubmitEndCapResult{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.s

	endcap, err := s.Finalize(ctx, sdkeyPolicy, common.FromHex(verifierDataHex))
	if err != nil {
		return SubmitEndCapResult{}, err
	}

	receipt, err := s.Submit(ctx, submitter, endcap)
	if err != nil {
		return SubmitEndCapResult{}, err
	}

	result := SubmitEndCapResult{ReceiptId: receipt.ReceiptId, Timestamp: receipt.Timestamp}
	if receipt.GutaPath != nil {
		root := common.Bytes2Hex(receipt.GutaPath.GlobalRoot.Bytes())
		result.GlobalRoot = &root
	}
	return result, nil
}

// SessionInfoResult is the JSON response of GetSessionInfo.
type SessionInfoResult struct {
	UserId      string `json:"userId"`
	SessionId   string `json:"sessionId"`
	BlockNumber uint64 `json:"blockNumber"`
	StepCount   uint32 `json:"stepCount"`
	Balance     uint64 `json:"balance"`
	Nonce       uint64 `json:"nonce"`
}

// GetSessionInfo returns a snapshot of handle's session.
func (h *Host) GetSessionInfo(handle string) (SessionInfoResult, error) {
	entry, err := h.lookup(handle)
	if err != nil {
		return SessionInfoResult{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := entry.s
	header := s.Header()
	step := s.CurrentStep()

	return SessionInfoResult{
		UserId:      string(header.UserId),
		SessionId:   header.SessionId,
		BlockNumber: header.CheckpointRef.BlockNumber,
		StepCount:   step.StepNumber,
		Balance:     header.UserLeafCtx.Balance,
		Nonce:       header.UserLeafCtx.Nonce,
	}, nil
}

func (h *Host) lookup(handle string) (*sessionEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.sessions[handle]
	if !ok {
		return nil, fmt.Errorf("%w: session handle %q", types.ErrNotFound, handle)
	}
	return entry, nil
}

// VerifyCftInclusionJSON is a host-friendly wrapper around cft.Verify that
// takes its inclusion proof as JSON, for hosts that keep proofs on the
// wire instead of constructing types.CftInclusionProof directly.
func VerifyCftInclusionJSON(fingerprint string, proofJSON []byte) (bool, error) {
	var proof types.CftInclusionProof
	if err := json.Unmarshal(proofJSON, &proof); err != nil {
		return false, fmt.Errorf("%w: cft inclusion proof: %s", types.ErrSerializationError, err)
	}
	return cft.Verify(types.CfcFingerprint(fingerprint), proof), nil
}
