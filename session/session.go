package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/sdprotocol/ups-engine/cft"
	"github.com/sdprotocol/ups-engine/log"
	"github.com/sdprotocol/ups-engine/metrics"
	"github.com/sdprotocol/ups-engine/policy"
	"github.com/sdprotocol/ups-engine/preview"
	"github.com/sdprotocol/ups-engine/queue"
	"github.com/sdprotocol/ups-engine/state"
	"github.com/sdprotocol/ups-engine/types"
)

var logger = log.Default().Module("session")

// Session is a single User Proving Session: it opens against a finalized
// checkpoint, accumulates CFC executions into a recursively folded proof,
// and finalizes/submits an end cap. A Session is not safe for concurrent
// use — one goroutine at a time, matching rollup/sequencer.go's single
// writer assumption for a pending batch.
type Session struct {
	header      types.UpsHeader
	currentStep types.UpsStepProof
	stateDeltas []types.CstateDelta

	ucon    *state.Ucon
	cstates map[types.ContractId]*state.Cstate

	network NetworkState
	prover  Prover

	queue  *queue.Queue
	secret []byte
}

// Open starts a new session for userId against the network's latest
// finalized checkpoint (§4.6 step 1: "UPS start"). The session id is
// derived from the checkpoint's block number and userId, so two sessions
// opened for the same user at the same checkpoint get the same id.
func Open(ctx context.Context, userId types.UserId, network NetworkState, prover Prover) (*Session, error) {
	chkp, err := network.LatestFinalizedChkp(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching finalized checkpoint: %s", types.ErrNetworkError, err)
	}
	userLeaf, err := network.FetchUserLeaf(ctx, userId, chkp)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching user leaf: %s", types.ErrNetworkError, err)
	}

	header := types.UpsHeader{
		UserId:        userId,
		CheckpointRef: chkp,
		UserLeafCtx:   userLeaf,
		SessionId:     "ups_" + strconv.FormatUint(chkp.BlockNumber, 10) + "_" + string(userId),
	}

	q := queue.New()
	q.SetUconRoots(userLeaf.UconRoot, userLeaf.UconRoot)

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("%w: generating session secret: %s", types.ErrInternalError, err)
	}

	logger.Info("session opened", "sessionId", header.SessionId, "userId", userId, "blockNumber", chkp.BlockNumber)
	metrics.SessionsOpened.Inc()
	metrics.ActiveSessions.Inc()

	return &Session{
		header: header,
		currentStep: types.UpsStepProof{
			StepNumber:       0,
			AccumulatedProof: nil,
			CurrentUconRoot:  userLeaf.UconRoot,
			CurrentDebts:     nil,
		},
		ucon:    state.NewUcon(userId),
		cstates: make(map[types.ContractId]*state.Cstate),
		network: network,
		prover:  prover,
		queue:   q,
		secret:  secret,
	}, nil
}

// Header returns the session's immutable header.
func (s *Session) Header() types.UpsHeader { return s.header }

// CurrentStep returns the most recently folded step proof.
func (s *Session) CurrentStep() types.UpsStepProof { return s.currentStep }

// Queue returns the session's UPS queue.
func (s *Session) Queue() *queue.Queue { return s.queue }

// Preview runs the read-only preview simulator for a candidate call without
// executing it, and records the result against a new pending queue item.
// Returns the new item's index.
func (s *Session) Preview(cfcId types.CfcId, argsJSON string) (uint32, types.ReadOnlyPreviewResult, error) {
	index := s.queue.Push(cfcId, argsJSON)

	result, err := preview.Simulate(cfcId, argsJSON, s.header.UserLeafCtx, types.SdkeyPolicy{})
	if err != nil {
		failed := types.ReadOnlyPreviewResult{Success: false, ErrorMessage: errMsg(err)}
		_ = s.queue.RecordPreview(index, failed)
		return index, failed, err
	}
	if err := s.queue.RecordPreview(index, result); err != nil {
		return index, result, err
	}
	return index, result, nil
}

// ExecuteCfc runs one CFC invocation against the CFT whitelist and folds
// its proof into the session's accumulated step (§4.6 step 2: "UPS
// integration"). index must name a queue item already in PreviewSuccess.
func (s *Session) ExecuteCfc(ctx context.Context, index uint32, cfcId types.CfcId, inputs types.CfcInputs, fingerprint types.CfcFingerprint, cftProof types.CftInclusionProof) (types.TxEndCtx, error) {
	start := time.Now()

	contractRoot, _, err := s.network.FetchContractMeta(ctx, cfcId.ContractId)
	if err != nil {
		return types.TxEndCtx{}, fmt.Errorf("%w: fetching contract meta: %s", types.ErrNetworkError, err)
	}

	verification := cft.VerifyWithDetails(fingerprint, cftProof)
	if verification.InCft && cftProof.CftRoot != contractRoot {
		// The proof folds to a root that is internally consistent but not
		// the contract's actual on-chain CFT root, so the whitelist check
		// it passed proves nothing.
		verification.InCft = false
	}
	if err := s.queue.RecordCftVerification(index, verification); err != nil {
		return types.TxEndCtx{}, err
	}
	if !verification.InCft {
		// The rejection is recorded on the queue item (forced to Failed by
		// RecordCftVerification); the call itself still returns success
		// (§7 "the call itself returns success").
		metrics.CftVerificationFailures.Inc()
		logger.Warn("cft verification failed", "sessionId", s.header.SessionId, "fingerprint", fingerprint, "cftRoot", verification.CftRoot)
		return types.TxEndCtx{Success: false}, nil
	}
	defer func() {
		metrics.SessionStepDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if err := s.queue.MarkExecuting(index); err != nil {
		return types.TxEndCtx{}, err
	}

	cstate := s.cstateFor(cfcId.ContractId)
	startCstateRoot := cstate.Root()

	cfcProof, txEnd, err := s.prover.ProveCfc(ctx, cfcId, inputs, startCstateRoot)
	if err != nil {
		_ = s.queue.Complete(index, false, uint64(time.Since(start).Milliseconds()))
		return types.TxEndCtx{}, fmt.Errorf("%w: proving CFC: %s", types.ErrProofGenerationFailed, err)
	}

	cstate.SetRoot(txEnd.EndContractStateRoot)
	s.ucon.UpdateContractState(cfcId.ContractId, cstate.Root())

	uconDelta := types.UconDeltaProof{
		OldRoot:    s.currentStep.CurrentUconRoot,
		NewRoot:    s.ucon.Root(),
		ContractId: cfcId.ContractId,
		CstateDelta: types.CstateDeltaProof{
			OldRoot: startCstateRoot,
			NewRoot: txEnd.EndContractStateRoot,
		},
	}
	debtsDelta := types.DebtDeltaProof{
		OldDebts: s.currentStep.CurrentDebts,
		NewDebts: s.currentStep.CurrentDebts,
	}

	nextStep, err := s.prover.UpsIntegrateStep(ctx, s.currentStep, cfcProof, cftProof, uconDelta, debtsDelta)
	if err != nil {
		_ = s.queue.Complete(index, false, uint64(time.Since(start).Milliseconds()))
		return types.TxEndCtx{}, fmt.Errorf("%w: integrating UPS step: %s", types.ErrProofGenerationFailed, err)
	}

	s.currentStep = nextStep
	s.stateDeltas = append(s.stateDeltas, types.CstateDelta{ContractId: cfcId.ContractId})
	s.queue.SetUconRoots(s.header.UserLeafCtx.UconRoot, nextStep.CurrentUconRoot)

	if err := s.queue.Complete(index, true, uint64(time.Since(start).Milliseconds())); err != nil {
		return types.TxEndCtx{}, err
	}
	return txEnd, nil
}

// cstateFor returns the CSTATE the session tracks locally for contractId,
// creating an empty one (root zero) the first time this session touches
// it. NetworkState exposes no call that returns a contract's current
// aggregate CSTATE root, so each session starts its own local view of any
// contract it calls and folds writes into it as it goes.
func (s *Session) cstateFor(contractId types.ContractId) *state.Cstate {
	c, ok := s.cstates[contractId]
	if !ok {
		c = state.NewCstate(contractId)
		s.cstates[contractId] = c
	}
	return c
}

// Finalize seals the accumulated session into an end cap (§4.6 step 3:
// "End Cap finalization"): it derives the SDKey public-key hash from
// verifierData and sdkeyPolicy, signs the session message through
// Prover.SignWithSdkey, and finalizes the folded step. It does not evaluate
// the policy's daily-limit/whitelist/timelock constraints itself.
func (s *Session) Finalize(ctx context.Context, sdkeyPolicy types.SdkeyPolicy, verifierData []byte) (types.EndCapProof, error) {
	pubKeyHash := policy.ComputePublicKeyHash(verifierData, sdkeyPolicy)
	message := sessionMessage(s.header, s.currentStep)

	sig, err := s.prover.SignWithSdkey(ctx, message, sdkeyPolicy)
	if err != nil {
		return types.EndCapProof{}, fmt.Errorf("%w: signing with SDKey: %s", types.ErrProofGenerationFailed, err)
	}
	sig.PublicKeyHash = pubKeyHash

	endcap, err := s.prover.FinalizeEndcap(ctx, s.currentStep, sig)
	if err != nil {
		return types.EndCapProof{}, fmt.Errorf("%w: finalizing end cap: %s", types.ErrProofGenerationFailed, err)
	}
	// Prover.FinalizeEndcap only sees the folded step and signature, not the
	// session header, so the header and submission timestamp are stamped on
	// here rather than by the collaborator.
	endcap.UpsHeader = s.header
	endcap.Timestamp = uint64(time.Now().Unix())
	return endcap, nil
}

// Submit hands a finalized end cap to submitter (§4.6 step 4: "End Cap
// submission") along with the state deltas accumulated during ExecuteCfc.
// A transport key is derived from the session's secret and bound into the
// submission channel, so an eavesdropper who does not hold the session
// secret cannot correlate a submission with the session that produced it.
func (s *Session) Submit(ctx context.Context, submitter Submitter, endcap types.EndCapProof) (types.SubmitReceipt, error) {
	transportKey, err := deriveTransportKey(s.secret, s.header)
	if err != nil {
		return types.SubmitReceipt{}, err
	}

	receipt, err := submitter.SubmitEndcap(ctx, endcap, s.stateDeltas, transportKey)
	if err != nil {
		logger.Error("end cap submission failed", "sessionId", s.header.SessionId, "error", err)
		return types.SubmitReceipt{}, fmt.Errorf("%w: submitting end cap: %s", types.ErrNetworkError, err)
	}
	logger.Info("end cap submitted", "sessionId", s.header.SessionId, "receiptId", receipt.ReceiptId)
	metrics.SessionsSubmitted.Inc()
	metrics.ActiveSessions.Dec()
	return receipt, nil
}

// sessionMessage serializes the fields an SDKey signature binds over: the
// session header and the final folded step. Grounded on
// compute_session_message in original_source's ups.rs, which the source
// left as a TODO stub — this core gives it a concrete, deterministic
// encoding instead.
func sessionMessage(header types.UpsHeader, step types.UpsStepProof) []byte {
	msg := []byte(header.SessionId)
	msg = append(msg, header.UserLeafCtx.UconRoot.Bytes()...)
	msg = append(msg, step.CurrentUconRoot.Bytes()...)
	msg = append(msg, strconv.FormatUint(uint64(step.StepNumber), 10)...)
	return msg
}

func errMsg(err error) *string {
	s := err.Error()
	return &s
}
