// Package session implements the UPS (User Proving Session) orchestrator
// (§4.6): a session opens against a finalized checkpoint, folds a sequence
// of CFC executions into a single recursive proof, and finalizes/submits an
// end-cap. The three external dependencies — chain state, proving, and
// submission — are injected as collaborator interfaces so the orchestrator
// itself stays deterministic and testable, mirroring rollup/sequencer.go's
// separation between the batching logic and its L1 client. Grounded on
// original_source's ups.rs and traits.rs.
package session

import (
	"context"

	"github.com/sdprotocol/ups-engine/types"
)

// NetworkState answers questions about global and per-contract chain state
// as of a finalized checkpoint. Implementations talk to Realm/Coordinator/DA
// miners; the session never caches across collaborator calls itself.
type NetworkState interface {
	LatestFinalizedChkp(ctx context.Context) (types.CheckpointRef, error)
	FetchUserLeaf(ctx context.Context, userId types.UserId, chkp types.CheckpointRef) (types.UserLeafCtx, error)
	FetchContractMeta(ctx context.Context, contractId types.ContractId) (types.CftRoot, types.CstateHeight, error)
	FetchCstateLeaf(ctx context.Context, contractId types.ContractId, slot uint64, chkp types.CheckpointRef) ([]byte, []types.Hash, error)
}

// Prover generates the zero-knowledge proofs a session folds together: one
// per CFC call, one per recursive integration step, one for the SDKey
// signature, and one to seal the end cap.
type Prover interface {
	ProveCfc(ctx context.Context, cfc types.CfcId, inputs types.CfcInputs, startCstateRoot types.Hash) (types.CfcProof, types.TxEndCtx, error)
	UpsIntegrateStep(ctx context.Context, prev types.UpsStepProof, cfcProof types.CfcProof, cftProof types.CftInclusionProof, uconDelta types.UconDeltaProof, debtsDelta types.DebtDeltaProof) (types.UpsStepProof, error)
	FinalizeEndcap(ctx context.Context, lastStep types.UpsStepProof, sdkeySig types.SignatureProof) (types.EndCapProof, error)
	SignWithSdkey(ctx context.Context, message []byte, policy types.SdkeyPolicy) (types.SignatureProof, error)
}

// Submitter hands a sealed end cap and its accompanying state deltas to the
// realm for inclusion. transportKey is a per-session key derived from the
// session's secret (see transport.go); a real submitter binds it into the
// channel the request travels over (e.g. as an encryption or MAC key) so an
// eavesdropper without the session secret cannot tamper with or correlate
// the submission.
type Submitter interface {
	SubmitEndcap(ctx context.Context, endcap types.EndCapProof, stateDeltas []types.CstateDelta, transportKey []byte) (types.SubmitReceipt, error)
}
