// Package cft implements the Contract Function Tree: a per-contract binary
// Merkle whitelist of allowed function fingerprints, grounded on the
// generalized-index Merkle helpers in the teacher's crypto package but
// rebuilt around this domain's odd-layer promotion rule (§4.1).
package cft

import (
	"fmt"

	"github.com/sdprotocol/ups-engine/hashutil"
	"github.com/sdprotocol/ups-engine/types"
)

// hashFingerprint computes a CFT leaf: H(fingerprintString). No domain
// separation tag is used, per §4.1.
func hashFingerprint(fp types.CfcFingerprint) types.Hash {
	return hashutil.H([]byte(fp))
}

// foldLevel advances one level of the tree: pairs of adjacent nodes are
// combined with hashutil.HashPair; an odd trailing node is promoted
// unchanged rather than duplicated (§4.1 "Odd-layer rule").
func foldLevel(level []types.Hash) []types.Hash {
	next := make([]types.Hash, 0, (len(level)+1)/2)
	for i := 0; i+1 < len(level); i += 2 {
		next = append(next, hashutil.HashPair(level[i], level[i+1]))
	}
	if len(level)%2 == 1 {
		next = append(next, level[len(level)-1])
	}
	return next
}

// Build computes the CFT root for a list of fingerprints. Build([]) returns
// the all-zero root.
func Build(fingerprints []types.CfcFingerprint) types.CftRoot {
	if len(fingerprints) == 0 {
		return types.CftRoot(types.ZeroHash)
	}
	level := make([]types.Hash, len(fingerprints))
	for i, fp := range fingerprints {
		level[i] = hashFingerprint(fp)
	}
	for len(level) > 1 {
		level = foldLevel(level)
	}
	return types.CftRoot(level[0])
}

// GenerateProof builds a CftInclusionProof for fingerprints[targetIndex].
//
// The proof is an ordered list of sibling hashes collected bottom-up and
// folded with hashutil.HashPair, which sorts each pair before hashing —
// see HashPair's doc comment for why a literal left-first fold cannot
// round-trip given this proof shape.
func GenerateProof(fingerprints []types.CfcFingerprint, targetIndex int) (types.CftInclusionProof, error) {
	if targetIndex < 0 || targetIndex >= len(fingerprints) {
		return types.CftInclusionProof{}, fmt.Errorf("%w: fingerprint index %d out of range", types.ErrNotFound, targetIndex)
	}

	level := make([]types.Hash, len(fingerprints))
	for i, fp := range fingerprints {
		level[i] = hashFingerprint(fp)
	}

	var path []types.Hash
	idx := targetIndex
	for len(level) > 1 {
		var siblingIdx int
		if idx%2 == 0 {
			siblingIdx = idx + 1
		} else {
			siblingIdx = idx - 1
		}
		if siblingIdx >= 0 && siblingIdx < len(level) {
			path = append(path, level[siblingIdx])
		}
		level = foldLevel(level)
		idx /= 2
	}

	return types.CftInclusionProof{
		MerklePath: path,
		CftRoot:    types.CftRoot(level[0]),
	}, nil
}

// Verify reports whether fingerprint is included in the CFT described by
// proof: the sibling path is folded bottom-up with hashutil.HashPair, which
// sorts each pair before hashing so the fold does not depend on sibling
// position, and the result is compared against proof.CftRoot (§4.1
// "Verify").
func Verify(fingerprint types.CfcFingerprint, proof types.CftInclusionProof) bool {
	current := hashFingerprint(fingerprint)
	for _, sibling := range proof.MerklePath {
		current = hashutil.HashPair(current, sibling)
	}
	return current == types.Hash(proof.CftRoot)
}

// VerifyWithDetails is Verify plus provenance, for UI/telemetry
// consumption (supplements spec.md §4.1; grounded in original_source's
// verify_with_details, which stamps every result with the "GCON.CLEAF"
// source tag). This is what a queue item's cftVerification field is
// populated from.
func VerifyWithDetails(fingerprint types.CfcFingerprint, proof types.CftInclusionProof) types.CftVerificationResult {
	inCft := Verify(fingerprint, proof)
	path := append([]types.Hash(nil), proof.MerklePath...)
	return types.CftVerificationResult{
		Fingerprint: fingerprint,
		InCft:       inCft,
		CftRoot:     proof.CftRoot,
		Depth:       len(proof.MerklePath),
		MerklePath:  path,
		Source:      types.SourceGconCleaf,
	}
}
