// Package policy implements the SDKey programmable-key constraint engine
// (§4.4): a policy names up to four independent constraints (daily limit,
// contract whitelist, time lock, 2FA) and this package offers two ways to
// evaluate them against a candidate transaction — ValidateTransaction
// short-circuits on the first violation the way an on-chain check would,
// CheckConstraints always evaluates all four and is meant for a UI that
// needs to show every constraint's status at once. Grounded on
// original_source's sdkey.rs, translated into the sentinel-error and
// builder idiom of proofs/mandatory.go.
package policy

import (
	"crypto/sha256"
	"fmt"
	"slices"

	"github.com/sdprotocol/ups-engine/hashutil"
	"github.com/sdprotocol/ups-engine/metrics"
	"github.com/sdprotocol/ups-engine/types"
)

// ValidateTransaction checks tx against policy in the fixed order daily
// limit, contract whitelist, time lock, 2FA, returning the first violation
// as an error wrapping ErrSdkeyPolicyViolation. A nil field in policy means
// that constraint is not configured and always passes.
func ValidateTransaction(policy types.SdkeyPolicy, txAmount uint64, contractId types.ContractId, timestamp uint64) error {
	if policy.DailyLimit != nil && txAmount > *policy.DailyLimit {
		metrics.PolicyViolations.Inc()
		return fmt.Errorf("%w: tx amount %d exceeds daily limit %d", types.ErrSdkeyPolicyViolation, txAmount, *policy.DailyLimit)
	}
	if policy.TrustedContracts != nil && !slices.Contains(policy.TrustedContracts, contractId) {
		metrics.PolicyViolations.Inc()
		return fmt.Errorf("%w: contract %q is not in the trusted contract list", types.ErrSdkeyPolicyViolation, contractId)
	}
	if policy.TimeLockUntil != nil && timestamp < *policy.TimeLockUntil {
		metrics.PolicyViolations.Inc()
		return fmt.Errorf("%w: time lock not yet expired: %d < %d", types.ErrSdkeyPolicyViolation, timestamp, *policy.TimeLockUntil)
	}
	if policy.Require2fa {
		// 2FA verification itself is out of scope here; ValidateTransaction
		// only records that the policy demands it. Callers that have an
		// actual 2FA result should use CheckConstraints instead.
	}
	return nil
}

// CheckConstraints evaluates all four constraints independently and never
// short-circuits (§8 invariant 7); the result always carries exactly four
// sub-results regardless of which constraints are configured.
func CheckConstraints(policy types.SdkeyPolicy, txAmount uint64, contractId types.ContractId, timestamp uint64, twoFaVerified bool) types.SdkeyConstraintCheck {
	return types.SdkeyConstraintCheck{
		LimitCheck:     checkDailyLimit(policy, txAmount),
		WhitelistCheck: checkWhitelist(policy, contractId),
		TimelockCheck:  checkTimeLock(policy, timestamp),
		TwofaCheck:     checkTwoFa(policy, twoFaVerified),
	}
}

func checkDailyLimit(policy types.SdkeyPolicy, txAmount uint64) types.ConstraintCheckResult {
	if policy.DailyLimit == nil {
		return types.ConstraintCheckResult{Passed: true, Message: "no daily limit configured"}
	}
	if txAmount > *policy.DailyLimit {
		return types.ConstraintCheckResult{Passed: false, Message: fmt.Sprintf("exceeds daily limit: %d > %d", txAmount, *policy.DailyLimit)}
	}
	return types.ConstraintCheckResult{Passed: true, Message: fmt.Sprintf("within daily limit: %d <= %d", txAmount, *policy.DailyLimit)}
}

func checkWhitelist(policy types.SdkeyPolicy, contractId types.ContractId) types.ConstraintCheckResult {
	if policy.TrustedContracts == nil {
		return types.ConstraintCheckResult{Passed: true, Message: "no whitelist configured"}
	}
	if slices.Contains(policy.TrustedContracts, contractId) {
		return types.ConstraintCheckResult{Passed: true, Message: fmt.Sprintf("contract %q is trusted", contractId)}
	}
	return types.ConstraintCheckResult{Passed: false, Message: fmt.Sprintf("contract %q is not trusted", contractId)}
}

func checkTimeLock(policy types.SdkeyPolicy, timestamp uint64) types.ConstraintCheckResult {
	if policy.TimeLockUntil == nil {
		return types.ConstraintCheckResult{Passed: true, Message: "no time lock configured"}
	}
	if timestamp >= *policy.TimeLockUntil {
		return types.ConstraintCheckResult{Passed: true, Message: fmt.Sprintf("unlocked: %d >= %d", timestamp, *policy.TimeLockUntil)}
	}
	return types.ConstraintCheckResult{Passed: false, Message: fmt.Sprintf("still locked: %d < %d", timestamp, *policy.TimeLockUntil)}
}

func checkTwoFa(policy types.SdkeyPolicy, twoFaVerified bool) types.TwoFaCheckResult {
	if !policy.Require2fa {
		return types.TwoFaCheckResult{Required: false, Verified: true, Message: "2FA not required"}
	}
	if twoFaVerified {
		return types.TwoFaCheckResult{Required: true, Verified: true, Message: "2FA verified"}
	}
	return types.TwoFaCheckResult{Required: true, Verified: false, Message: "2FA verification required"}
}

// ComputePublicKeyHash derives the SDKey public key from the signature
// circuit's verifier data and the policy parameters that are bound into it.
// Only DailyLimit and TimeLockUntil are mixed into the hash — the whitelist
// and 2FA flag are enforced at validation time but are not part of the key
// identity (§9 open item 3, confirmed against original_source's
// compute_public_key_hash, which folds in exactly these two fields).
func ComputePublicKeyHash(verifierData []byte, policy types.SdkeyPolicy) types.Hash {
	d := sha256.New()
	d.Write(verifierData)
	if policy.DailyLimit != nil {
		d.Write(hashutil.Uint64LE(*policy.DailyLimit))
	}
	if policy.TimeLockUntil != nil {
		d.Write(hashutil.Uint64LE(*policy.TimeLockUntil))
	}
	return types.BytesToHash(d.Sum(nil))
}

// Builder assembles an SdkeyPolicy field by field, mirroring
// original_source's SdkeyPolicyBuilder.
type Builder struct {
	policy types.SdkeyPolicy
}

// NewBuilder returns a builder with no constraints configured.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithDailyLimit(limit uint64) *Builder {
	b.policy.DailyLimit = &limit
	return b
}

func (b *Builder) WithTrustedContracts(contracts []types.ContractId) *Builder {
	b.policy.TrustedContracts = contracts
	return b
}

func (b *Builder) WithTimeLock(until uint64) *Builder {
	b.policy.TimeLockUntil = &until
	return b
}

func (b *Builder) With2fa() *Builder {
	b.policy.Require2fa = true
	return b
}

func (b *Builder) Build() types.SdkeyPolicy {
	return b.policy
}
