package types

// SdkeyPolicy is a programmable-key constraint record: every field is
// optional except Require2fa, matching the canonical shape in
// original_source's traits.rs (§9 open item 4 — the stricter,
// non-optional duplicate seen in preview.rs is not carried forward).
type SdkeyPolicy struct {
	DailyLimit       *uint64      `json:"dailyLimit,omitempty"`
	TrustedContracts []ContractId `json:"trustedContracts,omitempty"`
	TimeLockUntil    *uint64      `json:"timeLockUntil,omitempty"`
	Require2fa       bool         `json:"require2fa"`
}

// ConstraintCheckResult is one rule's outcome in a CheckConstraints report.
type ConstraintCheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// TwoFaCheckResult is the second-factor subrecord of a CheckConstraints
// report; it is contingent on an externally supplied verified flag.
type TwoFaCheckResult struct {
	Required bool   `json:"required"`
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// SdkeyConstraintCheck is the non-short-circuiting report returned by
// CheckConstraints: always exactly four sub-results (§8 invariant 7).
type SdkeyConstraintCheck struct {
	LimitCheck     ConstraintCheckResult `json:"limitCheck"`
	WhitelistCheck ConstraintCheckResult `json:"whitelistCheck"`
	TimelockCheck  ConstraintCheckResult `json:"timelockCheck"`
	TwofaCheck     TwoFaCheckResult      `json:"twofaCheck"`
}
