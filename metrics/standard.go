package metrics

// Pre-defined metrics for the UPS engine. All metrics live in
// DefaultRegistry so they are globally accessible without passing a
// registry around.

var (
	// ---- Session metrics ----

	// SessionsOpened counts sessions opened via session.Open.
	SessionsOpened = DefaultRegistry.Counter("session.opened")
	// SessionsSubmitted counts sessions that reached a successful Submit.
	SessionsSubmitted = DefaultRegistry.Counter("session.submitted")
	// SessionStepDuration records ExecuteCfc wall time in milliseconds for
	// calls that pass the CFT whitelist check; rejected calls are not recorded.
	SessionStepDuration = DefaultRegistry.Histogram("session.step_duration_ms")
	// ActiveSessions tracks sessions opened but not yet submitted.
	ActiveSessions = DefaultRegistry.Gauge("session.active")

	// ---- Queue metrics ----

	// QueueItemsPending tracks items pushed onto a queue that have not yet
	// reached Success or Failed (items in PreviewFailed stay counted).
	QueueItemsPending = DefaultRegistry.Gauge("queue.items_pending")

	// ---- Policy metrics ----

	// PolicyViolations counts ValidateTransaction rejections as one total,
	// without a per-rule breakdown; CheckConstraints does not increment it.
	PolicyViolations = DefaultRegistry.Counter("policy.violations")

	// ---- CFT metrics ----

	// CftVerificationFailures counts CFC calls rejected by ExecuteCfc's CFT
	// whitelist check: proofs that fail cft.Verify and proofs whose root is
	// not the contract's CFT root.
	CftVerificationFailures = DefaultRegistry.Counter("cft.verification_failures")
)
