// Package queue implements the UPS queue (§4.5): an ordered list of CFC
// calls moving through the status lattice Pending -> PreviewSuccess /
// PreviewFailed -> Executing -> Success / Failed, plus the accumulated
// counters the session reports alongside it. Grounded structurally on
// proofs/proof_queue.go's config-and-counters shape, simplified to a
// synchronous queue (§5 explicitly rules out a worker pool for the UPS
// core) and instrumented with metrics.Counter the way proof_queue.go
// instruments validation outcomes.
package queue

import (
	"fmt"

	"github.com/sdprotocol/ups-engine/metrics"
	"github.com/sdprotocol/ups-engine/types"
)

// Queue holds the ordered items of one UPS session along with the
// accumulated info reported to clients.
type Queue struct {
	items []types.UpsQueueItem
	info  types.UpsAccumulatedInfo

	itemsQueued   *metrics.Counter
	itemsSucceded *metrics.Counter
	itemsFailed   *metrics.Counter
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{
		itemsQueued:   metrics.NewCounter("ups_queue_items_queued"),
		itemsSucceded: metrics.NewCounter("ups_queue_items_succeeded"),
		itemsFailed:   metrics.NewCounter("ups_queue_items_failed"),
	}
}

// Push appends a new pending item for cfcId with the given args and
// returns its index within the queue.
func (q *Queue) Push(cfcId types.CfcId, args string) uint32 {
	index := uint32(len(q.items))
	q.items = append(q.items, types.UpsQueueItem{
		Index:  index,
		CfcId:  cfcId,
		Args:   args,
		Status: types.StatusPending,
	})
	q.info.TotalItems++
	q.itemsQueued.Inc()
	metrics.QueueItemsPending.Inc()
	return index
}

// Items returns a snapshot of the queue's items in order.
func (q *Queue) Items() []types.UpsQueueItem {
	out := make([]types.UpsQueueItem, len(q.items))
	copy(out, q.items)
	return out
}

// Info returns the current accumulated info.
func (q *Queue) Info() types.UpsAccumulatedInfo {
	return q.info
}

// RecordPreview attaches a preview result to the item at index and moves
// it to PreviewSuccess or PreviewFailed depending on the result.
func (q *Queue) RecordPreview(index uint32, result types.ReadOnlyPreviewResult) error {
	item, err := q.mutableItem(index)
	if err != nil {
		return err
	}
	item.PreviewResult = &result
	if result.Success {
		item.Status = types.StatusPreviewSuccess
	} else {
		item.Status = types.StatusPreviewFailed
	}
	return nil
}

// RecordCftVerification attaches a CFT verification result to the item at
// index. If the fingerprint is not in the CFT, the item is forced straight
// to Failed regardless of its current status (§4.5: "if !res.inCft, force
// Failed") so a rejected item never sits in a non-terminal status.
func (q *Queue) RecordCftVerification(index uint32, result types.CftVerificationResult) error {
	item, err := q.mutableItem(index)
	if err != nil {
		return err
	}
	item.CftVerification = &result
	if !result.InCft {
		item.Status = types.StatusFailed
		q.itemsFailed.Inc()
		metrics.QueueItemsPending.Dec()
	}
	return nil
}

// MarkExecuting transitions the item at index into Executing. Valid only
// from PreviewSuccess (§8 invariant 4: the status lattice only moves
// forward).
func (q *Queue) MarkExecuting(index uint32) error {
	item, err := q.mutableItem(index)
	if err != nil {
		return err
	}
	if item.Status != types.StatusPreviewSuccess {
		return fmt.Errorf("%w: item %d: cannot execute from status %s", types.ErrInvalidStateTransition, index, item.Status)
	}
	item.Status = types.StatusExecuting
	return nil
}

// Complete transitions the item at index into Success or Failed, adds
// provingTimeMs to the accumulated proving time, and increments the
// matching outcome counter. On success it also grows the estimated end-cap
// size by a flat 10kb per folded item (§4.5, matching queue.rs's
// estimated_endcap_size_kb += 10). Valid only from Executing.
func (q *Queue) Complete(index uint32, success bool, provingTimeMs uint64) error {
	item, err := q.mutableItem(index)
	if err != nil {
		return err
	}
	if item.Status != types.StatusExecuting {
		return fmt.Errorf("%w: item %d: cannot complete from status %s", types.ErrInvalidStateTransition, index, item.Status)
	}
	if success {
		item.Status = types.StatusSuccess
		q.itemsSucceded.Inc()
		q.info.EstEndCapSizeKb += 10
	} else {
		item.Status = types.StatusFailed
		q.itemsFailed.Inc()
	}
	metrics.QueueItemsPending.Dec()
	q.info.TotalProvingTimeMs += provingTimeMs
	return nil
}

// SetUconRoots records the UCON root transition the accumulated proof
// spans. Intended to be called once, at session open (OldUconRoot) and
// once per successful item (NewUconRoot).
func (q *Queue) SetUconRoots(oldRoot, newRoot types.Hash) {
	q.info.OldUconRoot = oldRoot
	q.info.NewUconRoot = newRoot
}

// Clear empties the item list and resets the per-item counters, but
// deliberately leaves OldUconRoot and NewUconRoot untouched (§9 open item
// 5): those describe the session's state transition, not the queue's
// transient work list.
func (q *Queue) Clear() {
	for _, item := range q.items {
		if item.Status != types.StatusSuccess && item.Status != types.StatusFailed {
			metrics.QueueItemsPending.Dec()
		}
	}
	q.items = nil
	oldRoot, newRoot := q.info.OldUconRoot, q.info.NewUconRoot
	q.info = types.UpsAccumulatedInfo{OldUconRoot: oldRoot, NewUconRoot: newRoot}
}

func (q *Queue) mutableItem(index uint32) (*types.UpsQueueItem, error) {
	if int(index) >= len(q.items) {
		return nil, fmt.Errorf("%w: queue item %d", types.ErrNotFound, index)
	}
	return &q.items[index], nil
}
