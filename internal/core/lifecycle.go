package core

import "time"

// durationPrecision matches the resolution the asset store keeps.
const durationPrecision = time.Millisecond

// Decision is the outcome of folding one callback into the stored state.
type Decision struct {
	// Apply is false when the event must be discarded or changes nothing.
	Apply bool
	// Reason explains a discard.
	Reason string
	// Overrode is set when an unsequenced terminal event replaced the opposite
	// terminal status.
	Overrode bool
}

const (
	ReasonStaleSequence = "stale sequence"
	ReasonTerminal      = "status already terminal"
	ReasonNoChange      = "no change"
	ReasonWrongKind     = "event does not target this lifecycle"
)

func discard(reason string) Decision { return Decision{Reason: reason} }

// stale applies the sequence rule: a sequenced event at or below the highest
// applied sequence is discarded.
func stale(eventSeq, storedSeq int64) bool {
	return eventSeq > 0 && eventSeq <= storedSeq
}

func nextSeq(eventSeq, storedSeq int64) int64 {
	if eventSeq > storedSeq {
		return eventSeq
	}
	return storedSeq
}

// NextProcessing folds a processing callback into cur. It returns the state to
// write and whether writing is warranted.
func NextProcessing(cur ProcessingState, ev Event) (ProcessingState, Decision) {
	next := cur
	var overrode bool

	switch e := ev.(type) {
	case UploadAccepted:
		if stale(e.Sequence, cur.Seq) {
			return cur, discard(ReasonStaleSequence)
		}
		if cur.Status.Terminal() {
			return cur, discard(ReasonTerminal)
		}
		next.Status = ProcessingStatusWaiting
		if next.AssetRef == "" {
			next.AssetRef = e.AssetRef
		}
		next.Seq = nextSeq(e.Sequence, cur.Seq)

	case AssetReady:
		if stale(e.Sequence, cur.Seq) {
			return cur, discard(ReasonStaleSequence)
		}
		overrode = e.Sequence == 0 && cur.Status == ProcessingStatusErrored
		next.Status = ProcessingStatusReady
		if next.PlaybackRef == "" {
			next.PlaybackRef = e.PlaybackRef
		}
		if next.AssetRef == "" {
			next.AssetRef = e.AssetRef
		}
		if d := e.Duration.Truncate(durationPrecision); d > 0 {
			next.Duration = d
		}
		next.Seq = nextSeq(e.Sequence, cur.Seq)

	case AssetErrored:
		if stale(e.Sequence, cur.Seq) {
			return cur, discard(ReasonStaleSequence)
		}
		overrode = e.Sequence == 0 && cur.Status == ProcessingStatusReady
		next.Status = ProcessingStatusErrored
		next.PlaybackRef = ""
		next.Duration = 0
		if next.AssetRef == "" {
			next.AssetRef = e.AssetRef
		}
		next.Seq = nextSeq(e.Sequence, cur.Seq)

	default:
		return cur, discard(ReasonWrongKind)
	}

	if next == cur {
		return cur, discard(ReasonNoChange)
	}
	return next, Decision{Apply: true, Overrode: overrode}
}

// NextCaption folds a caption callback into cur.
func NextCaption(cur CaptionState, ev Event) (CaptionState, Decision) {
	next := cur
	var header ProviderEvent
	var ref string

	switch e := ev.(type) {
	case CaptionReady:
		header, ref = e.ProviderEvent, e.CaptionRef
		next.Status = CaptionStatusReady
	case CaptionErrored:
		header, ref = e.ProviderEvent, e.CaptionRef
		next.Status = CaptionStatusErrored
	default:
		return cur, discard(ReasonWrongKind)
	}

	if stale(header.Sequence, cur.Seq) {
		return cur, discard(ReasonStaleSequence)
	}
	overrode := header.Sequence == 0 && cur.Status.Terminal() && cur.Status != next.Status
	if next.CaptionRef == "" {
		next.CaptionRef = ref
	}
	next.Seq = nextSeq(header.Sequence, cur.Seq)

	if next == cur {
		return cur, discard(ReasonNoChange)
	}
	return next, Decision{Apply: true, Overrode: overrode}
}
