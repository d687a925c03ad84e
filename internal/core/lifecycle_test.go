package core

import (
	"testing"
	"time"
)

func TestNextProcessing(t *testing.T) {
	waiting := ProcessingState{Status: ProcessingStatusWaiting}
	ready := ProcessingState{Status: ProcessingStatusReady, Seq: 5, AssetRef: "a1", PlaybackRef: "pb1", Duration: 90 * time.Second}
	errored := ProcessingState{Status: ProcessingStatusErrored, Seq: 3, AssetRef: "a1"}

	tests := []struct {
		name     string
		cur      ProcessingState
		ev       Event
		want     ProcessingState
		apply    bool
		reason   string
		overrode bool
	}{
		{
			name:  "upload accepted moves pending to waiting",
			cur:   ProcessingState{Status: ProcessingStatusPending},
			ev:    UploadAccepted{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 1}, AssetRef: "a1"},
			want:  ProcessingState{Status: ProcessingStatusWaiting, Seq: 1, AssetRef: "a1"},
			apply: true,
		},
		{
			name:   "upload accepted never demotes ready",
			cur:    ready,
			ev:     UploadAccepted{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 9}},
			want:   ready,
			reason: ReasonTerminal,
		},
		{
			name:  "ready stores playback and duration",
			cur:   waiting,
			ev:    AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 2}, AssetRef: "a1", PlaybackRef: "pb1", Duration: time.Minute},
			want:  ProcessingState{Status: ProcessingStatusReady, Seq: 2, AssetRef: "a1", PlaybackRef: "pb1", Duration: time.Minute},
			apply: true,
		},
		{
			name:   "duplicate ready with same sequence is discarded",
			cur:    ready,
			ev:     AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 5}, PlaybackRef: "pb1"},
			want:   ready,
			reason: ReasonStaleSequence,
		},
		{
			name:   "duplicate unsequenced ready changes nothing",
			cur:    ready,
			ev:     AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, PlaybackRef: "pb1", Duration: 90 * time.Second},
			want:   ready,
			reason: ReasonNoChange,
		},
		{
			name:   "duplicate unsequenced ready with sub-millisecond duration changes nothing",
			cur:    ProcessingState{Status: ProcessingStatusReady, AssetRef: "a1", PlaybackRef: "pb1", Duration: 23857 * time.Millisecond},
			ev:     AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, PlaybackRef: "pb1", Duration: 23857167 * time.Microsecond},
			want:   ProcessingState{Status: ProcessingStatusReady, AssetRef: "a1", PlaybackRef: "pb1", Duration: 23857 * time.Millisecond},
			reason: ReasonNoChange,
		},
		{
			name:   "lower sequence errored after ready is discarded",
			cur:    ready,
			ev:     AssetErrored{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 4}},
			want:   ready,
			reason: ReasonStaleSequence,
		},
		{
			name:  "higher sequence errored clears playback but keeps asset ref",
			cur:   ready,
			ev:    AssetErrored{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 6}},
			want:  ProcessingState{Status: ProcessingStatusErrored, Seq: 6, AssetRef: "a1"},
			apply: true,
		},
		{
			name:     "unsequenced errored overrides ready with a warning",
			cur:      ready,
			ev:       AssetErrored{ProviderEvent: ProviderEvent{ProviderRef: "up1"}},
			want:     ProcessingState{Status: ProcessingStatusErrored, Seq: 5, AssetRef: "a1"},
			apply:    true,
			overrode: true,
		},
		{
			name:     "unsequenced ready overrides errored",
			cur:      errored,
			ev:       AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, PlaybackRef: "pb2"},
			want:     ProcessingState{Status: ProcessingStatusReady, Seq: 3, AssetRef: "a1", PlaybackRef: "pb2"},
			apply:    true,
			overrode: true,
		},
		{
			name:   "unsequenced upload accepted loses to terminal",
			cur:    errored,
			ev:     UploadAccepted{ProviderEvent: ProviderEvent{ProviderRef: "up1"}},
			want:   errored,
			reason: ReasonTerminal,
		},
		{
			name:   "caption events are not processing events",
			cur:    waiting,
			ev:     CaptionReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, CaptionRef: "c1"},
			want:   waiting,
			reason: ReasonWrongKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, decision := NextProcessing(tt.cur, tt.ev)
			if got != tt.want {
				t.Fatalf("NextProcessing() state = %+v, want %+v", got, tt.want)
			}
			if decision.Apply != tt.apply {
				t.Fatalf("NextProcessing() apply = %v, want %v", decision.Apply, tt.apply)
			}
			if decision.Reason != tt.reason {
				t.Fatalf("NextProcessing() reason = %q, want %q", decision.Reason, tt.reason)
			}
			if decision.Overrode != tt.overrode {
				t.Fatalf("NextProcessing() overrode = %v, want %v", decision.Overrode, tt.overrode)
			}
		})
	}
}

func TestNextProcessing_SequenceNeverLowered(t *testing.T) {
	cur := ProcessingState{Status: ProcessingStatusWaiting, Seq: 7}
	got, decision := NextProcessing(cur, AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, PlaybackRef: "pb1"})
	if !decision.Apply {
		t.Fatalf("expected unsequenced ready to apply, got %+v", decision)
	}
	if got.Seq != 7 {
		t.Fatalf("expected sequence to stay 7, got %d", got.Seq)
	}
}

func TestNextCaption(t *testing.T) {
	none := CaptionState{Status: CaptionStatusNone}

	got, decision := NextCaption(none, CaptionReady{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 2}, CaptionRef: "c1"})
	if !decision.Apply || got.Status != CaptionStatusReady || got.CaptionRef != "c1" || got.Seq != 2 {
		t.Fatalf("unexpected caption ready outcome: %+v %+v", got, decision)
	}

	same, decision := NextCaption(got, CaptionErrored{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 1}, CaptionRef: "c1"})
	if decision.Apply || decision.Reason != ReasonStaleSequence || same != got {
		t.Fatalf("expected stale caption errored to be discarded, got %+v %+v", same, decision)
	}

	flipped, decision := NextCaption(got, CaptionErrored{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, CaptionRef: "c1"})
	if !decision.Apply || !decision.Overrode || flipped.Status != CaptionStatusErrored || flipped.Seq != 2 {
		t.Fatalf("expected unsequenced errored to override, got %+v %+v", flipped, decision)
	}

	kept, decision := NextCaption(got, CaptionReady{ProviderEvent: ProviderEvent{ProviderRef: "up1", Sequence: 3}, CaptionRef: "c2"})
	if !decision.Apply || kept.CaptionRef != "c1" || kept.Seq != 3 {
		t.Fatalf("expected caption ref c1 to be kept, got %+v %+v", kept, decision)
	}

	_, decision = NextCaption(none, AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, PlaybackRef: "pb1"})
	if decision.Apply || decision.Reason != ReasonWrongKind {
		t.Fatalf("expected processing event to be ignored, got %+v", decision)
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		ev      Event
		wantErr bool
	}{
		{"ready without playback", AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}}, true},
		{"ready complete", AssetReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}, PlaybackRef: "pb1"}, false},
		{"missing provider ref", UploadAccepted{}, true},
		{"caption without ref", CaptionReady{ProviderEvent: ProviderEvent{ProviderRef: "up1"}}, true},
		{"enrichment without asset", EnrichmentDone{JobKind: EnrichmentTitle, Result: "t"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
