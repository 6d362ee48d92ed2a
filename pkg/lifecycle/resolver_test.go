package lifecycle

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("time.Parse(%q) failed: %v", value, err)
	}
	return parsed
}

func ptr[T any](v T) *T {
	return &v
}

func TestResolve(t *testing.T) {
	start := mustTime(t, "2024-06-01T18:00:00Z")
	end := mustTime(t, "2024-06-01T22:00:00Z")
	deadline := mustTime(t, "2024-05-30T12:00:00Z")

	base := EventSnapshot{
		ID:           "evt-1",
		StoredState:  StatePublished,
		StartAt:      start,
		EndAt:        &end,
		RSVPDeadline: &deadline,
	}

	tests := []struct {
		name string
		now  time.Time
		want State
	}{
		{"before deadline", deadline.Add(-time.Hour), StatePublished},
		{"at deadline", deadline, StateClosed},
		{"after deadline", deadline.Add(time.Hour), StateClosed},
		{"at start", start, StateOngoing},
		{"during event", start.Add(2 * time.Hour), StateOngoing},
		{"at end", end, StateCompleted},
		{"long after end", end.AddDate(3, 0, 0), StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(base, tt.now); got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestResolve_DefaultDuration tests events without an end time.
func TestResolve_DefaultDuration(t *testing.T) {
	e := EventSnapshot{
		ID:          "evt-default",
		StoredState: StatePublished,
		StartAt:     mustTime(t, "2024-06-01T18:00:00Z"),
	}

	if got := Resolve(e, mustTime(t, "2024-06-01T20:30:00Z")); got != StateOngoing {
		t.Errorf("Resolve() at +2.5h = %s, want %s", got, StateOngoing)
	}
	if got := Resolve(e, mustTime(t, "2024-06-01T21:30:00Z")); got != StateCompleted {
		t.Errorf("Resolve() at +3.5h = %s, want %s", got, StateCompleted)
	}
	if got := Resolve(e, mustTime(t, "2024-06-01T21:00:00Z")); got != StateCompleted {
		t.Errorf("Resolve() at exactly +3h = %s, want %s", got, StateCompleted)
	}
}

func TestResolver_CustomDefaultDuration(t *testing.T) {
	r := Resolver{DefaultDuration: time.Hour}
	start := mustTime(t, "2024-06-01T18:00:00Z")
	e := EventSnapshot{StoredState: StatePublished, StartAt: start}

	if got := r.Resolve(e, start.Add(90*time.Minute)); got != StateCompleted {
		t.Errorf("Resolve() = %s, want %s", got, StateCompleted)
	}
	if got := (Resolver{}).EffectiveEnd(e); !got.Equal(start.Add(DefaultDuration)) {
		t.Errorf("zero Resolver EffectiveEnd() = %v, want %v", got, start.Add(DefaultDuration))
	}
}

// TestResolve_TerminalStickiness tests that draft and cancelled never move.
func TestResolve_TerminalStickiness(t *testing.T) {
	start := mustTime(t, "2024-06-01T18:00:00Z")
	deadline := start.Add(-48 * time.Hour)

	for _, stored := range []State{StateDraft, StateCancelled} {
		e := EventSnapshot{
			StoredState:  stored,
			StartAt:      start,
			RSVPDeadline: &deadline,
		}
		for offset := -72 * time.Hour; offset <= 72*time.Hour; offset += 30 * time.Minute {
			if got := Resolve(e, start.Add(offset)); got != stored {
				t.Fatalf("Resolve(%s, start%+v) = %s, want %s", stored, offset, got, stored)
			}
		}
	}
}

// TestResolve_Monotonic tests that states only move forward as time advances.
func TestResolve_Monotonic(t *testing.T) {
	order := map[State]int{
		StatePublished: 0,
		StateClosed:    1,
		StateOngoing:   2,
		StateCompleted: 3,
	}

	start := mustTime(t, "2024-06-01T18:00:00Z")
	cases := []EventSnapshot{
		{StoredState: StatePublished, StartAt: start},
		{StoredState: StatePublished, StartAt: start, RSVPDeadline: ptr(start.Add(-24 * time.Hour))},
		{StoredState: StatePublished, StartAt: start, EndAt: ptr(start.Add(30 * time.Minute))},
		// A deadline after the start never re-closes an ongoing event.
		{StoredState: StatePublished, StartAt: start, RSVPDeadline: ptr(start.Add(time.Hour))},
	}

	for i, e := range cases {
		prev := -1
		for offset := -48 * time.Hour; offset <= 48*time.Hour; offset += 10 * time.Minute {
			got := Resolve(e, start.Add(offset))
			rank, ok := order[got]
			if !ok {
				t.Fatalf("case %d: unexpected state %s", i, got)
			}
			if rank < prev {
				t.Fatalf("case %d: state regressed to %s at offset %v", i, got, offset)
			}
			prev = rank
		}
		if prev != order[StateCompleted] {
			t.Errorf("case %d: never reached completed", i)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	start := mustTime(t, "2024-06-01T18:00:00Z")
	e := EventSnapshot{StoredState: StateClosed, StartAt: start}

	for offset := -5 * time.Hour; offset <= 5*time.Hour; offset += time.Hour {
		now := start.Add(offset)
		if a, b := Resolve(e, now), Resolve(e, now); a != b {
			t.Fatalf("Resolve() not idempotent at %v: %s vs %s", now, a, b)
		}
	}
}

func TestCanAcceptRSVPs(t *testing.T) {
	start := mustTime(t, "2024-06-01T18:00:00Z")
	deadline := start.Add(-24 * time.Hour)
	e := EventSnapshot{StoredState: StatePublished, StartAt: start, RSVPDeadline: &deadline}

	if !CanAcceptRSVPs(e, deadline.Add(-time.Minute)) {
		t.Error("CanAcceptRSVPs() = false before deadline, want true")
	}
	if CanAcceptRSVPs(e, deadline) {
		t.Error("CanAcceptRSVPs() = true at deadline, want false")
	}

	draft := e
	draft.StoredState = StateDraft
	if CanAcceptRSVPs(draft, deadline.Add(-time.Minute)) {
		t.Error("CanAcceptRSVPs() = true for draft, want false")
	}
}

func TestCanBeCancelled(t *testing.T) {
	start := mustTime(t, "2024-06-01T18:00:00Z")

	tests := []struct {
		name   string
		stored State
		now    time.Time
		want   bool
	}{
		{"published upcoming", StatePublished, start.Add(-time.Hour), true},
		{"ongoing", StatePublished, start.Add(time.Hour), true},
		{"completed", StatePublished, start.Add(4 * time.Hour), false},
		{"already cancelled", StateCancelled, start.Add(-time.Hour), false},
		{"draft", StateDraft, start.Add(10 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := EventSnapshot{StoredState: tt.stored, StartAt: start}
			if got := CanBeCancelled(e, tt.now); got != tt.want {
				t.Errorf("CanBeCancelled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSyncState(t *testing.T) {
	start := mustTime(t, "2024-06-01T18:00:00Z")
	after := start.Add(5 * time.Hour)

	tests := []struct {
		name   string
		stored State
		now    time.Time
		want   bool
	}{
		{"published but finished", StatePublished, after, true},
		{"ongoing but finished", StateOngoing, after, true},
		{"closed but finished", StateClosed, after, true},
		{"already completed", StateCompleted, after, false},
		{"still running", StatePublished, start.Add(time.Hour), false},
		{"cancelled", StateCancelled, after, false},
		{"draft", StateDraft, after, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := EventSnapshot{StoredState: tt.stored, StartAt: start}
			state, ok := SyncState(e, tt.now)
			if ok != tt.want {
				t.Fatalf("SyncState() ok = %v, want %v", ok, tt.want)
			}
			if ok && state != StateCompleted {
				t.Errorf("SyncState() = %s, want %s", state, StateCompleted)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	for _, s := range allStates {
		got, err := ParseState(" " + string(s) + " ")
		if err != nil {
			t.Fatalf("ParseState(%q) failed: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseState(%q) = %s", s, got)
		}
	}

	if got, err := ParseState("COMPLETED"); err != nil || got != StateCompleted {
		t.Errorf("ParseState(COMPLETED) = %s, %v", got, err)
	}
	if _, err := ParseState("archived"); err == nil {
		t.Error("ParseState(archived) expected error")
	}
}
