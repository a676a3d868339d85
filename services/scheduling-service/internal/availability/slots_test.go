package availability

import (
	"testing"
	"time"

	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

func tpl(start, end, dur, cap int, location string) model.AvailabilityTemplate {
	return model.AvailabilityTemplate{
		ID:          "tpl-" + location,
		DoctorID:    "doc-1",
		Weekday:     1,
		StartMinute: start,
		EndMinute:   end,
		SlotMinutes: dur,
		MaxPerSlot:  cap,
		Active:      true,
		Location:    location,
		Mode:        model.ModeInPerson,
	}
}

func monday() time.Time {
	return time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
}

func TestGrid_ExactWindow(t *testing.T) {
	// 09:00-11:00 at 30 min: 09:00, 09:30, 10:00, 10:30.
	starts := Grid(tpl(540, 660, 30, 1, "clinic-a"))
	want := []int{540, 570, 600, 630}
	if len(starts) != len(want) {
		t.Fatalf("expected %d starts, got %d", len(want), len(starts))
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("start[%d]: expected %d, got %d", i, want[i], starts[i])
		}
	}
}

func TestGrid_PartialSlotDropped(t *testing.T) {
	// 09:00-10:45 at 30 min: the 10:30 slot would end at 11:00, past the window.
	starts := Grid(tpl(540, 645, 30, 1, "clinic-a"))
	if len(starts) != 3 {
		t.Fatalf("expected 3 starts, got %d", len(starts))
	}
	if starts[len(starts)-1] != 600 {
		t.Fatalf("expected last start 10:00, got %s", model.MinuteOfDay(starts[len(starts)-1]))
	}
}

func TestGrid_Degenerate(t *testing.T) {
	if got := Grid(tpl(600, 600, 30, 1, "a")); got != nil {
		t.Fatalf("empty window should yield no slots, got %v", got)
	}
	if got := Grid(tpl(600, 660, 0, 1, "a")); got != nil {
		t.Fatalf("zero duration should yield no slots, got %v", got)
	}
}

func TestDaySlots_TimeOffSuppressesAll(t *testing.T) {
	off := model.TimeOff{
		DoctorID:  "doc-1",
		StartDate: time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC),
	}
	slots := DaySlots(monday(), []model.AvailabilityTemplate{tpl(540, 660, 30, 1, "clinic-a")}, []model.TimeOff{off}, nil, -1)
	if len(slots) != 0 {
		t.Fatalf("expected no slots during time off, got %d", len(slots))
	}

	// Boundary: the day after the exception ends is open again.
	after := monday().AddDate(0, 0, 2)
	slots = DaySlots(after, []model.AvailabilityTemplate{tpl(540, 660, 30, 1, "clinic-a")}, []model.TimeOff{off}, nil, -1)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots after time off, got %d", len(slots))
	}
}

func TestDaySlots_OccupancyReducesRemaining(t *testing.T) {
	// Mon 09:00-11:00, 30 min, capacity 1; one active reservation at 09:30.
	occ := map[OccupancyKey]int{
		{StartMinute: 570, Location: "clinic-a"}: 1,
	}
	slots := DaySlots(monday(), []model.AvailabilityTemplate{tpl(540, 660, 30, 1, "clinic-a")}, nil, occ, -1)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	for _, s := range slots {
		want := 1
		if s.StartMinute == 570 {
			want = 0
		}
		if s.Remaining != want {
			t.Fatalf("slot %s: expected remaining %d, got %d", model.MinuteOfDay(s.StartMinute), want, s.Remaining)
		}
	}
}

func TestDaySlots_OverbookedClampsToZero(t *testing.T) {
	occ := map[OccupancyKey]int{
		{StartMinute: 540, Location: "clinic-a"}: 3,
	}
	slots := DaySlots(monday(), []model.AvailabilityTemplate{tpl(540, 600, 30, 2, "clinic-a")}, nil, occ, -1)
	if slots[0].Remaining != 0 {
		t.Fatalf("expected remaining clamped to 0, got %d", slots[0].Remaining)
	}
}

func TestDaySlots_MultipleLocationsAreIndependent(t *testing.T) {
	templates := []model.AvailabilityTemplate{
		tpl(540, 600, 30, 1, "clinic-a"),
		tpl(540, 600, 30, 2, "clinic-b"),
	}
	occ := map[OccupancyKey]int{
		{StartMinute: 540, Location: "clinic-a"}: 1,
	}
	slots := DaySlots(monday(), templates, nil, occ, -1)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots (2 per location), got %d", len(slots))
	}
	// Sorted by start minute then location.
	if slots[0].Location != "clinic-a" || slots[0].Remaining != 0 {
		t.Fatalf("clinic-a 09:00 should be full: %+v", slots[0])
	}
	if slots[1].Location != "clinic-b" || slots[1].Remaining != 2 {
		t.Fatalf("clinic-b 09:00 should keep its own capacity: %+v", slots[1])
	}
}

func TestDaySlots_InactiveTemplateIgnored(t *testing.T) {
	inactive := tpl(540, 600, 30, 1, "clinic-a")
	inactive.Active = false
	slots := DaySlots(monday(), []model.AvailabilityTemplate{inactive}, nil, nil, -1)
	if len(slots) != 0 {
		t.Fatalf("inactive template should produce no slots, got %d", len(slots))
	}
}

func TestDaySlots_SkipsPastSameDay(t *testing.T) {
	// Now is 09:31: the 09:00 and 09:30 slots already started.
	slots := DaySlots(monday(), []model.AvailabilityTemplate{tpl(540, 660, 30, 1, "clinic-a")}, nil, nil, 571)
	if len(slots) != 2 {
		t.Fatalf("expected 2 future slots, got %d", len(slots))
	}
	if slots[0].StartMinute != 600 {
		t.Fatalf("expected first future slot 10:00, got %s", model.MinuteOfDay(slots[0].StartMinute))
	}
}

func TestDaySlots_SlotStartingNowNotAdvertised(t *testing.T) {
	// Now is exactly 09:00: booking a slot at 09:00 would already be
	// rejected as past, so the listing must not offer it either.
	slots := DaySlots(monday(), []model.AvailabilityTemplate{tpl(540, 660, 30, 1, "clinic-a")}, nil, nil, 540)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[0].StartMinute != 570 {
		t.Fatalf("expected first slot 09:30, got %s", model.MinuteOfDay(slots[0].StartMinute))
	}
}

func TestMatchTemplate(t *testing.T) {
	templates := []model.AvailabilityTemplate{
		tpl(540, 660, 30, 1, "clinic-a"),
		tpl(540, 660, 30, 1, "clinic-b"),
	}

	if _, ok := MatchTemplate(templates, 570, "", model.ModeInPerson); ok {
		t.Fatal("ambiguous location should not match")
	}
	m, ok := MatchTemplate(templates, 570, "clinic-b", model.ModeInPerson)
	if !ok || m.Location != "clinic-b" {
		t.Fatalf("expected clinic-b match, got %+v ok=%v", m, ok)
	}
	if _, ok := MatchTemplate(templates, 575, "clinic-b", model.ModeInPerson); ok {
		t.Fatal("off-grid time should not match")
	}
	if _, ok := MatchTemplate(templates, 570, "clinic-b", model.ModeRemote); ok {
		t.Fatal("wrong mode should not match")
	}

	only := []model.AvailabilityTemplate{tpl(540, 660, 30, 1, "clinic-a")}
	m, ok = MatchTemplate(only, 540, "", model.ModeInPerson)
	if !ok || m.Location != "clinic-a" {
		t.Fatalf("single candidate should match without a location, got ok=%v", ok)
	}
}
