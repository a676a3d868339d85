package availability

import (
	"sort"
	"time"

	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

// Slot is one bookable offering for a single date. Slots from different
// templates that share a start time are independent offerings, each with
// its own capacity.
type Slot struct {
	StartMinute int
	Location    string
	Mode        model.ConsultMode
	SlotMinutes int
	MaxPerSlot  int
	Remaining   int
}

// OccupancyKey identifies a slot within one (doctor, date).
type OccupancyKey struct {
	StartMinute int
	Location    string
}

// Grid returns the slot start minutes a template generates: a contiguous
// grid from start to end at slot-duration granularity. Only slots that fit
// entirely inside [start, end) are produced.
func Grid(tpl model.AvailabilityTemplate) []int {
	if tpl.SlotMinutes <= 0 || tpl.EndMinute <= tpl.StartMinute {
		return nil
	}
	var starts []int
	for m := tpl.StartMinute; m+tpl.SlotMinutes <= tpl.EndMinute; m += tpl.SlotMinutes {
		starts = append(starts, m)
	}
	return starts
}

// DaySlots combines a doctor's templates, time-off exceptions and current
// occupancy into the ordered slot list for one date. It has no side effects.
//
// nowMinute skips slots that have already started on the current day,
// including one starting this exact minute, so listed slots stay bookable;
// pass a negative value for future dates.
func DaySlots(date time.Time, templates []model.AvailabilityTemplate, timeOff []model.TimeOff, occupancy map[OccupancyKey]int, nowMinute int) []Slot {
	for _, off := range timeOff {
		if off.Covers(model.DateOnly(date)) {
			return nil
		}
	}

	var slots []Slot
	for _, tpl := range templates {
		if !tpl.Active {
			continue
		}
		for _, start := range Grid(tpl) {
			if nowMinute >= 0 && start <= nowMinute {
				continue
			}
			booked := occupancy[OccupancyKey{StartMinute: start, Location: tpl.Location}]
			remaining := tpl.MaxPerSlot - booked
			if remaining < 0 {
				remaining = 0
			}
			slots = append(slots, Slot{
				StartMinute: start,
				Location:    tpl.Location,
				Mode:        tpl.Mode,
				SlotMinutes: tpl.SlotMinutes,
				MaxPerSlot:  tpl.MaxPerSlot,
				Remaining:   remaining,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartMinute != slots[j].StartMinute {
			return slots[i].StartMinute < slots[j].StartMinute
		}
		return slots[i].Location < slots[j].Location
	})
	return slots
}

// MatchTemplate finds the template whose grid contains startMinute for the
// requested location and mode. An empty location matches only when exactly
// one template offers that time.
func MatchTemplate(templates []model.AvailabilityTemplate, startMinute int, location string, mode model.ConsultMode) (model.AvailabilityTemplate, bool) {
	var matches []model.AvailabilityTemplate
	for _, tpl := range templates {
		if !tpl.Active || tpl.Mode != mode {
			continue
		}
		if location != "" && tpl.Location != location {
			continue
		}
		for _, start := range Grid(tpl) {
			if start == startMinute {
				matches = append(matches, tpl)
				break
			}
		}
	}
	if len(matches) != 1 {
		return model.AvailabilityTemplate{}, false
	}
	return matches[0], true
}
