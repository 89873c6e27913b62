package program

import "slices"

// ComputedTarget is a SetTarget with the effective set count resolved for a
// specific week and recovery state.
type ComputedTarget struct {
	SetTarget
	TargetSets int `json:"targetSets"`
}

// ComputeTargets resolves the effective set targets for an exercise at the
// given week. Pure: identical inputs always yield identical output, so callers
// must re-invoke it whenever the week, exercise or recovery flag changes.
//
// Week numbers are not bounds-checked here; callers clamp to the program
// duration first (see the schedule package).
func ComputeTargets(ex *Exercise, weekNumber int, recoveryExcellent bool) []ComputedTarget {
	var targets []SetTarget
	for _, p := range ex.Prescriptions {
		if len(p.WeekRange) >= 2 && weekNumber >= p.WeekRange[0] && weekNumber <= p.WeekRange[1] {
			targets = p.Targets
			break
		}
	}
	if targets == nil && len(ex.Prescriptions) > 0 {
		// No range matched: fall back to the first declared prescription.
		// Kept for compatibility with historical data; this can hide a gap
		// in week coverage, which catalog load warns about separately.
		targets = ex.Prescriptions[0].Targets
	}

	out := make([]ComputedTarget, 0, len(targets))
	for i, t := range targets {
		base := t.Sets
		switch {
		case len(t.SetRange) >= 2:
			base = t.SetRange[1]
		case len(t.SetRange) == 1:
			base = t.SetRange[0]
		}

		bonus := 0
		if i == 0 && ex.VolumeBump != nil && recoveryExcellent && slices.Contains(ex.VolumeBump.Weeks, weekNumber) {
			bonus = ex.VolumeBump.ExtraSets
		}

		out = append(out, ComputedTarget{SetTarget: t, TargetSets: base + bonus})
	}
	return out
}
