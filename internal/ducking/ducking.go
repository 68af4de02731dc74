// Package ducking computes sidechain gain automation: whenever the source
// lane is active, target-lane clips ramp down to a configured gain floor
// with attack/release smoothing. Envelopes are computed per target clip in
// that clip's local time axis; attack and release windows clamp to the
// clip's own boundaries and never bleed into neighbouring clips.
package ducking

import (
	"math"
	"sort"

	"soundlab/internal/timeline"
)

// dedupeWindow collapses automation points landing within 1 ms of each
// other, keeping the later-inserted value.
const dedupeWindow = 0.001

// Region is a half-open [Start,End) span of source-lane activity.
type Region struct {
	Start float64
	End   float64
}

// MergeRegions collapses overlapping or touching spans into a minimal
// sorted set. Adjacent regions (next start == current end) merge.
func MergeRegions(regions []Region) []Region {
	if len(regions) == 0 {
		return nil
	}
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []Region{sorted[0]}
	for _, region := range sorted[1:] {
		last := &merged[len(merged)-1]
		if region.Start <= last.End {
			if region.End > last.End {
				last.End = region.End
			}
			continue
		}
		merged = append(merged, region)
	}
	return merged
}

// Compute returns the automation envelope for every target-lane clip that
// actually ducks, keyed by clip id. Disabled configs and silent source lanes
// produce an empty map. Clips whose envelope degenerates to a flat line
// (two or fewer points) are omitted so trivial automation never pollutes
// the timeline.
func Compute(cfg timeline.DuckingConfig, state *timeline.State) map[string][]timeline.AutomationPoint {
	result := make(map[string][]timeline.AutomationPoint)
	if !cfg.Enabled || state == nil {
		return result
	}
	source := state.Group(cfg.SourceLane)
	target := state.Group(cfg.TargetLane)
	if source == nil || target == nil || len(source.Clips) == 0 {
		return result
	}

	spans := make([]Region, 0, len(source.Clips))
	for _, clip := range source.Clips {
		spans = append(spans, Region{Start: clip.StartTime, End: clip.End()})
	}
	regions := MergeRegions(spans)

	for _, clip := range target.Clips {
		points := envelope(clip, regions, cfg)
		if len(points) > 2 {
			result[clip.ID] = points
		}
	}
	return result
}

// envelope builds one clip's envelope in local time: full gain at both
// edges, and for each overlapping source region a ramp down starting attack
// seconds early, a hold at the configured amount, and a ramp back up within
// release seconds.
func envelope(clip *timeline.Clip, regions []Region, cfg timeline.DuckingConfig) []timeline.AutomationPoint {
	clipStart := clip.StartTime
	clipEnd := clip.End()

	points := []timeline.AutomationPoint{{Time: 0, Value: 1}}
	ducked := false
	for _, region := range regions {
		if region.End <= clipStart || region.Start >= clipEnd {
			continue
		}
		ducked = true

		rampDownStart := math.Max(region.Start-cfg.Attack, clipStart)
		holdStart := math.Max(region.Start, clipStart)
		holdEnd := math.Min(region.End, clipEnd)
		rampUpEnd := math.Min(region.End+cfg.Release, clipEnd)

		points = append(points,
			timeline.AutomationPoint{Time: rampDownStart - clipStart, Value: 1},
			timeline.AutomationPoint{Time: holdStart - clipStart, Value: cfg.Amount},
			timeline.AutomationPoint{Time: holdEnd - clipStart, Value: cfg.Amount},
			timeline.AutomationPoint{Time: rampUpEnd - clipStart, Value: 1},
		)
	}
	if !ducked {
		return nil
	}
	points = append(points, timeline.AutomationPoint{Time: clip.Duration, Value: 1})
	return dedupe(points)
}

// dedupe removes points sharing a timestamp within the 1 ms window, keeping
// the later-inserted value for each collision.
func dedupe(points []timeline.AutomationPoint) []timeline.AutomationPoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	out := points[:0]
	for _, point := range points {
		if len(out) > 0 && math.Abs(point.Time-out[len(out)-1].Time) < dedupeWindow {
			out[len(out)-1] = point
			continue
		}
		out = append(out, point)
	}
	return out
}
