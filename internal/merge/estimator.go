package merge

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/grbltools/gmerge/internal/gcode"
	"github.com/grbltools/gmerge/internal/machine"
)

// Clamp bounds for any resolved safe height, in length units.
const (
	MinSafeHeight = 1.0
	MaxSafeHeight = 100.0
)

// DefaultFeedrateThreshold is the ratio a feedrate must drop below for the
// feedrate-drop heuristic to record a candidate.
const DefaultFeedrateThreshold = 0.75

// EstimatorConfig carries the tunable inputs of one estimation pass.
type EstimatorConfig struct {
	// Override, when set, is clamped to [MinSafeHeight, MaxSafeHeight] and
	// returned without consulting any heuristic.
	Override *float64
	// Threshold is the feedrate-drop ratio; zero means DefaultFeedrateThreshold.
	Threshold float64
	// Floor is the minimum Z a candidate must exceed to count as a travel
	// height; zero means MinSafeHeight.
	Floor float64
	// Profile supplies the fallback safe height when no heuristic fires.
	Profile machine.Profile
}

// HeightEstimate is the resolved safe height plus provenance.
type HeightEstimate struct {
	Height float64 `json:"height"`
	// Source names what produced the height: "override", "profile-default",
	// or the heuristic whose candidate was picked.
	Source   string   `json:"source"`
	Warnings []string `json:"warnings,omitempty"`
}

// candidate is one heuristic vote. Never persisted beyond an estimation pass.
type candidate struct {
	z      float64
	method string
}

const (
	methodFeedrateDrop   = "feedrate-drop"
	methodMaxZ           = "max-z"
	methodRetractComment = "retract-comment"
)

// EstimateSafeHeight combines three independent heuristics over the first
// file's lines into one safe Z height. The pooling-and-percentile policy is
// deliberate: it biases toward generous clearance over the median.
func EstimateSafeHeight(parsed []gcode.Line, cfg EstimatorConfig) HeightEstimate {
	if cfg.Override != nil {
		h := *cfg.Override
		clamped := math.Min(math.Max(h, MinSafeHeight), MaxSafeHeight)
		est := HeightEstimate{Height: clamped, Source: "override"}
		if clamped != h {
			est.Warnings = append(est.Warnings,
				fmt.Sprintf("safe height override %v clamped to %v", h, clamped))
		}
		return est
	}

	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultFeedrateThreshold
	}
	floor := cfg.Floor
	if floor == 0 {
		floor = MinSafeHeight
	}

	var pool []candidate
	pool = append(pool, feedrateDropCandidates(parsed, threshold, floor)...)
	pool = append(pool, maxZCandidates(parsed, floor)...)
	pool = append(pool, retractCommentCandidates(parsed)...)

	valid := pool[:0]
	for _, c := range pool {
		if c.z >= MinSafeHeight && c.z <= MaxSafeHeight {
			valid = append(valid, c)
		}
	}

	if len(valid) == 0 {
		return HeightEstimate{
			Height: cfg.Profile.DefaultSafeHeight,
			Source: "profile-default",
			Warnings: []string{fmt.Sprintf(
				"no safe-height candidates found, using %s profile default %v",
				cfg.Profile.Name, cfg.Profile.DefaultSafeHeight)},
		}
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].z < valid[j].z })
	idx := 3 * len(valid) / 4
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	picked := valid[idx]
	return HeightEstimate{Height: math.Ceil(picked.z), Source: picked.method}
}

// feedrateDropCandidates walks lines tracking current Z and the last seen
// feedrate. When a line brings a new Z together with a feedrate below
// threshold times the previous one, the previous Z is recorded: that is the
// moment a rapid travel transitions into a slower cutting move.
func feedrateDropCandidates(parsed []gcode.Line, threshold, floor float64) []candidate {
	var out []candidate
	var currentZ, lastFeed *float64

	for _, l := range parsed {
		z, zok := l.Word('Z')
		f, fok := l.Word('F')

		newZ := zok && (currentZ == nil || z != *currentZ)
		if newZ && fok && lastFeed != nil && f < *lastFeed*threshold &&
			currentZ != nil && *currentZ > floor {
			out = append(out, candidate{z: *currentZ, method: methodFeedrateDrop})
		}

		if zok {
			zv := z
			currentZ = &zv
		}
		if fok {
			fv := f
			lastFeed = &fv
		}
	}
	return out
}

// maxZCandidates collects Z values from rapid moves above the floor and
// keeps only the top quartile, favoring consistently high travel heights
// over single outliers.
func maxZCandidates(parsed []gcode.Line, floor float64) []candidate {
	var zs []float64
	for _, l := range parsed {
		if !l.IsRapid() {
			continue
		}
		if z, ok := l.Word('Z'); ok && z > floor {
			zs = append(zs, z)
		}
	}
	if len(zs) == 0 {
		return nil
	}

	sort.Float64s(zs)
	idx := 3 * len(zs) / 4
	if idx >= len(zs) {
		idx = len(zs) - 1
	}

	out := make([]candidate, 0, len(zs)-idx)
	for _, z := range zs[idx:] {
		out = append(out, candidate{z: z, method: methodMaxZ})
	}
	return out
}

// retractCommentCandidates contributes the Z of any line whose text
// mentions retraction or clearance. The Z may sit inside the comment itself
// ("(retract to Z15)"), so it is read from the raw text, not the code portion.
func retractCommentCandidates(parsed []gcode.Line) []candidate {
	var out []candidate
	for _, l := range parsed {
		lower := strings.ToLower(l.Raw)
		if !strings.Contains(lower, "retract") && !strings.Contains(lower, "clearance") {
			continue
		}
		if z, ok := gcode.RawWord(l.Raw, 'Z'); ok {
			out = append(out, candidate{z: z, method: methodRetractComment})
		}
	}
	return out
}
