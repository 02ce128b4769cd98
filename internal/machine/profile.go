// Package machine defines the static table of supported machine profiles.
// A profile fixes the physical limits the pipeline needs: the feedrate
// ceiling used for output validation, the rapid feedrate used to normalize
// rapid moves, and the fallback safe height when no heuristic produces one.
package machine

// Profile holds the fixed limits for one machine model.
// Feedrates are in mm/min, heights in mm.
type Profile struct {
	Name              string  `json:"name"`
	MaxFeedrate       float64 `json:"max_feedrate"`
	RapidFeedrate     float64 `json:"rapid_feedrate"`
	DefaultSafeHeight float64 `json:"default_safe_height"`
}

// Generic is the profile name used when no machine is specified or the
// requested name is unknown.
const Generic = "generic"

// profiles is the read-only profile table. Loaded once, never mutated.
var profiles = map[string]Profile{
	"generic":  {Name: "generic", MaxFeedrate: 2500, RapidFeedrate: 2500, DefaultSafeHeight: 10},
	"shapeoko": {Name: "shapeoko", MaxFeedrate: 5000, RapidFeedrate: 5000, DefaultSafeHeight: 10},
	"xcarve":   {Name: "xcarve", MaxFeedrate: 8000, RapidFeedrate: 8000, DefaultSafeHeight: 12},
	"nomad3":   {Name: "nomad3", MaxFeedrate: 2500, RapidFeedrate: 2500, DefaultSafeHeight: 8},
}

// Lookup returns the profile for name. Unknown names fall back to the
// generic profile; ok reports whether the name was recognized so the
// caller can warn.
func Lookup(name string) (Profile, bool) {
	if name == "" {
		return profiles[Generic], true
	}
	if p, ok := profiles[name]; ok {
		return p, true
	}
	return profiles[Generic], false
}

// Names returns the recognized profile names.
func Names() []string {
	return []string{"generic", "shapeoko", "xcarve", "nomad3"}
}
