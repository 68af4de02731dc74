package timeline

import "strings"

// Lane identifies one of the four fixed mixer lanes.
type Lane string

const (
	LaneVoice    Lane = "voice"
	LaneMusic    Lane = "music"
	LaneSFX      Lane = "sfx"
	LaneAmbience Lane = "ambience"
)

// MinClipDuration is the floor enforced on every interactive resize.
const MinClipDuration = 0.5

var allLanes = []Lane{LaneVoice, LaneMusic, LaneSFX, LaneAmbience}

// Lanes returns the fixed lane order used across the mixer.
func Lanes() []Lane {
	out := make([]Lane, len(allLanes))
	copy(out, allLanes)
	return out
}

// ParseLane maps a string onto a known lane.
func ParseLane(value string) (Lane, bool) {
	lane := Lane(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range allLanes {
		if lane == known {
			return known, true
		}
	}
	return "", false
}

// AutomationPoint is one gain envelope breakpoint relative to clip start.
type AutomationPoint struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Clip is a placed audio segment on the timeline. Times are in seconds.
type Clip struct {
	ID         string            `json:"id"`
	AssetID    string            `json:"asset_id"`
	Lane       Lane              `json:"lane"`
	StartTime  float64           `json:"start_time"`
	Duration   float64           `json:"duration"`
	Name       string            `json:"name"`
	AudioURL   string            `json:"audio_url,omitempty"`
	Waveform   []float64         `json:"waveform,omitempty"`
	Gain       float64           `json:"gain"`
	FadeIn     float64           `json:"fade_in"`
	FadeOut    float64           `json:"fade_out"`
	Locked     bool              `json:"locked"`
	Muted      bool              `json:"muted"`
	Automation []AutomationPoint `json:"automation,omitempty"`
}

// End returns the clip's right edge on the timeline.
func (c *Clip) End() float64 {
	return c.StartTime + c.Duration
}

// Clone returns a deep copy of the clip.
func (c *Clip) Clone() *Clip {
	if c == nil {
		return nil
	}
	cp := *c
	if len(c.Waveform) > 0 {
		cp.Waveform = make([]float64, len(c.Waveform))
		copy(cp.Waveform, c.Waveform)
	}
	if len(c.Automation) > 0 {
		cp.Automation = make([]AutomationPoint, len(c.Automation))
		copy(cp.Automation, c.Automation)
	}
	return &cp
}

// ClampFades trims fade-in/fade-out so neither exceeds half the duration.
func (c *Clip) ClampFades() {
	limit := c.Duration / 2
	if c.FadeIn > limit {
		c.FadeIn = limit
	}
	if c.FadeOut > limit {
		c.FadeOut = limit
	}
	if c.FadeIn < 0 {
		c.FadeIn = 0
	}
	if c.FadeOut < 0 {
		c.FadeOut = 0
	}
}

// LaneGroup owns the ordered clip list for one lane plus its UI flags.
type LaneGroup struct {
	Lane      Lane    `json:"lane"`
	Clips     []*Clip `json:"clips"`
	Muted     bool    `json:"muted"`
	Collapsed bool    `json:"collapsed"`
}

// Clone returns a deep copy of the lane group.
func (g *LaneGroup) Clone() *LaneGroup {
	if g == nil {
		return nil
	}
	cp := &LaneGroup{Lane: g.Lane, Muted: g.Muted, Collapsed: g.Collapsed}
	cp.Clips = make([]*Clip, 0, len(g.Clips))
	for _, clip := range g.Clips {
		cp.Clips = append(cp.Clips, clip.Clone())
	}
	return cp
}

// Marker is a named timeline bookmark.
type Marker struct {
	ID    int     `json:"id"`
	Time  float64 `json:"time"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// LoopRegion bounds transport looping. At most one is active at a time.
type LoopRegion struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DuckingConfig drives the auto-duck automation engine.
type DuckingConfig struct {
	Enabled    bool    `json:"enabled"`
	SourceLane Lane    `json:"source_lane"`
	TargetLane Lane    `json:"target_lane"`
	Amount     float64 `json:"amount"`
	Attack     float64 `json:"attack"`
	Release    float64 `json:"release"`
}
