// Package render composes all timeline lanes into a single offline audio
// buffer, honoring per-clip gain, fades, and automation as well as lane
// mute/solo. Rendering never mutates timeline state; a failed render leaves
// nothing partially committed.
package render

import (
	"context"
	"fmt"
	"math"

	"soundlab/internal/audio"
	"soundlab/internal/timeline"
)

// Source resolves a clip to its decoded audio. Returning a nil buffer (or
// an error) degrades the clip to silence instead of failing the render.
type Source interface {
	ClipBuffer(clip *timeline.Clip) (*audio.Buffer, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(clip *timeline.Clip) (*audio.Buffer, error)

// ClipBuffer implements Source.
func (f SourceFunc) ClipBuffer(clip *timeline.Clip) (*audio.Buffer, error) {
	return f(clip)
}

// Silence is a Source that renders every clip as silence.
var Silence = SourceFunc(func(*timeline.Clip) (*audio.Buffer, error) { return nil, nil })

// Options configures one offline render.
type Options struct {
	SampleRate int
	Channels   int
	// SoloLanes, when non-empty, restricts rendering to those lanes and
	// overrides every lane's own mute flag.
	SoloLanes map[timeline.Lane]struct{}
	// Duration forces the rendered length in seconds; zero means the
	// natural timeline duration.
	Duration float64
	// Progress, when set, receives monotonically increasing percentages
	// from 0 to 100.
	Progress func(percent int)
}

// Renderer performs offline mixdowns against a clip source.
type Renderer struct {
	source Source
}

// NewRenderer builds a renderer. A nil source renders silence.
func NewRenderer(source Source) *Renderer {
	if source == nil {
		source = Silence
	}
	return &Renderer{source: source}
}

// Render mixes every included lane into one buffer. Context cancellation
// aborts between clips and returns the context error.
func (r *Renderer) Render(ctx context.Context, state *timeline.State, opts Options) (*audio.Buffer, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("render: invalid sample rate %d", opts.SampleRate)
	}
	if opts.Channels < 1 {
		return nil, fmt.Errorf("render: invalid channel count %d", opts.Channels)
	}

	duration := opts.Duration
	if duration <= 0 {
		duration = state.Duration()
	}
	frames := int(math.Ceil(duration * float64(opts.SampleRate)))
	out := audio.NewBuffer(opts.Channels, frames, opts.SampleRate)

	report := func(percent int) {
		if opts.Progress != nil {
			opts.Progress(percent)
		}
	}
	report(0)

	var included []*timeline.Clip
	for _, group := range state.Lanes {
		if !laneIncluded(group, opts.SoloLanes) {
			continue
		}
		for _, clip := range group.Clips {
			if clip.Muted {
				continue
			}
			included = append(included, clip)
		}
	}

	for i, clip := range included {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source, err := r.source.ClipBuffer(clip)
		if err != nil {
			source = nil // degrade to silence
		}
		mixClip(out, clip, source)
		report((i + 1) * 100 / len(included))
	}
	report(100)
	return out, nil
}

// laneIncluded applies the solo-overrides-mute rule: a non-empty solo set
// silences every non-soloed lane regardless of its own mute flag.
func laneIncluded(group *timeline.LaneGroup, solo map[timeline.Lane]struct{}) bool {
	if len(solo) > 0 {
		_, ok := solo[group.Lane]
		return ok
	}
	return !group.Muted
}

// mixClip adds one clip into the output buffer with gain, fades, and
// automation applied per frame.
func mixClip(out *audio.Buffer, clip *timeline.Clip, source *audio.Buffer) {
	rate := float64(out.SampleRate)
	startFrame := int(math.Round(clip.StartTime * rate))
	clipFrames := int(math.Round(clip.Duration * rate))

	for f := 0; f < clipFrames; f++ {
		outFrame := startFrame + f
		if outFrame < 0 || outFrame >= out.Frames() {
			continue
		}
		local := float64(f) / rate
		gain := clip.Gain * fadeGain(clip, local) * AutomationValue(clip.Automation, local)
		if gain <= 0 {
			continue
		}
		for ch := 0; ch < out.Channels(); ch++ {
			sample := sourceSample(source, ch, local)
			out.Data[ch][outFrame] += float32(float64(sample) * gain)
		}
	}
	clampBuffer(out, startFrame, clipFrames)
}

// sourceSample reads the source at a local time with linear interpolation.
// Missing sources and out-of-range reads yield silence; mono sources feed
// every output channel.
func sourceSample(source *audio.Buffer, channel int, local float64) float32 {
	if source == nil || source.Frames() == 0 || source.SampleRate <= 0 {
		return 0
	}
	if channel >= source.Channels() {
		channel = source.Channels() - 1
	}
	pos := local * float64(source.SampleRate)
	idx := int(pos)
	if idx < 0 || idx >= source.Frames() {
		return 0
	}
	data := source.Data[channel]
	frac := float32(pos - float64(idx))
	if idx+1 >= len(data) {
		return data[idx]
	}
	return data[idx]*(1-frac) + data[idx+1]*frac
}

// fadeGain applies linear edge ramps for the clip's fade-in and fade-out.
func fadeGain(clip *timeline.Clip, local float64) float64 {
	gain := 1.0
	if clip.FadeIn > 0 && local < clip.FadeIn {
		gain *= local / clip.FadeIn
	}
	if clip.FadeOut > 0 && local > clip.Duration-clip.FadeOut {
		gain *= (clip.Duration - local) / clip.FadeOut
	}
	return math.Max(0, math.Min(1, gain))
}

// AutomationValue interpolates the envelope at a local time. Before the
// first point the first value holds; after the last point the last value
// holds; an empty envelope is unity gain.
func AutomationValue(points []timeline.AutomationPoint, local float64) float64 {
	if len(points) == 0 {
		return 1
	}
	if local <= points[0].Time {
		return points[0].Value
	}
	for i := 1; i < len(points); i++ {
		if local > points[i].Time {
			continue
		}
		prev, next := points[i-1], points[i]
		span := next.Time - prev.Time
		if span <= 0 {
			return next.Value
		}
		t := (local - prev.Time) / span
		return prev.Value + (next.Value-prev.Value)*t
	}
	return points[len(points)-1].Value
}

// clampBuffer hard-limits the touched frame window to [-1,1] so stacked
// clips cannot push the mix outside encodable range.
func clampBuffer(out *audio.Buffer, from, count int) {
	for _, channel := range out.Data {
		end := from + count
		if end > len(channel) {
			end = len(channel)
		}
		for i := max(from, 0); i < end; i++ {
			if channel[i] > 1 {
				channel[i] = 1
			} else if channel[i] < -1 {
				channel[i] = -1
			}
		}
	}
}
