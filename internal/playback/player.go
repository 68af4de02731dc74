// Package playback implements the audio.Engine contract with a pure-Go
// engine: each Play call renders the scheduled clips per lane, and the
// transport position advances against a monotonic clock. Metering and
// frequency queries read the rendered lanes at the current position, so the
// mixer's frame loops observe the same signal an output device would.
package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"soundlab/internal/audio"
	"soundlab/internal/render"
	"soundlab/internal/timeline"
)

// meterWindow is the slice of signal inspected for peak levels.
const meterWindow = 50 * time.Millisecond

// frequencyBands is the number of bands MasterFrequencyData reports.
const frequencyBands = 32

// analysisWindow is the sample window used for frequency analysis.
const analysisWindow = 1024

// Player is an offline-rendering audio engine.
type Player struct {
	source     render.Source
	sampleRate int
	channels   int

	mu           sync.Mutex
	initialized  bool
	playing      bool
	masterVolume float64
	laneMutes    map[timeline.Lane]bool
	lanes        map[timeline.Lane]*audio.Buffer
	startedAt    time.Time
	startOffset  float64
}

// NewPlayer builds a player rendering clips through the given source.
func NewPlayer(source render.Source, sampleRate, channels int) *Player {
	return &Player{
		source:       source,
		sampleRate:   sampleRate,
		channels:     channels,
		masterVolume: 1,
		laneMutes:    make(map[timeline.Lane]bool),
		lanes:        make(map[timeline.Lane]*audio.Buffer),
	}
}

// Init implements audio.Engine.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = true
	return nil
}

// Play renders each lane's clips and starts the transport at startTime.
func (p *Player) Play(clips []*timeline.Clip, startTime float64, laneMutes map[timeline.Lane]bool) error {
	state := timeline.NewState()
	for _, clip := range clips {
		state.AddClip(clip.Clone())
	}
	duration := state.Duration()

	renderer := render.NewRenderer(p.source)
	lanes := make(map[timeline.Lane]*audio.Buffer, len(state.Lanes))
	for _, lane := range timeline.Lanes() {
		buf, err := renderer.Render(context.Background(), state, render.Options{
			SampleRate: p.sampleRate,
			Channels:   p.channels,
			SoloLanes:  map[timeline.Lane]struct{}{lane: {}},
			Duration:   duration,
		})
		if err != nil {
			return err
		}
		lanes[lane] = buf
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lanes = lanes
	p.laneMutes = make(map[timeline.Lane]bool, len(laneMutes))
	for lane, muted := range laneMutes {
		p.laneMutes[lane] = muted
	}
	p.startOffset = startTime
	p.startedAt = time.Now()
	p.playing = true
	return nil
}

// Stop implements audio.Engine. The transport position freezes at the stop
// point.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.startOffset = p.currentTimeLocked()
	p.playing = false
}

// CurrentTime implements audio.Engine.
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTimeLocked()
}

func (p *Player) currentTimeLocked() float64 {
	if !p.playing {
		return p.startOffset
	}
	return p.startOffset + time.Since(p.startedAt).Seconds()
}

// SetMasterVolume implements audio.Engine.
func (p *Player) SetMasterVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.masterVolume = math.Max(0, math.Min(1, volume))
}

// SetLaneMute implements audio.Engine.
func (p *Player) SetLaneMute(lane timeline.Lane, muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.laneMutes[lane] = muted
}

// LanePeakLevel implements audio.Engine.
func (p *Player) LanePeakLevel(lane timeline.Lane) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.laneMutes[lane] {
		return 0
	}
	buf := p.lanes[lane]
	if buf == nil {
		return 0
	}
	from, count := p.meterSpanLocked()
	return math.Min(1, buf.Peak(from, count)*p.masterVolume)
}

// MasterPeakLevel implements audio.Engine.
func (p *Player) MasterPeakLevel() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return 0
	}
	from, count := p.meterSpanLocked()
	var peak float64
	for i := 0; i < count; i++ {
		if v := math.Abs(p.masterSampleLocked(from + i)); v > peak {
			peak = v
		}
	}
	return math.Min(1, peak*p.masterVolume)
}

// MasterFrequencyData implements audio.Engine: coarse magnitudes for
// log-spaced bands over the analysis window at the playhead.
func (p *Player) MasterFrequencyData() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, frequencyBands)
	if !p.playing {
		return out
	}
	from, _ := p.meterSpanLocked()
	window := make([]float64, analysisWindow)
	for i := range window {
		window[i] = p.masterSampleLocked(from + i)
	}
	for band := 0; band < frequencyBands; band++ {
		freq := bandFrequency(band, p.sampleRate)
		magnitude := goertzel(window, freq, p.sampleRate)
		scaled := math.Min(1, magnitude*4) * 255
		out[band] = byte(scaled)
	}
	return out
}

// Dispose implements audio.Engine.
func (p *Player) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.initialized = false
	p.lanes = make(map[timeline.Lane]*audio.Buffer)
}

func (p *Player) meterSpanLocked() (from, count int) {
	pos := p.currentTimeLocked()
	from = int(pos * float64(p.sampleRate))
	count = int(meterWindow.Seconds() * float64(p.sampleRate))
	return from, count
}

// masterSampleLocked sums the unmuted lane buffers at one frame, averaged
// across channels.
func (p *Player) masterSampleLocked(frame int) float64 {
	var sum float64
	for lane, buf := range p.lanes {
		if p.laneMutes[lane] || buf == nil || frame < 0 || frame >= buf.Frames() {
			continue
		}
		for _, channel := range buf.Data {
			sum += float64(channel[frame]) / float64(buf.Channels())
		}
	}
	return sum
}

// bandFrequency spaces bands logarithmically between 40 Hz and Nyquist.
func bandFrequency(band, sampleRate int) float64 {
	low := 40.0
	high := float64(sampleRate) / 2
	ratio := float64(band) / float64(frequencyBands-1)
	return low * math.Pow(high/low, ratio)
}

// goertzel measures a single frequency's magnitude in the window.
func goertzel(window []float64, freq float64, sampleRate int) float64 {
	if len(window) == 0 {
		return 0
	}
	omega := 2 * math.Pi * freq / float64(sampleRate)
	coeff := 2 * math.Cos(omega)
	var s0, s1, s2 float64
	for _, sample := range window {
		s0 = sample + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - coeff*s1*s2
	return math.Sqrt(math.Max(0, power)) / float64(len(window))
}
