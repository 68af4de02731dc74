package mixer

import (
	"time"

	"soundlab/internal/logging"
	"soundlab/internal/timeline"
)

// framePeriod approximates one display frame for the transport and
// metering loops.
const framePeriod = 16 * time.Millisecond

// Frame is one transport/metering snapshot published to subscribers.
type Frame struct {
	Position    float64                   `json:"position"`
	Playing     bool                      `json:"playing"`
	LaneLevels  map[timeline.Lane]float64 `json:"lane_levels"`
	MasterLevel float64                   `json:"master_level"`
	Frequency   []byte                    `json:"frequency"`
}

// Subscribe registers a frame listener and returns its release function.
// Listeners are invoked from the transport goroutines; the release function
// is safe to call multiple times and on teardown paths.
func (m *Mixer) Subscribe(fn func(Frame)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	released := false
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !released {
			delete(m.listeners, id)
			released = true
		}
	}
}

// Play starts the transport from the playhead.
func (m *Mixer) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playLocked(m.playhead)
}

// PlayFrom seeks and starts the transport in one step.
func (m *Mixer) PlayFrom(position float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if position < 0 {
		position = 0
	}
	return m.playLocked(position)
}

// TogglePlayback pauses a running transport or starts a stopped one.
func (m *Mixer) TogglePlayback() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		m.pauseLocked()
		return nil
	}
	return m.playLocked(m.playhead)
}

// Pause halts the transport, keeping the playhead where it stopped.
func (m *Mixer) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseLocked()
}

// Stop halts the transport and rewinds the playhead to zero.
func (m *Mixer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.playhead = 0
}

// Seek repositions the playhead. While playing, playback restarts from the
// new position.
func (m *Mixer) Seek(position float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekLocked(position)
}

// Rewind seeks to zero.
func (m *Mixer) Rewind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekLocked(0)
}

// SetMasterVolume forwards the master gain to the engine.
func (m *Mixer) SetMasterVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	m.masterVol = volume
	m.engine.SetMasterVolume(volume)
}

// SetLoopRegion installs the loop region. Inverted regions are rejected.
func (m *Mixer) SetLoopRegion(start, end float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if start < 0 || end <= start {
		return false
	}
	m.loop = &timeline.LoopRegion{Start: start, End: end}
	return true
}

// ToggleLoop enables or disables looping. Without a region one spanning the
// whole timeline is installed.
func (m *Mixer) ToggleLoop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loopEnabled {
		m.loopEnabled = false
		return false
	}
	if m.loop == nil {
		duration := m.state.Duration()
		if duration <= 0 {
			return false
		}
		m.loop = &timeline.LoopRegion{Start: 0, End: duration}
	}
	m.loopEnabled = true
	return true
}

// LoopRegion returns the loop region and whether looping is enabled.
func (m *Mixer) LoopRegion() (timeline.LoopRegion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loop == nil {
		return timeline.LoopRegion{}, false
	}
	return *m.loop, m.loopEnabled
}

// Levels returns the current meter snapshot.
func (m *Mixer) Levels() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameLocked()
}

// Dispose tears the mixer down: loops cancelled, engine disposed. The mixer
// is unusable afterwards.
func (m *Mixer) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLoopsLocked()
	m.playing = false
	m.engine.Dispose()
}

func (m *Mixer) playLocked(from float64) error {
	if m.playing {
		m.stopLocked()
	}

	var clips []*timeline.Clip
	laneMutes := make(map[timeline.Lane]bool)
	soloed := len(m.soloLanes) > 0
	for _, group := range m.state.Lanes {
		muted := group.Muted
		if soloed {
			_, solo := m.soloLanes[group.Lane]
			muted = !solo
		}
		laneMutes[group.Lane] = muted
		for _, clip := range group.Clips {
			if clip.Muted {
				continue
			}
			clips = append(clips, clip.Clone())
		}
	}

	if err := m.engine.Play(clips, from, laneMutes); err != nil {
		return err
	}
	m.engine.SetMasterVolume(m.masterVol)
	m.playhead = from
	m.playing = true
	m.startLoopsLocked()
	m.logger.Debug("playback started", logging.Float64("position", from), logging.Int("clips", len(clips)))
	return nil
}

func (m *Mixer) pauseLocked() {
	if !m.playing {
		return
	}
	// Cancel the frame loops before repositioning so a stale callback can
	// never overwrite transport state afterwards.
	m.stopLoopsLocked()
	position := m.engine.CurrentTime()
	m.engine.Stop()
	m.playing = false
	m.playhead = position
	m.resetLevelsLocked()
	m.notifyLocked()
}

func (m *Mixer) stopLocked() {
	if !m.playing {
		return
	}
	m.stopLoopsLocked()
	m.engine.Stop()
	m.playing = false
	m.resetLevelsLocked()
	m.notifyLocked()
}

func (m *Mixer) seekLocked(position float64) {
	if position < 0 {
		position = 0
	}
	if m.playing {
		m.stopLocked()
		m.playhead = position
		_ = m.playLocked(position)
		return
	}
	m.playhead = position
}

func (m *Mixer) startLoopsLocked() {
	done := make(chan struct{})
	m.loopDone = done
	go m.positionLoop(done)
	go m.meteringLoop(done)
}

// stopLoopsLocked cancels the frame loops. Safe to call when no loops run.
func (m *Mixer) stopLoopsLocked() {
	if m.loopDone != nil {
		close(m.loopDone)
		m.loopDone = nil
	}
}

// positionLoop republishes the engine position once per frame, handling
// loop-region wraparound and end-of-timeline stop.
func (m *Mixer) positionLoop(done chan struct{}) {
	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.mu.Lock()
			if !m.playing || m.loopDone == nil {
				m.mu.Unlock()
				return
			}
			position := m.engine.CurrentTime()
			total := m.state.Duration()

			if m.loopEnabled && m.loop != nil && position >= m.loop.End {
				start := m.loop.Start
				m.stopLocked()
				err := m.playLocked(start)
				m.mu.Unlock()
				if err != nil {
					return
				}
				// A fresh loop pair owns the transport now.
				return
			}

			m.playhead = position
			if total > 0 && position >= total {
				m.stopLocked()
				m.playhead = total
				m.notifyLocked()
				m.mu.Unlock()
				return
			}
			m.notifyLocked()
			m.mu.Unlock()
		}
	}
}

// meteringLoop polls the engine for peak and frequency data while playing.
// Levels are zeroed when the loop stops so meters never show stale values.
func (m *Mixer) meteringLoop(done chan struct{}) {
	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			m.mu.Lock()
			m.resetLevelsLocked()
			m.notifyLocked()
			m.mu.Unlock()
			return
		case <-ticker.C:
			m.mu.Lock()
			if !m.playing {
				m.mu.Unlock()
				return
			}
			for _, lane := range timeline.Lanes() {
				m.levels.lanes[lane] = m.engine.LanePeakLevel(lane)
			}
			m.levels.master = m.engine.MasterPeakLevel()
			m.levels.frequency = m.engine.MasterFrequencyData()
			m.mu.Unlock()
		}
	}
}

func (m *Mixer) resetLevelsLocked() {
	for _, lane := range timeline.Lanes() {
		m.levels.lanes[lane] = 0
	}
	m.levels.master = 0
	m.levels.frequency = nil
}

func (m *Mixer) frameLocked() Frame {
	lanes := make(map[timeline.Lane]float64, len(m.levels.lanes))
	for lane, level := range m.levels.lanes {
		lanes[lane] = level
	}
	var freq []byte
	if len(m.levels.frequency) > 0 {
		freq = append(freq, m.levels.frequency...)
	}
	return Frame{
		Position:    m.playhead,
		Playing:     m.playing,
		LaneLevels:  lanes,
		MasterLevel: m.levels.master,
		Frequency:   freq,
	}
}

// notifyLocked publishes the current frame to all subscribers. Called with
// the mutex held; listeners must not call back into the mixer
// synchronously.
func (m *Mixer) notifyLocked() {
	if len(m.listeners) == 0 {
		return
	}
	frame := m.frameLocked()
	for _, fn := range m.listeners {
		fn(frame)
	}
}
