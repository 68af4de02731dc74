package mixer

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"soundlab/internal/assets"
	"soundlab/internal/audio"
	"soundlab/internal/clipboard"
	"soundlab/internal/clipedit"
	"soundlab/internal/config"
	"soundlab/internal/ducking"
	"soundlab/internal/history"
	"soundlab/internal/logging"
	"soundlab/internal/markers"
	"soundlab/internal/timeline"
)

// defaultDropDuration is used for dropped assets that do not report one.
const defaultDropDuration = 4.0

// Mixer coordinates all timeline editing and transport state.
type Mixer struct {
	mu sync.Mutex

	logger  *slog.Logger
	engine  audio.Engine
	history *history.Store[*timeline.State]

	state     *timeline.State
	selection *clipedit.Selection
	clipboard *clipboard.Clipboard
	markers   *markers.Registry
	drag      *clipedit.Drag

	grid         clipedit.Grid
	pixelsPerSec float64

	playhead    float64
	playing     bool
	loop        *timeline.LoopRegion
	loopEnabled bool
	soloLanes   map[timeline.Lane]struct{}
	ducking     timeline.DuckingConfig
	masterVol   float64

	loopDone  chan struct{}
	levels    meterLevels
	listeners map[int]func(Frame)
	nextSub   int

	exportDir  string
	sampleRate int
	channels   int
}

type meterLevels struct {
	lanes     map[timeline.Lane]float64
	master    float64
	frequency []byte
}

// New builds a mixer over the given engine using editor defaults from the
// config.
func New(cfg *config.Config, engine audio.Engine, logger *slog.Logger) *Mixer {
	m := &Mixer{
		logger:       logging.NewComponentLogger(logger, "mixer"),
		engine:       engine,
		history:      history.NewStore[*timeline.State](history.DefaultLimit),
		state:        timeline.NewState(),
		selection:    clipedit.NewSelection(),
		clipboard:    clipboard.New(),
		markers:      markers.NewRegistry(),
		soloLanes:    make(map[timeline.Lane]struct{}),
		listeners:    make(map[int]func(Frame)),
		masterVol:    1,
		pixelsPerSec: 100,
		sampleRate:   44100,
		channels:     2,
	}
	m.levels.lanes = make(map[timeline.Lane]float64)
	if cfg != nil {
		m.grid = clipedit.Grid{Size: cfg.Editor.GridSize, Enabled: cfg.Editor.Snapping}
		m.pixelsPerSec = cfg.Editor.PixelsPerSecond
		m.exportDir = cfg.Paths.ExportDir
		m.sampleRate = cfg.Audio.SampleRate
		m.channels = cfg.Audio.Channels
		m.masterVol = cfg.Audio.MasterVolume
		if source, ok := timeline.ParseLane(cfg.Ducking.SourceLane); ok {
			if target, ok := timeline.ParseLane(cfg.Ducking.TargetLane); ok {
				m.ducking = timeline.DuckingConfig{
					Enabled:    cfg.Ducking.Enabled,
					SourceLane: source,
					TargetLane: target,
					Amount:     cfg.Ducking.Amount,
					Attack:     cfg.Ducking.Attack,
					Release:    cfg.Ducking.Release,
				}
			}
		}
	}
	return m
}

// State returns a deep copy of the current timeline.
func (m *Mixer) State() *timeline.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// LoadState replaces the timeline wholesale (e.g. restoring a saved
// session) and resets history, selection, and transport.
func (m *Mixer) LoadState(state *timeline.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	if state == nil {
		state = timeline.NewState()
	}
	m.state = state.Clone()
	m.history.Reset()
	m.selection.Clear()
	m.playhead = 0
}

// Playhead returns the transport position.
func (m *Mixer) Playhead() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playhead
}

// Playing reports whether the transport is running.
func (m *Mixer) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// SelectedIDs returns the selected clip ids in stable order.
func (m *Mixer) SelectedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection.IDs()
}

// SetSnapping toggles grid snapping.
func (m *Mixer) SetSnapping(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid.Enabled = enabled
}

// SetGridSize updates the snap grid size in seconds.
func (m *Mixer) SetGridSize(size float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if size >= 0 {
		m.grid.Size = size
	}
}

// ClipClick applies click selection semantics. Unknown clips are no-ops.
func (m *Mixer) ClipClick(clipID string, shift bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if clip, _ := m.state.FindClip(clipID); clip == nil {
		return
	}
	m.selection.Click(clipID, shift)
}

// SelectAll selects every clip on the timeline.
func (m *Mixer) SelectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection.Replace(m.state.ClipIDs()...)
}

// ClearSelection empties the selection.
func (m *Mixer) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection.Clear()
}

// StartDrag begins a move or resize gesture. Locked and unknown clips
// refuse the gesture without touching history.
func (m *Mixer) StartDrag(clipID string, mode clipedit.Mode, pointerX float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	clip, _ := m.state.FindClip(clipID)
	if clip == nil || clip.Locked {
		return false
	}
	drag, ok := clipedit.Begin(clip, mode, pointerX, m.pixelsPerSec, m.grid)
	if !ok {
		return false
	}
	m.history.CommitBefore(m.state)
	m.drag = drag
	return true
}

// DragTo updates the in-flight gesture for the current pointer position.
func (m *Mixer) DragTo(pointerX float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag == nil {
		return
	}
	m.drag.Update(m.state, pointerX)
}

// EndDrag finalizes the gesture. Gestures that never crossed the motion
// threshold commit nothing.
func (m *Mixer) EndDrag() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag == nil {
		return
	}
	if m.drag.Moved() {
		m.history.Commit(m.state)
	} else {
		m.history.Abort()
	}
	m.drag = nil
}

// DeleteSelected removes every selected clip. Locked clips survive; with
// nothing deletable the operation is a no-op without an undo entry.
func (m *Mixer) DeleteSelected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]struct{})
	for id := range m.selection.Set() {
		if clip, _ := m.state.FindClip(id); clip != nil && !clip.Locked {
			ids[id] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return 0
	}
	m.history.CommitBefore(m.state)
	removed := m.state.RemoveClips(ids)
	m.history.Commit(m.state)
	m.selection.Clear()
	m.logger.Debug("clips deleted", logging.Int("count", removed))
	return removed
}

// Copy captures the current selection into the clipboard.
func (m *Mixer) Copy() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clipboard.Copy(m.state, m.selection.Set())
}

// Paste inserts the clipboard at the playhead and selects the new clips.
// An empty clipboard is a no-op.
func (m *Mixer) Paste() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clipboard.Len() == 0 {
		return nil
	}
	m.history.CommitBefore(m.state)
	ids := m.clipboard.Paste(m.state, m.playhead)
	if len(ids) == 0 {
		m.history.Abort()
		return nil
	}
	m.history.Commit(m.state)
	m.selection.Replace(ids...)
	return ids
}

// Split cuts the selected clips at the playhead. Without an effective split
// nothing is committed.
func (m *Mixer) Split() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history.CommitBefore(m.state)
	splits := clipboard.Split(m.state, m.selection.Set(), m.playhead)
	if splits == 0 {
		m.history.Abort()
		return 0
	}
	m.history.Commit(m.state)
	return splits
}

// Undo reverts the latest gesture.
func (m *Mixer) Undo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.history.Undo(m.state)
	if !ok {
		return false
	}
	m.state = state
	m.pruneSelectionLocked()
	return true
}

// Redo reapplies the latest undone gesture.
func (m *Mixer) Redo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.history.Redo(m.state)
	if !ok {
		return false
	}
	m.state = state
	m.pruneSelectionLocked()
	return true
}

// pruneSelectionLocked drops selected ids that no longer exist after an
// undo or redo.
func (m *Mixer) pruneSelectionLocked() {
	for id := range m.selection.Set() {
		if clip, _ := m.state.FindClip(id); clip == nil {
			m.selection.Click(id, true) // toggle off
		}
	}
}

// SetClipGain updates a clip's gain as one undoable gesture. Locked clips
// are no-ops.
func (m *Mixer) SetClipGain(clipID string, gain float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clip, _ := m.state.FindClip(clipID)
	if clip == nil || clip.Locked {
		return
	}
	if gain < 0 {
		gain = 0
	} else if gain > 1 {
		gain = 1
	}
	m.history.CommitBefore(m.state)
	clip.Gain = gain
	m.history.Commit(m.state)
}

// SetClipFades updates a clip's fades, clamped to half its duration.
func (m *Mixer) SetClipFades(clipID string, fadeIn, fadeOut float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clip, _ := m.state.FindClip(clipID)
	if clip == nil || clip.Locked {
		return
	}
	m.history.CommitBefore(m.state)
	clip.FadeIn = fadeIn
	clip.FadeOut = fadeOut
	clip.ClampFades()
	m.history.Commit(m.state)
}

// SetClipLocked locks or unlocks a clip. Unlocking is the one mutation a
// locked clip accepts.
func (m *Mixer) SetClipLocked(clipID string, locked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clip, _ := m.state.FindClip(clipID)
	if clip == nil || clip.Locked == locked {
		return
	}
	m.history.CommitBefore(m.state)
	clip.Locked = locked
	m.history.Commit(m.state)
}

// SetLaneMute flips one lane's mute flag and mirrors it into the engine.
func (m *Mixer) SetLaneMute(lane timeline.Lane, muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group := m.state.Group(lane)
	if group == nil || group.Muted == muted {
		return
	}
	m.history.CommitBefore(m.state)
	group.Muted = muted
	m.history.Commit(m.state)
	m.engine.SetLaneMute(lane, muted)
}

// ToggleSolo adds or removes a lane from the solo set. Solo is transport
// state, not timeline state, so it carries no undo entry.
func (m *Mixer) ToggleSolo(lane timeline.Lane) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.soloLanes[lane]; ok {
		delete(m.soloLanes, lane)
	} else {
		m.soloLanes[lane] = struct{}{}
	}
}

// SoloLanes returns the current solo set.
func (m *Mixer) SoloLanes() map[timeline.Lane]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[timeline.Lane]struct{}, len(m.soloLanes))
	for lane := range m.soloLanes {
		out[lane] = struct{}{}
	}
	return out
}

// ToggleCollapse flips a lane's collapsed flag. Pure view state: no undo
// entry.
func (m *Mixer) ToggleCollapse(lane timeline.Lane) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if group := m.state.Group(lane); group != nil {
		group.Collapsed = !group.Collapsed
	}
}

// CollapsedLanes returns the collapsed lanes in fixed lane order.
func (m *Mixer) CollapsedLanes() []timeline.Lane {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []timeline.Lane
	for _, group := range m.state.Lanes {
		if group.Collapsed {
			out = append(out, group.Lane)
		}
	}
	return out
}

// AddMarker drops a marker at the playhead.
func (m *Mixer) AddMarker(label string) timeline.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markers.Add(m.playhead, label)
}

// Markers returns the time-ordered marker list.
func (m *Mixer) Markers() []timeline.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markers.Markers()
}

// JumpToNextMarker seeks to the next marker after the playhead, if any.
func (m *Mixer) JumpToNextMarker() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.markers.Next(m.playhead)
	if !ok {
		return false
	}
	m.seekLocked(marker.Time)
	return true
}

// JumpToPrevMarker seeks to the previous marker before the playhead, if
// any.
func (m *Mixer) JumpToPrevMarker() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.markers.Prev(m.playhead)
	if !ok {
		return false
	}
	m.seekLocked(marker.Time)
	return true
}

// SetDucking replaces the auto-duck configuration.
func (m *Mixer) SetDucking(cfg timeline.DuckingConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg.SourceLane == cfg.TargetLane {
		return
	}
	m.ducking = cfg
}

// Ducking returns the auto-duck configuration.
func (m *Mixer) Ducking() timeline.DuckingConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ducking
}

// ApplyDucking computes sidechain automation and writes it onto the target
// clips as one undoable gesture. With nothing to duck it is a no-op.
func (m *Mixer) ApplyDucking() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	envelopes := ducking.Compute(m.ducking, m.state)
	if len(envelopes) == 0 {
		return 0
	}
	m.history.CommitBefore(m.state)
	applied := 0
	for clipID, points := range envelopes {
		clip, _ := m.state.FindClip(clipID)
		if clip == nil || clip.Locked {
			continue
		}
		clip.Automation = points
		applied++
	}
	if applied == 0 {
		m.history.Abort()
		return 0
	}
	m.history.Commit(m.state)
	m.logger.Debug("ducking applied", logging.Int("clips", applied))
	return applied
}

// DropAsset handles a drag-and-drop payload: a JSON asset descriptor plus
// the drop position. Malformed payloads are ignored. The new clip lands on
// the asset's own lane when its type matches one, otherwise the lane under
// the cursor, at the snapped drop time.
func (m *Mixer) DropAsset(payload []byte, dropTime float64, cursorLane timeline.Lane) (string, bool) {
	desc, ok := assets.ParseDragPayload(payload)
	if !ok {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := desc.Duration
	if duration <= 0 {
		duration = defaultDropDuration
	}
	if duration < timeline.MinClipDuration {
		duration = timeline.MinClipDuration
	}
	start := m.grid.Snap(dropTime)
	if start < 0 {
		start = 0
	}

	clip := &timeline.Clip{
		ID:        uuid.NewString(),
		AssetID:   desc.ID,
		Lane:      desc.Lane(cursorLane),
		StartTime: start,
		Duration:  duration,
		Name:      assets.DisplayTitle(desc.Name),
		AudioURL:  desc.AudioURL,
		Waveform:  desc.Waveform,
		Gain:      1,
	}

	m.history.CommitBefore(m.state)
	if !m.state.AddClip(clip) {
		m.history.Abort()
		return "", false
	}
	m.history.Commit(m.state)
	m.selection.Replace(clip.ID)
	m.logger.Debug("asset dropped",
		logging.String(logging.FieldClipID, clip.ID),
		logging.String(logging.FieldLane, string(clip.Lane)),
		logging.Float64("start", clip.StartTime),
	)
	return clip.ID, true
}
