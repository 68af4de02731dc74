// Package mixer is the timeline mixer controller: it owns the lane groups
// as the single source of truth behind an undo-aware setter and orchestrates
// selection, drag gestures, clipboard, markers, looping, auto-ducking, the
// playback transport, and WAV export against the audio engine.
//
// Every interactive mutation is bracketed by one CommitBefore/Commit pair so
// undo always reverts a whole gesture. The transport and metering frame
// loops run as ticker goroutines bound to active playback; stopping cancels
// the loops before the playhead is repositioned and zeroes all meter levels.
package mixer
