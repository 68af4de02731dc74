// Package timeline defines the data model for the Sound Lab mixer: clips,
// lane groups, markers, loop regions, and ducking configuration. The State
// type is the single source of truth for an editing session; every mutation
// path goes through deep clones so undo history stays consistent with the
// live view.
package timeline
