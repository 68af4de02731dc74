// Package session persists named timeline sessions and render jobs in
// SQLite. The editing core itself never touches persistence; the daemon
// saves and restores full-state snapshots here and the render queue drains
// the job table. Collapsed-lane sets cross the persistence boundary as
// ordered JSON arrays, never as a native set type.
package session
