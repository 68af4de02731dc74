// Package ipc implements the control channel between the soundlab CLI and
// the daemon: JSON-RPC over a Unix domain socket. The wire types are
// deliberately flat so the CLI never imports the daemon's internals.
package ipc
