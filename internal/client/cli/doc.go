// Package cli provides the interactive StudyPlan command-line client.
//
// It wires configuration, local storage, the backend client, and an
// interactive REPL that supports online/offline operation. Typical flow:
// prompt for the snapshot passphrase, start a background connectivity
// watcher, and execute user commands; queued offline actions replay
// automatically when connectivity returns.
//
// Key features:
//   - Add assignments, lectures and study sessions (with reminder schedules)
//   - List the cached task view
//   - Complete / Delete / Restore tasks, online or offline
//   - Sync queued offline actions on demand
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
