// Package shellctx owns the state threaded through every builtin
// call and the line editor's history recall: the history store and
// the "what was I typing before I started scrolling history" snapshot.
package shellctx

import "github.com/nwidger/posh/internal/history"

// Context is single-threaded and single-owner: the main loop holds
// it and lends it mutably to whichever builtin or editor action needs
// it next.
type Context struct {
	History *history.Store

	hasSnapshot bool
	snapshot    string
}

// New builds a Context around a freshly loaded history store.
func New() *Context {
	return &Context{History: history.New()}
}

// AddHistory records an accepted line and clears any stale recall
// snapshot left over from scrolling through a previous line.
func (c *Context) AddHistory(line string) {
	c.History.Add(line)
	c.ClearSnapshot()
}

// Recall returns the history entry `pos` steps back from the newest.
// On the first call of a recall sequence it stashes `current` (the
// line being typed) so a later call past the oldest entry can hand it
// back. If pos exceeds the entry count, the stashed snapshot is
// returned instead.
func (c *Context) Recall(pos int, current string) string {
	if !c.hasSnapshot {
		c.snapshot = current
		c.hasSnapshot = true
	}
	if entry, ok := c.History.At(pos); ok {
		return entry
	}
	return c.snapshot
}

// ClearSnapshot drops the stashed pre-recall buffer, so the next Up
// arrow starts a fresh recall sequence.
func (c *Context) ClearSnapshot() {
	c.hasSnapshot = false
	c.snapshot = ""
}

// ShutDown flushes history to its configured write path.
func (c *Context) ShutDown() error {
	return c.History.Shutdown()
}
