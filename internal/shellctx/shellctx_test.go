package shellctx

import (
	"testing"

	"github.com/nwidger/posh/internal/history"
	"github.com/stretchr/testify/assert"
)

func TestAddHistoryClearsSnapshot(t *testing.T) {
	c := &Context{History: &history.Store{}}
	c.History.Add("ls")
	c.Recall(0, "partial")
	assert.True(t, c.hasSnapshot)

	c.AddHistory("pwd")
	assert.False(t, c.hasSnapshot)
	assert.Equal(t, []string{"ls", "pwd"}, c.History.Entries())
}

func TestRecallStashesOnceAndWalksBack(t *testing.T) {
	c := &Context{History: &history.Store{}}
	c.History.Add("cmd1")
	c.History.Add("cmd2")

	assert.Equal(t, "cmd2", c.Recall(0, "typing"))
	assert.Equal(t, "cmd1", c.Recall(1, "ignored-after-first-call"))
	assert.Equal(t, "typing", c.Recall(5, "ignored"))
}

func TestClearSnapshotStartsFreshSequence(t *testing.T) {
	c := &Context{History: &history.Store{}}
	c.History.Add("only")

	c.Recall(0, "first")
	c.ClearSnapshot()
	assert.Equal(t, "second", c.Recall(5, "second"))
}
