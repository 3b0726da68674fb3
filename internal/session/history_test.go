package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsearch/internal/domain"
)

func TestHistory_RecordAndTurns(t *testing.T) {
	h := NewHistory(time.Minute, 10)
	h.Record("s1", Turn{Query: "dry skin", Kind: domain.KindRecommendation, Products: 3})
	h.Record("s1", Turn{Query: "what about spf", Kind: domain.KindQuestion})
	h.Record("s2", Turn{Query: "other"})

	turns := h.Turns("s1")
	require.Len(t, turns, 2)
	assert.Equal(t, "dry skin", turns[0].Query)
	assert.Equal(t, "what about spf", turns[1].Query)
	assert.False(t, turns[0].At.IsZero())
	assert.Len(t, h.Turns("s2"), 1)
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(time.Minute, 2)
	h.Record("s", Turn{Query: "1"})
	h.Record("s", Turn{Query: "2"})
	h.Record("s", Turn{Query: "3"})

	turns := h.Turns("s")
	require.Len(t, turns, 2)
	assert.Equal(t, "2", turns[0].Query)
	assert.Equal(t, "3", turns[1].Query)
}

func TestHistory_IgnoresEmptySession(t *testing.T) {
	h := NewHistory(time.Minute, 2)
	h.Record("", Turn{Query: "x"})
	assert.Nil(t, h.Turns(""))
}

func TestHistory_CarryAndForget(t *testing.T) {
	h := NewHistory(time.Minute, 5)
	h.Record("old", Turn{Query: "q"})
	h.Carry("old", "new")

	assert.Nil(t, h.Turns("old"))
	assert.Len(t, h.Turns("new"), 1)

	h.Forget("new")
	assert.Nil(t, h.Turns("new"))
}

func TestHistory_Expiry(t *testing.T) {
	h := NewHistory(20*time.Millisecond, 5)
	h.Record("s", Turn{Query: "q"})
	time.Sleep(40 * time.Millisecond)
	assert.Nil(t, h.Turns("s"))
}

func TestHistory_NilSafe(t *testing.T) {
	var h *History
	h.Record("s", Turn{})
	h.Forget("s")
	h.Carry("a", "b")
	assert.Nil(t, h.Turns("s"))
}
