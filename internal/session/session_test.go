package session

import (
	"context"
	"testing"
	"time"

	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/genaiclient"
	"github.com/yami-inc/ai-death-game/internal/orchestrator"
)

type stubCaller struct{}

func (stubCaller) Generate(context.Context, string, string, genaiclient.Request) (string, error) {
	return "[neutral]ok|||[neutral]ok", nil
}

func testPool() []game.Personality {
	return []game.Personality{
		{CharacterID: "iris", Name: "Iris"},
		{CharacterID: "bram", Name: "Bram"},
		{CharacterID: "odel", Name: "Odel"},
	}
}

func TestCreateAndGet(t *testing.T) {
	m := NewManager(stubCaller{}, "p", "f", nil, orchestrator.Config{})
	d := m.Create(testPool(), 3, "key")
	v := d.Snapshot()
	if len(v.Agents) != 3 {
		t.Fatalf("agents = %d, want 3", len(v.Agents))
	}
	got, ok := m.Get(v.SessionID)
	if !ok || got != d {
		t.Fatal("created session must be retrievable")
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatal("unknown session id must miss")
	}
	m.Remove(v.SessionID)
	if _, ok := m.Get(v.SessionID); ok {
		t.Fatal("removed session must be gone")
	}
}

func TestSweepIdle(t *testing.T) {
	m := NewManager(stubCaller{}, "p", "f", nil, orchestrator.Config{})
	d := m.Create(testPool(), 2, "key")
	id := d.Snapshot().SessionID

	if n := m.SweepIdle(time.Hour); n != 0 {
		t.Fatalf("fresh session must survive the sweep, expired %d", n)
	}
	m.mu.Lock()
	m.sessions[id].lastActive = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()
	if n := m.SweepIdle(time.Hour); n != 1 {
		t.Fatalf("stale session must expire, expired %d", n)
	}
	if m.Len() != 0 {
		t.Fatalf("sessions remaining: %d", m.Len())
	}
}
