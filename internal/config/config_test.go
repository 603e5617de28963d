package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

const validConfig = `{
  "character_list": [
    {"name": "Iris", "tone": "cold", "stats": {"survival_instinct": 80, "cooperativeness": 20, "cunning": 90}},
    {"name": "Bram", "tone": "warm", "stats": {"survival_instinct": 40, "cooperativeness": 85, "cunning": 30}}
  ],
  "server": {"address": ":9090"},
  "game": {"turns_per_round": 3, "participant_count": 2},
  "models": {"primary": "model-a", "fallback": "model-b"}
}`

func TestLoadConfig(t *testing.T) {
	lc, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(lc.Characters) != 2 {
		t.Fatalf("characters = %d, want 2", len(lc.Characters))
	}
	if lc.Characters[0].CharacterID != "iris" {
		t.Fatalf("derived character id = %q", lc.Characters[0].CharacterID)
	}
	if lc.ServerAddress != ":9090" || lc.TurnsPerRound != 3 || lc.ParticipantCount != 2 {
		t.Fatalf("unexpected settings: %+v", lc)
	}
	if lc.PrimaryModel != "model-a" || lc.FallbackModel != "model-b" {
		t.Fatalf("unexpected models: %+v", lc)
	}
	if lc.EliminationMS != 600 {
		t.Fatalf("elimination delay default = %d, want 600", lc.EliminationMS)
	}
}

func TestLoadConfigRejectsEmptyList(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, `{"character_list": []}`)); err == nil {
		t.Fatal("expected error for empty character_list")
	}
}

func TestLoadConfigRejectsDuplicateNames(t *testing.T) {
	body := `{"character_list": [{"name": "Iris"}, {"name": "iris"}]}`
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for duplicate names")
	}
}

func TestLoadConfigRejectsOversizedParticipantCount(t *testing.T) {
	body := `{"character_list": [{"name": "Iris"}], "game": {"participant_count": 4}}`
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatal("expected error when participant_count exceeds the pool")
	}
}
