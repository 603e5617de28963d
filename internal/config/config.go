package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/keys"
)

type characterEntry struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Appearance  string `json:"appearance"`
	Profile     string `json:"profile"`
	Description string `json:"description"`
	Tone        string `json:"tone"`
	Stats       struct {
		SurvivalInstinct int `json:"survival_instinct"`
		Cooperativeness  int `json:"cooperativeness"`
		Cunning          int `json:"cunning"`
	} `json:"stats"`
}

type rawConfig struct {
	CharacterList []characterEntry `json:"character_list"`
	Server        *struct {
		Address string `json:"address"`
	} `json:"server"`
	Game *struct {
		TurnsPerRound    int `json:"turns_per_round"`
		ParticipantCount int `json:"participant_count"`
		EliminationMS    int `json:"elimination_delay_ms"`
		GMVoteMS         int `json:"gm_vote_delay_ms"`
		SessionTTLMin    int `json:"session_ttl_minutes"`
	} `json:"game"`
	Models *struct {
		Primary  string `json:"primary"`
		Fallback string `json:"fallback"`
	} `json:"models"`
	Database *struct {
		Path string `json:"path"`
	} `json:"database"`
}

// LoadedConfig contains the character pool and runtime settings.
type LoadedConfig struct {
	Characters       []game.Personality
	ServerAddress    string
	DatabasePath     string
	TurnsPerRound    int
	ParticipantCount int
	EliminationMS    int
	GMVoteMS         int
	SessionTTLMin    int
	PrimaryModel     string
	FallbackModel    string
}

// LoadConfig reads the configuration file at path. It requires the key
// `character_list` (snake_case).
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	entries := rc.CharacterList
	if len(entries) == 0 {
		return nil, fmt.Errorf("config file %s: character_list is empty (provide 'character_list' array)", path)
	}

	out := make([]game.Personality, 0, len(entries))
	for _, c := range entries {
		if c.Name == "" {
			return nil, fmt.Errorf("config file %s: character entry missing 'name'", path)
		}
		id := c.CharacterID
		if id == "" {
			id = keys.CharacterID(c.Name)
		}
		out = append(out, game.Personality{
			CharacterID: id,
			Name:        c.Name,
			Appearance:  c.Appearance,
			Profile:     c.Profile,
			Description: c.Description,
			Tone:        c.Tone,
			Stats: game.Stats{
				SurvivalInstinct: c.Stats.SurvivalInstinct,
				Cooperativeness:  c.Stats.Cooperativeness,
				Cunning:          c.Stats.Cunning,
			},
		})
	}

	// Cross-entry validation: unique names and character ids.
	nameSet := make(map[string]struct{}, len(out))
	idSet := make(map[string]struct{}, len(out))
	for _, c := range out {
		ln := strings.ToLower(strings.TrimSpace(c.Name))
		if _, exists := nameSet[ln]; exists {
			return nil, fmt.Errorf("config file %s: duplicate character name '%s'", path, c.Name)
		}
		nameSet[ln] = struct{}{}
		if _, exists := idSet[c.CharacterID]; exists {
			return nil, fmt.Errorf("config file %s: duplicate character_id '%s'", path, c.CharacterID)
		}
		idSet[c.CharacterID] = struct{}{}
	}

	lc := &LoadedConfig{
		Characters:       out,
		ServerAddress:    ":8080",
		DatabasePath:     "deathgame.db",
		TurnsPerRound:    2,
		ParticipantCount: 5,
		EliminationMS:    600,
		GMVoteMS:         1200,
		SessionTTLMin:    60,
		PrimaryModel:     constants.GenaiPrimaryModel,
		FallbackModel:    constants.GenaiFallbackModel,
	}
	if rc.Server != nil && rc.Server.Address != "" {
		lc.ServerAddress = rc.Server.Address
	}
	if rc.Database != nil && rc.Database.Path != "" {
		lc.DatabasePath = rc.Database.Path
	}
	if g := rc.Game; g != nil {
		if g.TurnsPerRound > 0 {
			lc.TurnsPerRound = g.TurnsPerRound
		}
		if g.ParticipantCount > 0 {
			lc.ParticipantCount = g.ParticipantCount
		}
		if g.EliminationMS > 0 {
			lc.EliminationMS = g.EliminationMS
		}
		if g.GMVoteMS > 0 {
			lc.GMVoteMS = g.GMVoteMS
		}
		if g.SessionTTLMin > 0 {
			lc.SessionTTLMin = g.SessionTTLMin
		}
	}
	if rc.Models != nil {
		if rc.Models.Primary != "" {
			lc.PrimaryModel = rc.Models.Primary
		}
		if rc.Models.Fallback != "" {
			lc.FallbackModel = rc.Models.Fallback
		}
	}
	if lc.ParticipantCount > len(out) {
		return nil, fmt.Errorf("config file %s: participant_count %d exceeds character pool of %d", path, lc.ParticipantCount, len(out))
	}
	return lc, nil
}
