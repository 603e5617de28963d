package main

import (
	"os"
	"time"

	"github.com/yami-inc/ai-death-game/internal/api"
	"github.com/yami-inc/ai-death-game/internal/config"
	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/genaiclient"
	"github.com/yami-inc/ai-death-game/internal/logging"
	"github.com/yami-inc/ai-death-game/internal/orchestrator"
	"github.com/yami-inc/ai-death-game/internal/session"
	"github.com/yami-inc/ai-death-game/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	// Load game configuration file (required). Path may be provided via
	// DEATHGAME_CONFIG env var or defaults to ./deathgame_config.json in
	// the current working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./deathgame_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Fatal("Missing or invalid game configuration", err, logging.Fields{
			"config_path": configPath,
			"hint":        "create a deathgame_config.json with a 'character_list' array (name,tone,profile,stats{survival_instinct,cooperativeness,cunning}) and optional keys: server.address, game.*, models.*, database.path",
		})
	}

	db, err := storage.OpenAndMigrate(cfg.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	driverCfg := orchestrator.Config{
		TurnsPerRound:    cfg.TurnsPerRound,
		EliminationDelay: time.Duration(cfg.EliminationMS) * time.Millisecond,
		GMVoteDelay:      time.Duration(cfg.GMVoteMS) * time.Millisecond,
	}
	sessions := session.NewManager(genaiclient.New(), cfg.PrimaryModel, cfg.FallbackModel, repo, driverCfg)
	handler := api.NewGameHandler(sessions, repo, cfg.Characters, cfg.ParticipantCount)

	// Background sweeper: expire sessions idle past the configured TTL so
	// abandoned games do not accumulate.
	ttl := time.Duration(cfg.SessionTTLMin) * time.Minute
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessions.SweepIdle(ttl)
		}
	}()

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET("/version", api.Version)
		apiRoutes.GET(constants.RouteResults, handler.ListResults)
		apiRoutes.POST(constants.RouteGames, handler.CreateGame)
		apiRoutes.GET(constants.RouteGameByID, handler.GetGame)
		apiRoutes.POST(constants.RouteGameAdvance, handler.Advance)
		apiRoutes.POST(constants.RouteGameTypingComplete, handler.TypingComplete)
		apiRoutes.POST(constants.RouteGameVote, handler.SubmitVote)
		apiRoutes.POST(constants.RouteGameIntervention, handler.Intervention)
		apiRoutes.POST(constants.RouteGameTimer, handler.TimerElapsed)
		apiRoutes.DELETE(constants.RouteGameByID, handler.EndGame)
	}

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
