// Package main is the entry point for the hangout game bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/ai"
	"hangout-game-bot/internal/comet"
	"hangout-game-bot/internal/config"
	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/game/dice"
	"hangout-game-bot/internal/game/poker"
	"hangout-game-bot/internal/game/row"
	"hangout-game-bot/internal/game/slots"
	"hangout-game-bot/internal/handler"
	"hangout-game-bot/internal/pipeline"
	"hangout-game-bot/internal/store"
	"hangout-game-bot/internal/weather"
	"hangout-game-bot/internal/wiki"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load persisted state
	st := store.New(cfg.State.File)
	if err := st.Load(); err != nil {
		log.Fatal().Err(err).Str("file", cfg.State.File).Msg("Failed to load state")
	}

	// Connect to the chat backend
	client := comet.NewClient(comet.Config{
		GatewayBaseURL: cfg.Gateway.BaseURL,
		CometBaseURL:   cfg.Comet.CometBaseURL(),
		UserToken:      cfg.Bot.UserToken,
		GroupID:        cfg.Bot.HangoutID,
		MaxMsgChars:    cfg.Bot.MaxMsgChars,
	})
	if err := client.FetchAuthToken(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch chat auth token")
	}
	selfUID, err := client.Me(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve bot identity")
	}
	log.Info().Str("uid", selfUID).Msg("Authenticated with chat backend")

	if client.EnsureJoin(ctx) {
		log.Info().Str("group", cfg.Bot.HangoutID).Msg("Hangout membership confirmed")
	}

	// Initialize game registry and register games
	gameRegistry := game.NewRegistry()

	pokerTable := poker.NewTable(st, client, poker.Config{
		Title:         cfg.Games.Poker.Title,
		BettingWindow: cfg.Games.Poker.BettingWindow,
		DealerDelay:   cfg.Games.Poker.DealerDelay,
	})
	if err := gameRegistry.Register(pokerTable); err != nil {
		log.Fatal().Err(err).Msg("Failed to register poker")
	}

	slotMachine := slots.New(st, client, slots.Config{
		Title:      cfg.Games.Slots.Title,
		DefaultBet: cfg.Games.Slots.DefaultBet,
	})
	if err := gameRegistry.Register(slotMachine); err != nil {
		log.Fatal().Err(err).Msg("Failed to register slots")
	}

	if err := gameRegistry.Register(dice.New(client)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register dice")
	}
	if err := gameRegistry.Register(row.New(st, client)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register row chain")
	}

	log.Info().
		Int("game_count", gameRegistry.Count()).
		Strs("commands", gameRegistry.Commands()).
		Msg("Games registered")

	// Wire the command surface
	aiClient := ai.New(st, client, ai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxMsgChars: cfg.Bot.MaxMsgChars,
	})
	wikiSvc := wiki.New(aiClient, cfg.Bot.MaxMsgChars)
	weatherSvc := weather.New(cfg.Weather.APIKey)

	builtins := handler.NewBuiltins(st, client, aiClient, wikiSvc, weatherSvc)
	router := handler.NewRouter(cfg.Bot.CmdPrefix, gameRegistry, builtins, cfg)
	greeter := handler.NewGreeter(st, client, cfg.Greet, client.SelfUID)

	// Start the poll loop
	driver := pipeline.NewDriver(pipeline.DriverConfig{
		Transport:  client,
		Store:      st,
		Dispatcher: router,
		Greeter:    greeter,
		Callout:    aiClient,
		CmdPrefix:  cfg.Bot.CmdPrefix,
		Interval:   cfg.Poll.Interval,
		Limit:      cfg.Poll.Limit,
	})
	driver.Prime(ctx)
	greeter.Start()

	go func() {
		log.Info().Msg("Bot is starting...")
		driver.Run(ctx)
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	cancel()
	pokerTable.StopTimers()
	st.Save()
	log.Info().Msg("Bot stopped gracefully")
}
