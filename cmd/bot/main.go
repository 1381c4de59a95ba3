package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robalyx/vigil/internal/bot"
	"github.com/robalyx/vigil/internal/setup"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "vigil",
		Usage: "Chat moderation assistant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "directory to search for config.toml first",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runBot(ctx, cmd.String("config"))
		},
	}

	return app.Run(context.Background(), os.Args)
}

func runBot(ctx context.Context, configDir string) error {
	// Initialize application with required dependencies
	app, err := setup.InitializeApp(configDir)
	if err != nil {
		return err
	}
	defer app.Cleanup()

	// Create bot instance
	moderationBot, err := bot.New(
		app.Config.Bot.Token,
		app.Config.Bot.GroupNumber,
		app.Scoring,
		app.Config.Scoring.ThresholdTable(),
		app.History,
		app.Logger,
	)
	if err != nil {
		return err
	}

	// Start the bot and connect to the gateway
	if err := moderationBot.Start(ctx); err != nil {
		return err
	}

	app.Logger.Info("Bot has been started, waiting for interrupt signal to shut down")

	// Wait for interrupt signal to gracefully shutdown the bot.
	// This ensures pending events are processed before closing.
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	app.Logger.Info("Shutting down", zap.String("reason", "interrupt"))
	moderationBot.Close(ctx)

	return nil
}
