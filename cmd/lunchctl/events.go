package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/lunchpick/internal/adapters/nats"
	"github.com/samirrijal/lunchpick/internal/core/domain"
)

var (
	eventsURL     string
	eventsSubject string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print recommendation events published by a running server",
	Long: `Subscribes to recommendation events and prints one JSON object per line
until interrupted.

$ lunchctl events --subject recommend.failed`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sub, err := natsadapter.NewSubscriber(eventsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(cmd.OutOrStdout())
		err = sub.SubscribeRecommendations(ctx, eventsSubject, func(_ context.Context, e *domain.RecommendationEvent) error {
			return enc.Encode(e)
		})
		if err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsURL, "url", "nats://localhost:4222", "NATS server URL")
	eventsCmd.Flags().StringVar(&eventsSubject, "subject", natsadapter.SubjectAll, "subject to follow")
	rootCmd.AddCommand(eventsCmd)
}
