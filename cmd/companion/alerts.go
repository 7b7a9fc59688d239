package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mindmate/companion-api/internal/infrastructure/mq"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Crisis alert broker tools",
}

var alertsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Consume the crisis alert channel and log each alert",
	Long: `Subscribes to the configured alert channel and logs every alert.
Useful to verify broker wiring before connecting the real notifier.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		broker, err := openBroker(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return fmt.Errorf("MQ_BACKEND is none; nothing to watch")
		}
		defer broker.Close()

		log.Info().Str("channel", cfg.MQ.AlertChannel).Msg("watching crisis alerts")
		err = broker.Subscribe(ctx, cfg.MQ.AlertChannel, func(_ context.Context, msg mq.Message) error {
			alert, err := mq.DecodeAlert(msg)
			if err != nil {
				// Ack malformed payloads; redelivery cannot fix them.
				log.Error().Err(err).Str("message_id", msg.ID).Msg("undecodable alert")
				return nil
			}
			log.Warn().
				Str("alert_id", alert.AlertID).
				Str("user_id", alert.UserID).
				Str("source", alert.Source).
				Str("contact", alert.ContactName).
				Time("triggered_at", alert.TriggeredAt).
				Msg("crisis alert received")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsWatchCmd)
}
