package cli

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"go-glow-ai/internal/config"
	"go-glow-ai/internal/logger"
	"go-glow-ai/internal/service"
	"go-glow-ai/internal/telegram"
	"go-glow-ai/pkg/models"
)

func newCheckCommand() *cobra.Command {
	var userID, channelID, initData string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a Telegram user is subscribed to the channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" && initData == "" {
				return errors.New("one of --user or --init-data is required")
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			client := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, &http.Client{Timeout: cfg.RequestTimeout})
			svc := service.NewSubscriptionService(client, cfg.BotToken, nil, logger.Logger, service.SubscriptionOptions{
				DefaultChannelID: cfg.ChannelID,
				ChannelLink:      cfg.ChannelLink,
				InitDataMaxAge:   cfg.InitDataMaxAge,
			})

			res, err := svc.Check(cmd.Context(), service.CheckRequest{
				UserID:    userID,
				ChannelID: channelID,
				InitData:  initData,
				RequestID: "glowctl",
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), models.SubscriptionResponse{
				Subscribed:    res.Subscribed,
				Error:         res.Error,
				TelegramError: res.TelegramError,
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Telegram user id")
	cmd.Flags().StringVar(&channelID, "channel", "", "channel id or @username (default TELEGRAM_CHANNEL_ID)")
	cmd.Flags().StringVar(&initData, "init-data", "", "raw WebApp initData; its user wins over --user when valid")
	return cmd
}
