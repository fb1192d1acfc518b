package commands

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"timeguard/internal/bot"
	"timeguard/internal/service"
)

const jobTimeout = 5 * time.Minute

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Serve the Telegram bot with periodic reports and nightly retraining",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.RequireTelegram()
	},
	RunE: withApp(runBot),
}

func runBot(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
		Users:     a.users,
		Category:  a.categories,
		Tasks:     a.tasks,
		Training:  a.training,
		Analytics: a.analytics,
		Reminder:  a.reminder,
	}, &cfg)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local)
	sendReports := func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("send reports")
		}
	}
	reportID, err := scheduler.ScheduleInterval(cfg.ReportInterval, sendReports)
	if err != nil {
		return err
	}
	telegramBot.OnIntervalChange(func(interval time.Duration) error {
		next, err := scheduler.Reschedule(reportID, interval, sendReports)
		if err != nil {
			return err
		}
		reportID = next
		log.WithField("interval", interval).Info("report interval changed")
		return nil
	})

	if _, err := scheduler.ScheduleSpec(cfg.RetrainSchedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if _, err := a.training.RetrainAll(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("retrain sweep")
		}
	}); err != nil {
		return err
	}

	scheduler.Start()
	defer scheduler.Stop()

	log.WithFields(log.Fields{
		"report_interval":  cfg.ReportInterval,
		"retrain_schedule": cfg.RetrainSchedule,
	}).Info("timeguard bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
