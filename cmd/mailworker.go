/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/mail"
	"github.com/inkpress/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// mailWorkerCmd represents the mail-worker command.
var mailWorkerCmd = &cobra.Command{
	Use:   "mail-worker",
	Short: "Consumes queued email jobs and delivers them over SMTP",
	Long: `Consumes email jobs published by the API server and delivers them
over SMTP. Only needed when MAIL_PROVIDER=queue. Usage:

	inkpress mail-worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		backend, err := mail.NewQueueBackend(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init mail queue failed: %w", err)
		}
		queue := mq.New(backend)
		defer func() {
			_ = queue.Close()
		}()

		sender := mail.NewSMTPMailer(cfg.SMTP)
		return mail.RunWorker(cmd.Context(), queue, cfg.Mail.Channel, sender)
	},
}

func init() {
	rootCmd.AddCommand(mailWorkerCmd)
}
