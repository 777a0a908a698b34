package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jakechorley/rotation-control/pkg/core/services"
)

// lazyMailer defers Gmail authentication until an email is actually sent
type lazyMailer struct {
	app *AppContext
}

func (m lazyMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	client, err := m.app.GmailClient()
	if err != nil {
		return err
	}
	return client.SendEmail(ctx, to, subject, body)
}

// SendAlertDigestCmd creates the sendAlertDigest command
func SendAlertDigestCmd(app *AppContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sendAlertDigest",
		Short: "Email the current alerts to the digest recipients",
		Long: `Email the current alerts to the configured digest recipients.

The digest only goes out on days matching the configured rrule, and only when
there is at least one alert. Use --force to send regardless of the schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.SendAlertDigest(app.Ctx, app.Database, lazyMailer{app: app}, app.Cfg, app.Settings, app.Logger, app.now(), force)
			if err != nil {
				return err
			}

			w := app.out()
			if result.SkippedReason != "" {
				fmt.Fprintf(w, "Digest not sent: %s\n", result.SkippedReason)
				return nil
			}

			fmt.Fprintf(w, "\n%s Sent digest of %d alerts to %d recipients\n", color.GreenString("✓"), result.Alerts, len(result.Sent))
			for to, sendErr := range result.Failed {
				fmt.Fprintf(w, "  %s %s: %v\n", color.RedString("✗"), to, sendErr)
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Send even if today is not a digest day")

	return cmd
}
