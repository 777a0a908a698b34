package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/rotation-control/internal/config"
	"github.com/jakechorley/rotation-control/pkg/clients/gmailclient"
	"github.com/jakechorley/rotation-control/pkg/clients/sheetsclient"
	"github.com/jakechorley/rotation-control/pkg/core/services"
	"github.com/jakechorley/rotation-control/pkg/db"
	"github.com/jakechorley/rotation-control/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Settings services.Settings
	Database db.Database
	Logger   *zap.Logger
	Ctx      context.Context
	Out      io.Writer
	Now      func() time.Time

	// Auth is nil when no Google integration is configured
	Auth *utils.Authenticator

	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
}

func (a *AppContext) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *AppContext) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// SheetsClient authenticates on first use so commands that never touch Google never prompt
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if a.sheetsClient != nil {
		return a.sheetsClient, nil
	}
	if a.Cfg.Sheets == nil || a.Auth == nil {
		return nil, fmt.Errorf("sheets are not configured")
	}

	httpClient, err := a.Auth.HTTPClient(a.Ctx, a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Google: %w", err)
	}

	a.Logger.Info("Initializing sheets client")
	a.sheetsClient, err = sheetsclient.NewClient(a.Ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return a.sheetsClient, nil
}

// GmailClient authenticates on first use
func (a *AppContext) GmailClient() (*gmailclient.Client, error) {
	if a.gmailClient != nil {
		return a.gmailClient, nil
	}
	if a.Cfg.Digest == nil || a.Auth == nil {
		return nil, fmt.Errorf("digest is not configured")
	}

	httpClient, err := a.Auth.HTTPClient(a.Ctx, a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Google: %w", err)
	}

	a.Logger.Info("Initializing gmail client")
	a.gmailClient, err = gmailclient.NewClient(a.Ctx, httpClient, a.Cfg.GmailSender)
	if err != nil {
		return nil, err
	}
	return a.gmailClient, nil
}
