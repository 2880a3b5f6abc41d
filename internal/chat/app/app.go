// Package app wires configuration, storage and services into the runnable
// application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/elxora/elxora/internal/chat/cli"
	"github.com/elxora/elxora/internal/chat/mailer"
	"github.com/elxora/elxora/internal/chat/service"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/internal/chat/store/drivers/sqlite"
	"github.com/elxora/elxora/pkg/cryptox"
	"github.com/elxora/elxora/pkg/genai"
	"github.com/elxora/elxora/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	// systemInstruction is sent with every completion request. It mirrors the
	// assistant persona the product ships with.
	systemInstruction = "You are a highly skilled, friendly senior developer who masters " +
		"Luau (Roblox), Python, JavaScript/TypeScript, HTML, CSS. " +
		"You love using emojis 😄🚀 to make answers more engaging and fun when it feels natural. " +
		"Always write clean, modern, well-commented code."
)

// Application encapsulates the chat client with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	accountService  *service.AccountService
	signupService   *service.SignupService
	sessionService  *service.SessionService
	chatService     *service.ChatService
	sendService     *service.SendService
	settingsService *service.SettingsService
	housekeeping    *service.HousekeepingService

	ui *cli.CLI
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "elxora",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := os.MkdirAll(cfg.ProfileDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create profile dir: %w", err)
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.ui = &cli.CLI{
		In:       os.Stdin,
		Out:      os.Stdout,
		Accounts: app.accountService,
		Signup:   app.signupService,
		Sessions: app.sessionService,
		Chats:    app.chatService,
		Send:     app.sendService,
		Settings: app.settingsService,
	}

	return app, nil
}

// Run starts housekeeping and blocks in the interactive session until the
// user quits or ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	app.housekeeping.Start()
	defer app.Shutdown()

	app.logger.Info("elxora starting",
		"version", BuildVersion,
		"database", app.cfg.DatabaseFile,
	)

	ctx = slogx.WithContext(ctx, app.logger)
	return app.ui.Run(ctx)
}

// Shutdown stops background work and closes the database.
func (app *Application) Shutdown() {
	app.housekeeping.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
	}
	app.logger.Info("elxora stopped")
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Debug("database migrations applied")
	return nil
}

func (app *Application) initServices() error {
	sessionKey, err := loadOrCreateSessionKey(app.cfg.SessionKey)
	if err != nil {
		return err
	}

	app.accountService = &service.AccountService{Store: app.db}
	app.sessionService = &service.SessionService{
		Store:      app.db,
		SigningKey: sessionKey,
	}
	app.signupService = &service.SignupService{
		Store:    app.db,
		Mailer:   app.newMailer(),
		Sessions: app.sessionService,
		Window:   app.cfg.SignupWindow,
	}
	app.chatService = &service.ChatService{Store: app.db}
	app.settingsService = &service.SettingsService{Store: app.db}
	app.sendService = &service.SendService{
		Chats:             app.chatService,
		Settings:          app.settingsService,
		Remote:            genai.NewClient(app.cfg.BaseURL, app.cfg.Model),
		SystemInstruction: systemInstruction,
		Timeout:           app.cfg.SendTimeout,
	}
	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.SignupWindow,
	)

	return nil
}

// newMailer picks the code-delivery transport: the webhook when a URL is
// configured, a stderr echo in dev when ELXORA_MAILER_ECHO is set.
func (app *Application) newMailer() service.Mailer {
	if app.cfg.MailerEcho || app.cfg.MailerURL == "" {
		if app.cfg.MailerURL == "" && !app.cfg.MailerEcho {
			app.logger.Warn("no mailer webhook configured, verification codes print to stderr")
		}
		return echoMailer{}
	}
	return mailer.NewWebhook(app.cfg.MailerURL)
}

// echoMailer prints the code to stderr instead of delivering it. Dev only.
type echoMailer struct{}

func (echoMailer) SendCode(_ context.Context, email, _, code string) error {
	fmt.Fprintf(os.Stderr, "verification code for %s: %s\n", email, code)
	return nil
}
