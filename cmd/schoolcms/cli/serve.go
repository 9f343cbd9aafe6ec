package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schoolcms/schoolcms/internal/config"
	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/server"
	"github.com/schoolcms/schoolcms/internal/service"
	"github.com/schoolcms/schoolcms/internal/store"
	"github.com/schoolcms/schoolcms/internal/upload"
)

const banner = `
          _                 _
 ___  ___| |__   ___   ___ | | ___ _ __ ___  ___
/ __|/ __| '_ \ / _ \ / _ \| |/ __| '_ ` + "`" + ` _ \/ __|
\__ \ (__| | | | (_) | (_) | | (__| | | | | \__ \
|___/\___|_| |_|\___/ \___/|_|\___|_| |_| |_|___/
`

func newServeCmd() *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the schoolcms API server",
		Long:  "Start the HTTP server that exposes the public content API, the admin API and uploaded files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntP("port", "p", 3000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().String("static-dir", "", "Serve the public frontend from this directory")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("server.static_dir", cmd.Flags().Lookup("static-dir"))

	return cmd
}

func runServe(dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(dev)

	fmt.Print(banner)
	fmt.Println()

	// 1. Record store
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("store initialized", "driver", st.Driver())

	// 2. Upload storage
	uploads, err := upload.NewStorage(cfg.Upload.Dir)
	if err != nil {
		return fmt.Errorf("init upload storage: %w", err)
	}
	logger.Info("upload storage initialized", "dir", uploads.Dir())

	// 3. Token signing
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return fmt.Errorf("generate jwt secret: %w", err)
		}
		logger.Warn("auth.jwt_secret is not set; using a random secret, tokens will not survive a restart")
	}
	tokens := service.NewTokenService(secret)

	// 4. First run
	if err := ensureSeedAdmin(cmdCtx(), st, cfg.SeedAdmin, logger); err != nil {
		return err
	}

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "path", pidFilePath(), "error", err)
	}
	defer removePID()

	// 5. Build and start HTTP server
	srv := server.New(serverConfig(cfg), st, uploads, tokens, logger)

	host := cfg.Server.Host
	fmt.Printf("→ schoolcms %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", host, cfg.Server.Port)
	if cfg.Server.StaticDir != "" {
		fmt.Printf("→ Frontend:   %s\n", cfg.Server.StaticDir)
	}
	fmt.Println()

	return srv.ListenAndServe()
}

// serverConfig maps the loaded configuration onto the HTTP server's.
func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		MaxBodySize:     cfg.Server.MaxBodySize,
		StaticDir:       cfg.Server.StaticDir,
		LoginRateLimit:  cfg.Auth.LoginRateLimit,
		MaxImageSize:    cfg.Upload.MaxImageSize,
		MaxFileSize:     cfg.Upload.MaxFileSize,
		EnableMetrics:   cfg.Metrics.Enabled,
		Version:         versionString(),
	}
}

// ensureSeedAdmin creates the configured administrator when the admins
// table is empty. Without a seed password it only warns.
func ensureSeedAdmin(ctx context.Context, st *store.Store, seed config.SeedAdminConfig, logger *slog.Logger) error {
	n, err := st.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}
	if seed.Password == "" {
		logger.Warn("no admin account found - set seed_admin.password or run: schoolcms admin create")
		return nil
	}

	hash, err := service.HashPassword(seed.Password)
	if err != nil {
		return fmt.Errorf("hash seed admin password: %w", err)
	}
	admin := &model.Admin{
		Username:     seed.Username,
		PasswordHash: hash,
		Name:         seed.Name,
		Email:        seed.Email,
	}
	if err := st.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create seed admin: %w", err)
	}
	logger.Info("created seed admin", "username", admin.Username, "id", admin.ID)
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
