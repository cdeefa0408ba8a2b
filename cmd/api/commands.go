package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eduserv/ledger/internal/bootstrap"
	"github.com/eduserv/ledger/internal/config"
	"github.com/eduserv/ledger/internal/seed"
	"github.com/eduserv/ledger/internal/server"
)

// --- Global Command Variables ---
var (
	configPath    string
	tokenOperator string
	tokenRole     string

	cfg *config.Config
	lgr zerolog.Logger

	rootCmd = &cobra.Command{
		Use:           "ledger",
		Short:         "Tuition, fee and expense ledger for a training institute",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, lgr, err = bootstrap.LoadConfigAndSetupLogger(configPath)
			return err
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations to Postgres",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the default programs and fees on an empty catalog",
		RunE:  runSeed,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an operator",
		RunE:  runToken,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to the YAML config file")

	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "operator id stored as recorded_by")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "bursar", "session role (admin, bursar, viewer)")
	_ = tokenCmd.MarkFlagRequired("operator")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, tokenCmd, watchCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.NewServer(cmd.Context(), cfg, lgr)
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context())
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate needs the postgres driver, got %q", cfg.Database.Driver)
	}
	pool, err := bootstrap.ConnectDatabase(cfg, lgr)
	if err != nil {
		return err
	}
	defer pool.Close()
	return bootstrap.RunMigrations(cmd.Context(), cfg, pool, lgr)
}

func runSeed(cmd *cobra.Command, args []string) error {
	repos, cleanup, err := bootstrap.SetupStorage(cmd.Context(), cfg, lgr)
	if err != nil {
		return err
	}
	defer cleanup()
	return seed.CreateDefaultData(cmd.Context(), repos, lgr)
}

func runToken(cmd *cobra.Command, args []string) error {
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is not set")
	}
	token, expires, err := bootstrap.NewJWTService(cfg).GenerateToken(tokenOperator, tokenRole)
	if err != nil {
		return err
	}
	lgr.Info().Str("operator", tokenOperator).Str("role", tokenRole).Time("expiresAt", expires).Msg("Token issued")
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
