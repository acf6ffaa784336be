package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/florafauna/internal/auth"
	"github.com/pavelanni/florafauna/internal/handler"
	appI18n "github.com/pavelanni/florafauna/internal/i18n"
	"github.com/pavelanni/florafauna/internal/llm"
	"github.com/pavelanni/florafauna/internal/llm/prompts"
	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "florafauna",
		Short: "Species catalog and quiz API",
	}

	serve := serveCmd()
	root.AddCommand(serve, seedCmd(), tokenCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `florafauna --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addDBFlags(f *pflag.FlagSet) {
	f.String("db-driver", "sqlite", "Database driver (sqlite, postgres)")
	f.String("db", "florafauna.db", "Reader database DSN")
	f.String("db-admin", "", "Privileged database DSN (empty disables write endpoints)")
	f.Bool("db-migrate", true, "Create missing tables at startup")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	addDBFlags(f)
	f.String("jwt-secret", "", "HMAC secret for identity tokens (required)")
	f.String("jwt-issuer", auth.DefaultIssuer, "Expected identity token issuer")
	f.String("admin-emails", "", "Comma-separated verified emails granted admin access")
	f.Bool("local-auth", false, "Enable POST /api/auth/token for local users")
	f.Duration("token-ttl", 24*time.Hour, "Lifetime of locally issued tokens")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.StringP("lang", "l", "id", "Default language (en, id)")
	f.Int("quiz-pool", store.DefaultQuizPool, "Species rows loaded per quiz")
	f.String("llm-url", llm.DefaultBaseURL, "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for LLM explanations (empty disables them)")
	f.String("llm-model", llm.DefaultModel, "LLM model name")
	addLogFlags(f)
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import species and create local accounts",
		RunE:  runSeed,
	}
	f := cmd.Flags()
	addDBFlags(f)
	f.StringSlice("file", nil, "Species JSON files to import (repeatable)")
	f.String("admin-email", "", "Create a local admin account with this email")
	f.String("admin-password", "", "Password for --admin-email (or set FLORAFAUNA_ADMIN_PASSWORD)")
	addLogFlags(f)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed identity token for development",
		RunE:  runToken,
	}
	f := cmd.Flags()
	f.String("sub", "", "Subject (user id) of the token (required)")
	f.String("email", "", "Email claim")
	f.Bool("email-verified", true, "Mark the email as verified")
	f.String("role", "", "Role stored in public metadata (e.g. admin)")
	f.Duration("ttl", time.Hour, "Token lifetime")
	f.String("jwt-secret", "", "HMAC secret for identity tokens (required)")
	f.String("jwt-issuer", auth.DefaultIssuer, "Token issuer")
	addLogFlags(f)

	_ = cmd.MarkFlagRequired("sub")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("FLORAFAUNA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("florafauna")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/florafauna")
	v.AddConfigPath("/etc/florafauna")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStores opens the reader store and, when a privileged DSN is set, the
// writer store. The writer is nil otherwise.
func openStores(ctx context.Context, v *viper.Viper) (reader, writer *store.Store, err error) {
	driver, err := store.ParseDriver(v.GetString("db-driver"))
	if err != nil {
		return nil, nil, err
	}
	migrate := v.GetBool("db-migrate")

	reader, err = store.Open(ctx, driver, v.GetString("db"), migrate)
	if err != nil {
		return nil, nil, fmt.Errorf("open reader database: %w", err)
	}
	dsn := v.GetString("db-admin")
	if dsn == "" {
		slog.Warn("no privileged database configured, write endpoints are disabled")
		return reader, nil, nil
	}
	writer, err = store.Open(ctx, driver, dsn, migrate)
	if err != nil {
		reader.Close()
		return nil, nil, fmt.Errorf("open privileged database: %w", err)
	}
	return reader, writer, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reader, writer, err := openStores(ctx, v)
	if err != nil {
		return err
	}
	defer reader.Close()
	if writer != nil {
		defer writer.Close()
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	if err := prompts.Load(nil); err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	verifier, err := auth.NewVerifier(v.GetString("jwt-secret"), v.GetString("jwt-issuer"))
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}

	llmClient := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	if !llmClient.Configured() {
		slog.Warn("no LLM key configured, answer explanations are disabled")
	}

	cfg := model.AppConfig{
		Lang:         lang,
		LocalAuth:    v.GetBool("local-auth"),
		TokenTTL:     v.GetDuration("token-ttl"),
		QuizPoolSize: v.GetInt("quiz-pool"),
	}
	admins := auth.ParseAllowList(v.GetString("admin-emails"))

	h, err := handler.New(handler.Deps{
		Reader:   reader,
		Writer:   writer,
		Access:   auth.NewAccess(admins),
		Verifier: verifier,
		LLM:      llmClient,
	}, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("cors-origins"),
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"driver", v.GetString("db-driver"),
		"writes_enabled", writer != nil,
		"local_auth", cfg.LocalAuth,
		"admins", len(admins),
		"lang", lang,
		"llm_model", v.GetString("llm-model"),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func runToken(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	verifier, err := auth.NewVerifier(v.GetString("jwt-secret"), v.GetString("jwt-issuer"))
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}
	id := model.Identity{
		UserID:        v.GetString("sub"),
		Email:         v.GetString("email"),
		EmailVerified: v.GetBool("email-verified"),
	}
	if role := v.GetString("role"); role != "" {
		id.Metadata = model.Metadata{"role": role}
	}
	token, err := verifier.Issue(id, v.GetDuration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
