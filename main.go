package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pearl_backend/auth"
	"pearl_backend/config"
	"pearl_backend/handlers"
	"pearl_backend/media"
	"pearl_backend/store"
)

const shutdownTimeout = 15 * time.Second

var (
	configPath string
	verbose    bool
	useMemory  bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pearl",
	Short: "Apop's Pearl recipe gallery backend",
	Long: `pearl serves the recipe gallery API: browsing and search, likes and
comments keyed by browser fingerprint, and the admin area for editing
recipes and uploading photos.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed <recipes.yaml>",
	Short: "Load recipes from a YAML file into Firestore",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for auth.users[].password_hash",
	Long:  "Prints a bcrypt hash of the argument, or of the first line of stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHashPassword,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pearl.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	serveCmd.Flags().BoolVar(&useMemory, "memory", false, "Keep recipes in memory instead of Firestore")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(useMemory); err != nil {
		return err
	}
	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}
	proxies, err := cfg.Proxies()
	if err != nil {
		return err
	}

	var st store.Store
	if useMemory {
		logger.Warn("Using in-memory store; recipes are lost on restart")
		st = store.NewMemory()
	} else {
		fs, err := store.OpenFirestore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return err
		}
		defer fs.Close()
		st = fs
	}

	rc := handlers.RouteConfig{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		WriteRate:   cfg.HTTP.WriteRate,
		WriteBurst:  cfg.HTTP.WriteBurst,
		Proxies:     proxies,
	}
	var objects media.ObjectStore
	if cfg.Storage.Bucket != "" {
		gcs, err := media.OpenGCS(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, cfg.Firestore.CredentialsFile)
		if err != nil {
			return err
		}
		defer gcs.Close()
		objects = gcs
	} else {
		disk, err := media.NewDisk(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			return err
		}
		objects = disk
		rc.Uploads = disk.Handler()
	}

	h := handlers.New(handlers.Options{
		Store:         st,
		Auth:          auth.NewLocal(cfg.Auth.Users, ttl),
		Uploader:      media.NewUploader(objects, cfg.Storage.MaxWidth),
		Logger:        logger,
		AdminUID:      cfg.Auth.AdminUID,
		SessionTTL:    ttl,
		SecureCookies: cfg.HTTP.SecureCookies,
		MaxUploadMB:   cfg.Storage.MaxUploadMB,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(rc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", cfg.Addr), zap.Bool("memory", useMemory))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
	h.Wait()
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Firestore.ProjectID == "" {
		return errors.New("config: firestore.project_id is required")
	}

	forms, err := store.LoadSeedFile(args[0])
	if err != nil {
		return err
	}

	fs, err := store.OpenFirestore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
	if err != nil {
		return err
	}
	defer fs.Close()

	created, err := store.Seed(ctx, fs, forms)
	for _, r := range created {
		logger.Info("Recipe seeded", zap.String("recipe_id", r.ID), zap.String("name", r.Name))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d recipes\n", len(created))
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
