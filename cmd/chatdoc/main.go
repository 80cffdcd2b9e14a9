package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatdoc/internal/chunker"
	"chatdoc/internal/config"
	"chatdoc/internal/handler"
	"chatdoc/internal/logger"
	"chatdoc/internal/service"
	"chatdoc/internal/tui"
)

type rootOptions struct {
	configPath   string
	offline      bool
	strategy     string
	chunkSize    int
	chunkOverlap int
}

func main() {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "chatdoc",
		Short:         "Chat with your documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/chatdoc/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.offline, "offline", false, "use the local hashing embedder instead of the configured one")

	rootCmd.AddCommand(
		serveCmd(&opts),
		withChunkFlags(tuiCmd(&opts), &opts),
		withChunkFlags(ingestCmd(&opts), &opts),
		withChunkFlags(askCmd(&opts), &opts),
		resetCmd(&opts),
		modelsCmd(&opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withChunkFlags(cmd *cobra.Command, opts *rootOptions) *cobra.Command {
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "chunking strategy: recursive, token or markdown")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "chunk size in characters")
	cmd.Flags().IntVar(&opts.chunkOverlap, "chunk-overlap", -1, "chunk overlap in characters")
	return cmd
}

func loadConfig(opts *rootOptions) (*config.AppConfig, error) {
	var (
		cfg  *config.AppConfig
		path string
		err  error
	)
	if opts.configPath == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		path = opts.configPath
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if opts.offline {
		cfg.Embedder.Type = "hashing"
	}
	if opts.strategy != "" {
		cfg.Chunker.Strategy = chunker.Strategy(opts.strategy)
	}
	if opts.chunkSize > 0 {
		cfg.Chunker.ChunkSize = opts.chunkSize
	}
	if opts.chunkOverlap >= 0 {
		cfg.Chunker.ChunkOverlap = opts.chunkOverlap
	}
	return cfg, nil
}

// setup loads config, initializes logging and assembles the app.
func setup(opts *rootOptions, tuiMode bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Log
	if tuiMode {
		logCfg.Console = false
		logCfg.File = tuiLogFile(cfg)
	}
	if _, err := logger.Init(logCfg); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return buildApp(cfg)
}

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(a)
		},
	}
}

func runServer(a *app) error {
	cfg := a.cfg
	gin.SetMode(cfg.Server.Mode)
	engine := handler.NewEngine(handler.RouterDeps{
		Documents:      handler.NewDocumentHandler(a.service),
		Chat:           handler.NewChatHandler(a.service),
		Data:           handler.NewDataHandler(a.session),
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})
	timeout := time.Duration(cfg.Server.TimeoutSecs) * time.Second
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.L().Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func tuiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui FILE",
		Short: "Upload a file and chat about it in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			res, err := ingest(ctx, a, args[0])
			if err != nil {
				return err
			}
			header := fmt.Sprintf("%s: %d chunks, avg %d chars. %s", res.Source, res.Stats.Count, res.Stats.AverageSize, res.Summary)
			m := tui.New(ctx, a.service, strings.TrimSpace(header))
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func ingestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE",
		Short: "Extract, chunk and index a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := ingest(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:  %s (%s)\n", res.Source, res.Kind)
			fmt.Fprintf(out, "chunks:  %d, average %d chars\n", res.Stats.Count, res.Stats.AverageSize)
			fmt.Fprintf(out, "index:   %s\n", a.manager.Dir())
			if res.Summary != "" {
				fmt.Fprintf(out, "summary: %s\n", res.Summary)
			}
			if len(res.TopTerms) > 0 {
				terms := make([]string, len(res.TopTerms))
				for i, t := range res.TopTerms {
					terms[i] = fmt.Sprintf("%s(%d)", t.Term, t.Count)
				}
				fmt.Fprintf(out, "terms:   %s\n", strings.Join(terms, " "))
			}
			return nil
		},
	}
}

func askCmd(opts *rootOptions) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "ask FILE QUESTION",
		Short: "Index a file and answer one question about it",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if _, err := ingest(ctx, a, args[0]); err != nil {
				return err
			}
			if model != "" {
				a.service.SelectModel(model)
			}
			answer, err := a.service.Ask(ctx, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model used to answer")
	return cmd
}

func resetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.service.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", a.manager.Dir())
			return nil
		},
	}
}

func modelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the answer backend offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()
			names, err := a.service.Models(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}
			selected := a.service.SelectedModel()
			for _, n := range names {
				mark := " "
				if n == selected {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, n)
			}
			return nil
		},
	}
}

func ingest(ctx context.Context, a *app, path string) (*service.UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return a.service.Upload(ctx, data, filepath.Base(path), nil)
}
