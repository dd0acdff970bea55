// Package main is the mentorlink CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/cli"
	"github.com/hyperjump/mentorlink/internal/config"
	"github.com/hyperjump/mentorlink/internal/embedding"
	"github.com/hyperjump/mentorlink/internal/engine"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/server"
	"github.com/hyperjump/mentorlink/internal/storage"
	"github.com/hyperjump/mentorlink/internal/vector"
	"github.com/hyperjump/mentorlink/internal/watcher"
	"github.com/hyperjump/mentorlink/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mentorlink/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml in the
// current directory takes precedence so "mentorlink server" works from a project checkout.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "users":
		runUsers()
	case "version", "--version", "-v":
		fmt.Printf("mentorlink version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (gate decisions, routing details, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if cfg.Engine.AliasFile != "" && cfg.Engine.WatchAliasFileOrDefault() {
		companies := components.Engine.Companies()
		aliasWatcher, err := watcher.NewFileWatcher(
			[]string{cfg.Engine.AliasFile},
			func(path string) {
				logger.Info("alias file changed; refreshing company index", zap.String("path", path))
				companies.Invalidate()
			},
			watcher.WithLogger(logger),
		)
		if err != nil {
			logger.Fatal("Failed to create alias watcher", zap.Error(err))
		}
		if err := aliasWatcher.Start(bgCtx); err != nil {
			logger.Warn("alias file watch disabled", zap.String("path", cfg.Engine.AliasFile), zap.Error(err))
		} else {
			defer aliasWatcher.Stop()
		}
	}

	vectorizerDone := make(chan struct{})
	go func() {
		defer close(vectorizerDone)
		components.Engine.RunVectorizer(bgCtx, cfg.Engine.VectorizeInterval, cfg.Engine.VectorizeBatch)
	}()

	srv := server.NewServer(components.Engine, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	bgCancel()
	<-vectorizerDone
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
}

// askArgsReorder moves flags that appear after the question text to the front so that
// flag.Parse sees them; the flag package stops at the first non-flag argument.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func buildQuestionText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: mentorlink ask --asker <id> [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces, at least 10 characters.\n\n")
	fs.PrintDefaults()
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	asker := fs.String("asker", "", "asking student's user ID (required)")
	parent := fs.String("parent", "", "question ID to follow up on")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgsReorder(os.Args[2:]))

	req := models.QuestionRequest{
		AskerID:          *asker,
		Text:             buildQuestionText(fs.Args()),
		ParentQuestionID: *parent,
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid question: %v\n\n", err)
		printAskUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := cli.NewClient(*serverURL, nil).Ask(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteOutcome(os.Stdout, out, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var report *cli.StatusReport
	if *serverURL != "" {
		report, err = cli.NewClient(*serverURL, nil).Status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		report, err = directStatus(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteStatus(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// directStatus builds a status report from the database without a running server.
func directStatus(configPath string) (*cli.StatusReport, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	st, err := store.Stats(context.Background())
	if err != nil {
		return nil, err
	}
	report := &cli.StatusReport{
		Engine: &engine.Status{Stats: st},
		Config: &cli.StatusConfig{
			EmbeddingModel:      cfg.Embedding.Model,
			EmbeddingDimensions: cfg.Embedding.Dimensions,
			DatabasePath:        cfg.Storage.DatabasePath,
			VectorIndexPath:     cfg.Storage.VectorIndexPath,
			MaxAssignAttempts:   cfg.Engine.MaxAssignAttempts,
		},
	}
	if usage, err := storage.MeasureDiskUsage(cfg.Storage.DatabasePath, cfg.Storage.VectorIndexPath); err == nil {
		report.DiskUsage = usage
	}
	return report, nil
}

func runUsers() {
	if len(os.Args) < 4 || os.Args[2] != "import" {
		fmt.Println("Usage: mentorlink users import [--config path] <users.yaml>")
		os.Exit(1)
	}
	fs := flag.NewFlagSet("users import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(askArgsReorder(os.Args[3:]))
	if fs.NArg() != 1 {
		fmt.Println("Usage: mentorlink users import [--config path] <users.yaml>")
		os.Exit(1)
	}

	users, err := cli.LoadUsersFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	n, err := importUsers(context.Background(), store, users)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed after %d users: %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d users\n", n)
}

type userWriter interface {
	UpsertUser(ctx context.Context, u *models.MentorProfile) error
}

func importUsers(ctx context.Context, store userWriter, users []*models.MentorProfile) (int, error) {
	for i, u := range users {
		if err := store.UpsertUser(ctx, u); err != nil {
			return i, fmt.Errorf("user %s: %w", u.ID, err)
		}
	}
	return len(users), nil
}

// Components holds the long-lived services shared by the server.
type Components struct {
	Storage     *storage.SQLiteStorage
	Embedder    embedding.Embedder
	VectorIndex *vector.MemoryIndex
	Engine      *engine.Engine
}

// Close releases components in reverse dependency order.
func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	ollama, err := embedding.NewOllamaEmbedder(cfg.Embedding, nil, embedding.WithLogger(logger))
	if err != nil {
		// Questions still route live; cards are vectorized once an embedder is configured.
		logger.Warn("embedding disabled", zap.Error(err))
	} else {
		c.Embedder = ollama
	}

	idx, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	c.VectorIndex = idx
	if cfg.Storage.VectorIndexPath != "" {
		if _, statErr := os.Stat(cfg.Storage.VectorIndexPath); statErr == nil {
			if loadErr := idx.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
				logger.Warn("vector index load skipped (rebuilding from database)",
					zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
			}
		}
	}

	c.Engine = engine.New(store, c.Embedder, idx, cfg.Engine, cfg.Matching, engine.WithLogger(logger))
	n, err := c.Engine.RebuildVectorIndex(context.Background())
	if err != nil {
		c.Close()
		return nil, err
	}
	logger.Info("vector index initialized",
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Int("cards", n))
	return c, nil
}

func printUsage() {
	fmt.Println(`mentorlink - Question routing for student mentorship

Usage:
  mentorlink server [flags]                Start the HTTP server
  mentorlink ask [flags] <question>        Ask a question through a running server
  mentorlink status [flags]                Show record counts and index status
  mentorlink users import [flags] <file>   Import users and mentors from YAML or JSON
  mentorlink version                       Show version
  mentorlink help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/mentorlink/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --asker string     Asking student's user ID (required)
  --parent string    Question ID to follow up on
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Users Flags:
  --config string    Config file path

Examples:
  mentorlink server
  mentorlink users import mentors.yaml
  mentorlink ask --asker s-42 "how do I get a google internship as a tier 3 student?"
  mentorlink ask --asker s-42 --parent q-123 "should I apply off-campus too?"
  mentorlink status --output json`)
}
