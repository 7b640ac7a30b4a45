// Package main is the Specialist Aid CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/analysis"
	"github.com/salulink/specialist-aid/internal/cli"
	"github.com/salulink/specialist-aid/internal/config"
	"github.com/salulink/specialist-aid/internal/mcp"
	"github.com/salulink/specialist-aid/internal/models"
	"github.com/salulink/specialist-aid/internal/notes"
	"github.com/salulink/specialist-aid/internal/server"
	"github.com/salulink/specialist-aid/internal/storage"
	"github.com/salulink/specialist-aid/internal/watcher"
	"github.com/salulink/specialist-aid/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/specialist-aid/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence, and a missing default file yields the built-in defaults so
// that environment variables alone can configure a container. SPECIALIST_AID_* overrides
// are applied last. Returns the config and the path that was actually loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	cfg, resolved, err := loadConfigFile(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

func loadConfigFile(path string) (*config.Config, string, error) {
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "conditions":
		runConditions()
	case "baskets":
		runBaskets()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "mcp":
		runMCP()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("specialist-aid version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and a logger for one-shot commands. Unless debug is on, only
// warnings reach stderr so stdout stays clean for --output json.
func setup(configPath string) (*config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	level := "warn"
	if cfg.Debug {
		level = "debug"
	}
	logger, err := utils.NewLoggerAt(cfg.Debug, level)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	return cfg, logger
}

// directComponents initializes services and publishes the corpus for commands that run
// without a server.
func directComponents(cfg *config.Config, logger *zap.Logger) *Components {
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	if _, err := components.Indexer.Sync(context.Background(), false); err != nil {
		logger.Warn("corpus sync failed", zap.Error(err))
	}
	return components
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (corpus reloads, file events, analyses)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A failed sync leaves the engine not ready; the server still starts so /ready and
	// /api/v1/status can report why.
	if results, err := components.Indexer.Sync(ctx, false); err != nil {
		logger.Error("initial corpus sync failed", zap.Error(err))
	} else {
		for _, r := range results {
			logger.Info("corpus synced",
				zap.String("kind", string(r.Kind)),
				zap.String("source", r.Source),
				zap.Int("rows", r.Rows),
				zap.Bool("skipped", r.Skipped),
			)
		}
	}

	opts := []server.Option{
		server.WithMetrics(components.Metrics),
		server.WithVersion(version),
	}
	if files := cfg.Corpus.Files(); cfg.Corpus.Watch && len(files) > 0 {
		idx := components.Indexer
		watchSvc := watcher.NewWatcher(files,
			func(path string) {
				if err := idx.HandleFileChange(ctx, path); err != nil {
					logger.Warn("corpus reload failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
			watcher.WithDebounce(debounce(cfg)),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		opts = append(opts, server.WithWatch(watchSvc))
	}

	srv := server.NewServer(components.Engine, components.Catalog, cfg, logger, opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// joinArgs joins all positional args with spaces so multi-word input works the same with
// or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them. The flag package stops at the
// first non-flag argument.
func argsReorder(args []string) []string {
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

// readNote returns the note text from path ("-" reads stdin) or, when path is empty, the
// joined positional args.
func readNote(path string, args []string, maxBytes int, stdin io.Reader) (string, error) {
	if path == "" {
		return joinArgs(args), nil
	}
	reader := notes.NewReader(int64(maxBytes))
	if path == "-" {
		content, err := io.ReadAll(io.LimitReader(stdin, int64(maxBytes)+1))
		if err != nil {
			return "", err
		}
		return reader.ReadBytes(content, ".txt")
	}
	return reader.ReadFile(path)
}

func printAnalyzeUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: specialist-aid analyze [flags] <note text>\n")
	fmt.Fprintf(fs.Output(), "       specialist-aid analyze [flags] --file <note.txt|.pdf|.docx|.odt|.rtf|->\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Results are suggestions for specialist review, not a diagnosis.

Examples:
  specialist-aid analyze "Type 2 diabetes, HbA1c: 8.5, on metformin"
  specialist-aid analyze --file referral.pdf --output json
  specialist-aid analyze --server "" --context chronic severe asthma
`)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = analyze locally)")
	file := fs.String("file", "", "read the note from a file (- for stdin)")
	withContext := fs.Bool("context", false, "add context terms (time course, severity, family history)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAnalyzeUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseFormat(*outputFormat)
	if *file == "" && fs.NArg() == 0 {
		printAnalyzeUsage(fs)
		os.Exit(1)
	}

	cfg, logger := setup(*configPath)
	defer logger.Sync()

	text, err := readNote(*file, fs.Args(), cfg.Server.MaxNoteBytes, os.Stdin)
	if err != nil {
		fatalf("Failed to read note: %v", err)
	}
	req := &models.AnalyzeRequest{Text: text, IncludeContext: *withContext}
	if err := req.Validate(cfg.Server.MaxNoteBytes); err != nil {
		fatalf("Invalid note: %v", err)
	}

	var result *models.AnalysisResult
	if *serverURL != "" {
		result, err = analyzeViaHTTP(*serverURL, req)
	} else {
		components := directComponents(cfg, logger)
		defer components.Close()
		var opts []analysis.AnalyzeOption
		if req.IncludeContext {
			opts = append(opts, analysis.WithContextTerms())
		}
		result, err = components.Engine.Analyze(context.Background(), req.Text, opts...)
	}
	if err != nil {
		fatalf("Analysis failed: %v", err)
	}
	if err := cli.WriteAnalysis(os.Stdout, result, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runConditions() {
	fs := flag.NewFlagSet("conditions", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use the local catalogue)")
	limit := fs.Int("limit", 0, "number of search results (default from config)")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: specialist-aid conditions [flags] [search query]\n\n")
		fmt.Fprintf(fs.Output(), "Without a query, lists every condition. With a query, searches names, ICD-10 codes and descriptions.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseFormat(*outputFormat)
	query := joinArgs(fs.Args())

	if *serverURL != "" {
		if query == "" {
			conditions, err := conditionsViaHTTP(*serverURL)
			if err != nil {
				fatalf("List failed: %v", err)
			}
			if err := cli.WriteConditions(os.Stdout, conditions, format); err != nil {
				fatalf("Output failed: %v", err)
			}
			return
		}
		resp, err := searchConditionsViaHTTP(*serverURL, query, *limit, *fuzzy)
		if err != nil {
			fatalf("Search failed: %v", err)
		}
		if err := cli.WriteConditionSearch(os.Stdout, resp, format); err != nil {
			fatalf("Output failed: %v", err)
		}
		return
	}

	cfg, logger := setup(*configPath)
	defer logger.Sync()
	components := directComponents(cfg, logger)
	defer components.Close()

	if query == "" {
		conditions, err := components.Engine.Conditions()
		if err != nil {
			fatalf("List failed: %v", err)
		}
		if err := cli.WriteConditions(os.Stdout, conditions, format); err != nil {
			fatalf("Output failed: %v", err)
		}
		return
	}
	n := *limit
	if n <= 0 {
		n = cfg.Search.DefaultLimit
	}
	resp, err := components.Engine.SearchConditions(context.Background(), query, n, *fuzzy)
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteConditionSearch(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runBaskets() {
	fs := flag.NewFlagSet("baskets", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use the local catalogue)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseFormat(*outputFormat)
	if fs.NArg() != 1 {
		fmt.Println("Usage: specialist-aid baskets [flags] <icd10-code>")
		os.Exit(1)
	}
	code := fs.Arg(0)

	var baskets *models.ConditionWithBaskets
	var err error
	if *serverURL != "" {
		baskets, err = basketsViaHTTP(*serverURL, code)
	} else {
		cfg, logger := setup(*configPath)
		defer logger.Sync()
		components := directComponents(cfg, logger)
		defer components.Close()
		baskets, err = components.Catalog.GetBaskets(context.Background(), code)
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("no treatment baskets for %s", code)
		}
	}
	if err != nil {
		fatalf("Lookup failed: %v", err)
	}
	if err := cli.WriteBaskets(os.Stdout, baskets, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	conditions := fs.String("conditions", "", "chronic conditions file (.csv or .xlsx); default from config")
	baskets := fs.String("baskets", "", "treatment baskets file (.csv or .xlsx); default from config")
	force := fs.Bool("force", false, "re-import files even when unchanged")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*outputFormat)
	cfg, logger := setup(*configPath)
	defer logger.Sync()
	if *conditions != "" {
		cfg.Corpus.ConditionsPath = absPath(*conditions)
	}
	if *baskets != "" {
		cfg.Corpus.BasketsPath = absPath(*baskets)
	}
	if len(cfg.Corpus.Files()) == 0 {
		fatalf("Nothing to import: pass --conditions/--baskets or set corpus paths in the config")
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	results, err := components.Indexer.Sync(context.Background(), *force)
	if werr := cli.WriteSyncResults(os.Stdout, results, format); werr != nil {
		fatalf("Output failed: %v", werr)
	}
	if err != nil {
		fatalf("Import failed: %v", err)
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = inspect the local catalogue)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*outputFormat)
	var status *models.StatusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		status = res
	} else {
		cfg, logger := setup(*configPath)
		defer logger.Sync()
		components := directComponents(cfg, logger)
		defer components.Close()
		catalog, err := storage.Stats(context.Background(), components.Catalog, cfg.Storage.DatabasePath)
		if err != nil {
			fatalf("Catalogue stats failed: %v", err)
		}
		status = &models.StatusResponse{
			Version: version,
			Engine:  components.Engine.Status(),
			Catalog: catalog,
		}
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// runMCP serves the analysis tools over stdio. stdout carries the protocol, so every log
// line goes to stderr.
func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath)
	defer logger.Sync()
	components := directComponents(cfg, logger)
	defer components.Close()

	s := mcp.NewServer(version, components.Engine, components.Catalog, logger)
	if err := mcpserver.ServeStdio(s); err != nil {
		logger.Error("mcp server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "config.yaml", "where to write the starter config")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeStarterConfig(*path, *force); err != nil {
		fatalf("Init failed: %v", err)
	}
	fmt.Printf("Wrote %s\n", *path)
}

// writeStarterConfig saves the default config with relative data paths next to path.
func writeStarterConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := config.Default()
	cfg.Storage.DatabasePath = "./data/catalogue.db"
	cfg.Corpus.ConditionsPath = "./data/chronic_conditions.csv"
	cfg.Corpus.BasketsPath = "./data/treatment_baskets.csv"
	return config.Save(path, cfg)
}

func printUsage() {
	fmt.Println(`specialist-aid - Clinical note analysis against the chronic-condition list

Usage:
  specialist-aid server [flags]              Start the HTTP server
  specialist-aid analyze [flags] <note>      Extract terms, match conditions, score confidence
  specialist-aid conditions [flags] [query]  List or search chronic conditions
  specialist-aid baskets [flags] <code>      Show treatment baskets for an ICD-10 code
  specialist-aid import [flags]              Load conditions and baskets into the catalogue
  specialist-aid status [flags]              Show engine and catalogue status
  specialist-aid mcp [flags]                 Serve the analysis tools over MCP stdio
  specialist-aid init [flags]                Write a starter config.yaml
  specialist-aid version                     Show version
  specialist-aid help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/specialist-aid/config.yaml;
                     ./config.yaml wins when present)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to work
                     on the local catalogue without a running server.
  --output string    Output format: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Analyze Flags:
  --file string      Read the note from a .txt, .md, .pdf, .docx, .odt or .rtf file (- for stdin)
  --context          Add context terms (time course, severity, family history)

Conditions Flags:
  --limit int        Number of search results
  --fuzzy            Enable fuzzy matching for typo tolerance

Import Flags:
  --conditions string  Chronic conditions file (.csv or .xlsx)
  --baskets string     Treatment baskets file (.csv or .xlsx)
  --force              Re-import unchanged files

Environment:
  SPECIALIST_AID_HOST, _PORT, _DEBUG, _DATABASE_PATH, _CONDITIONS_PATH, _BASKETS_PATH,
  _VOCABULARY_PATH, _WATCH, _ALLOWED_ORIGINS override the config file. A .env file in the
  working directory is loaded first.

Examples:
  specialist-aid init
  specialist-aid import --conditions data/chronic_conditions.xlsx --baskets data/baskets.csv
  specialist-aid server
  specialist-aid analyze "Type 2 diabetes, HbA1c: 8.5, on metformin"
  specialist-aid analyze --file referral.docx --output json
  specialist-aid conditions epilepsy
  specialist-aid baskets E11.9
  specialist-aid status --output json`)
}
