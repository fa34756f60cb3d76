package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/term"

	"github.com/svanoort/script-security-plugin/internal/api"
	"github.com/svanoort/script-security-plugin/internal/completion"
	"github.com/svanoort/script-security-plugin/internal/config"
	"github.com/svanoort/script-security-plugin/internal/lang"
	"github.com/svanoort/script-security-plugin/internal/logger"
	"github.com/svanoort/script-security-plugin/internal/metrics"
	"github.com/svanoort/script-security-plugin/internal/security"
	"github.com/svanoort/script-security-plugin/internal/signature"
	"github.com/svanoort/script-security-plugin/internal/telemetry"
	"github.com/svanoort/script-security-plugin/internal/tui"
	"github.com/svanoort/script-security-plugin/internal/whitelist"
)

// Version is set at build time via ldflags: -X main.Version=x.y.z
var Version = "1.0.0"

var log = logger.New("main")

func main() {
	// Shell completion: when COMP_LINE is set the binary only emits
	// completions and exits.
	if completion.Run() {
		return
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "check":
			runCheck(os.Args[2:])
			return
		case "list":
			runList(os.Args[2:])
			return
		case "audit":
			runAudit(os.Args[2:])
			return
		case "fmt":
			runFmt(os.Args[2:])
			return
		case "lint":
			runLint(os.Args[2:])
			return
		case "browse":
			runBrowse(os.Args[2:])
			return
		case "completion":
			runCompletion(os.Args[2:])
			return
		case "help", "-h", "--help":
			printUsage()
			return
		case "version", "-v", "--version":
			runVersion(os.Args[2:])
			return
		}
	}

	printUsage()
}

func printUsage() {
	fmt.Println(`scriptsec - whitelist enforcement for sandboxed scripts

Usage:
  scriptsec serve [flags]                    Run the enforcement daemon and management API
  scriptsec check <kind> <type> [name] [args...]
                                             Probe whether a descriptor is whitelisted
  scriptsec list [--filter G] [--kind K]     List active whitelist entries
  scriptsec audit [file.list]                Audit entries against the object model
  scriptsec fmt [--write] <file.list>        Canonicalize a catalog (sort + dedup)
  scriptsec lint <file.list>                 Report catalog problems
  scriptsec browse                           Browse the active catalog interactively

  scriptsec completion [--install|--uninstall]  Manage shell tab-completion
  scriptsec help                             Show this help message
  scriptsec version [--json]                 Show version

Serve Flags:
  --config string     Path to configuration file (default ~/.scriptsec/config.yaml)
  --port int          Management API port (default from config)
  --log-level string  Log level: trace, debug, info, warn, error
  --no-color          Disable colored log output
  --user-dir string   User catalog directory (default ~/.scriptsec/whitelists.d)
  --disable-builtin   Disable the embedded builtin catalog
  --no-watch          Disable catalog hot reload
  --db-key string     Telemetry encryption key (prefer SCRIPTSEC_DB_KEY env var)
  --monitor           Monitor-only mode: log denials but allow everything

Examples:
  scriptsec serve --log-level debug
  scriptsec check method std.String substring int
  scriptsec list --filter 'method std.String *'
  scriptsec fmt --write ~/.scriptsec/whitelists.d/mine.list`)
}

// setupOutput configures logging level and color for all commands.
func setupOutput(logLevel string, noColor bool) {
	if logLevel != "" {
		logger.SetLevelFromString(logLevel)
	}
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	plain := noColor || noColorEnv || !term.IsTerminal(int(os.Stderr.Fd()))
	logger.SetColored(!plain)
	if noColor {
		tui.SetPlainMode(true)
	}
}

// loadEngine builds a whitelist engine for the offline CLI commands.
func loadEngine(userDir string, disableBuiltin bool) *whitelist.Engine {
	if userDir == "" {
		userDir = whitelist.DefaultUserDir()
	}
	engine, err := whitelist.NewEngine(whitelist.EngineConfig{
		UserDir:        userDir,
		DisableBuiltin: disableBuiltin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalogs: %v\n", err)
		os.Exit(1)
	}
	return engine
}

// runServe handles the serve subcommand.
func runServe(args []string) {
	serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := serveFlags.String("config", config.DefaultConfigPath(), "Path to configuration file")
	port := serveFlags.Int("port", 0, "Management API port (default from config)")
	logLevel := serveFlags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	noColor := serveFlags.Bool("no-color", false, "Disable colored log output")
	userDir := serveFlags.String("user-dir", "", "User catalog directory")
	disableBuiltin := serveFlags.Bool("disable-builtin", false, "Disable the embedded builtin catalog")
	noWatch := serveFlags.Bool("no-watch", false, "Disable catalog hot reload")
	dbKey := serveFlags.String("db-key", "", "Telemetry encryption key (prefer SCRIPTSEC_DB_KEY env var)")
	monitor := serveFlags.Bool("monitor", false, "Monitor-only mode: log denials but allow everything")
	_ = serveFlags.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// CLI overrides before validation
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = *logLevel
	}
	if *noColor {
		cfg.Server.NoColor = true
	}
	if *userDir != "" {
		cfg.Catalogs.UserDir = *userDir
	}
	if *disableBuiltin {
		cfg.Catalogs.DisableBuiltin = true
	}
	if *noWatch {
		cfg.Catalogs.Watch = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	setupOutput(cfg.Server.LogLevel, cfg.Server.NoColor)

	if cfg.Catalogs.UserDir == "" {
		cfg.Catalogs.UserDir = whitelist.DefaultUserDir()
	}
	engine, err := whitelist.NewEngine(whitelist.EngineConfig{
		UserDir:        cfg.Catalogs.UserDir,
		DisableBuiltin: cfg.Catalogs.DisableBuiltin,
	})
	if err != nil {
		log.Error("Failed to load catalogs: %v", err)
		os.Exit(1)
	}

	engine.OnReload(func() {
		metrics.RecordReload()
		metrics.SetCatalogEntries(engine.Count())
	})
	metrics.SetCatalogEntries(engine.Count())

	var store *telemetry.Storage
	if cfg.Telemetry.Enabled {
		key := *dbKey
		if env := os.Getenv("SCRIPTSEC_DB_KEY"); env != "" {
			// Env var wins: flags are visible in ps output.
			key = env
		}
		if key == "" {
			key = cfg.Telemetry.EncryptionKey
		}
		store, err = telemetry.NewStorage(cfg.Telemetry.DBPath, key)
		if err != nil {
			log.Error("Failed to open telemetry database: %v", err)
			os.Exit(1)
		}
		defer store.Close()
		if _, err := store.Prune(cfg.Telemetry.RetentionDays); err != nil {
			log.Warn("Failed to prune old denials: %v", err)
		}
	}

	interceptor := security.NewInterceptor(engine, store)
	if *monitor {
		interceptor.SetEnforcing(false)
		log.Warn("Monitor-only mode: denials will be logged but not enforced")
	}

	if cfg.Catalogs.Watch {
		watcher, err := whitelist.NewWatcher(engine)
		if err != nil {
			log.Warn("Failed to create catalog watcher: %v", err)
		} else if err := watcher.Start(); err != nil {
			log.Warn("Failed to start catalog watcher: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	server := api.NewServer(engine, interceptor, store, cfg.Metrics.Enabled)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Management API listening on %s (%d whitelist entries)", httpServer.Addr, engine.Count())
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error: %v", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Info("Received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("Shutdown error: %v", err)
		}
	}
}

// runCheck handles the check subcommand: a local probe of the catalogs on
// disk, no daemon required.
func runCheck(args []string) {
	checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
	userDir := checkFlags.String("user-dir", "", "User catalog directory")
	disableBuiltin := checkFlags.Bool("disable-builtin", false, "Disable the embedded builtin catalog")
	_ = checkFlags.Parse(args)
	rest := checkFlags.Args()

	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: scriptsec check <kind> <type> [name] [args...]")
		os.Exit(2)
	}

	kind, ok := signature.KindFromLabel(rest[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown kind %q (valid: method, staticMethod, new, field, staticField)\n", rest[0])
		os.Exit(2)
	}

	typ := rest[1]
	var name string
	var sigArgs []string
	if kind == signature.KindConstructor {
		sigArgs = rest[2:]
	} else {
		if len(rest) < 3 {
			fmt.Fprintf(os.Stderr, "Kind %s needs a member name\n", rest[0])
			os.Exit(2)
		}
		name = rest[2]
		sigArgs = rest[3:]
	}

	engine := loadEngine(*userDir, *disableBuiltin)
	if engine.CheckDescriptor(kind, typ, name, sigArgs) {
		fmt.Println("permitted")
		return
	}
	fmt.Println("denied")
	os.Exit(1)
}

// runList handles the list subcommand.
func runList(args []string) {
	listFlags := flag.NewFlagSet("list", flag.ExitOnError)
	filter := listFlags.String("filter", "", "Glob over the canonical line, e.g. 'method std.String *'")
	kind := listFlags.String("kind", "", "Restrict to one kind label")
	jsonOut := listFlags.Bool("json", false, "Output JSON")
	userDir := listFlags.String("user-dir", "", "User catalog directory")
	disableBuiltin := listFlags.Bool("disable-builtin", false, "Disable the embedded builtin catalog")
	_ = listFlags.Parse(args)

	var g glob.Glob
	if *filter != "" {
		var err error
		g, err = glob.Compile(*filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid filter: %v\n", err)
			os.Exit(2)
		}
	}

	engine := loadEngine(*userDir, *disableBuiltin)
	var out []whitelist.Entry
	for _, e := range engine.Entries() {
		if *kind != "" && e.Kind != *kind {
			continue
		}
		if g != nil && !g.Match(e.Text) {
			continue
		}
		out = append(out, e)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode entries: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Whitelist entries (%d):\n", len(out))
	for _, e := range out {
		fmt.Printf("  %s\n", e.Text)
	}
}

// runAudit handles the audit subcommand. With a file argument it audits
// that catalog; otherwise it audits the active catalogs.
func runAudit(args []string) {
	auditFlags := flag.NewFlagSet("audit", flag.ExitOnError)
	jsonOut := auditFlags.Bool("json", false, "Output JSON")
	userDir := auditFlags.String("user-dir", "", "User catalog directory")
	_ = auditFlags.Parse(args)
	rest := auditFlags.Args()

	var entries []*signature.Signature
	if len(rest) > 0 {
		f, err := os.Open(rest[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open catalog: %v\n", err)
			os.Exit(1)
		}
		entries, err = whitelist.ParseEntries(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Catalog has parse errors:\n%v\n", err)
			os.Exit(1)
		}
	} else {
		engine := loadEngine(*userDir, false)
		for _, e := range engine.Entries() {
			entries = append(entries, e.Signature)
		}
	}

	results := whitelist.Audit(entries, lang.StandardRegistry())
	summary := whitelist.Summarize(results)

	if *jsonOut {
		type auditLine struct {
			Signature string `json:"signature"`
			Status    string `json:"status"`
			Error     string `json:"error,omitempty"`
		}
		lines := make([]auditLine, 0, len(results))
		for _, r := range results {
			l := auditLine{Signature: r.Signature.String(), Status: r.Status.String()}
			if r.Err != nil {
				l.Error = r.Err.Error()
			}
			lines = append(lines, l)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(lines); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode results: %v\n", err)
			os.Exit(1)
		}
	} else {
		for _, r := range results {
			if r.Status == whitelist.StatusExists {
				continue
			}
			if r.Err != nil {
				fmt.Printf("  [%-7s] %s  (%v)\n", r.Status, r.Signature, r.Err)
			} else {
				fmt.Printf("  [%-7s] %s\n", r.Status, r.Signature)
			}
		}
		fmt.Printf("%d entries: %d ok, %d missing, %d broken\n",
			len(results), summary.Exists, summary.Missing, summary.Broken)
	}

	if summary.Broken > 0 {
		os.Exit(1)
	}
}

// runFmt handles the fmt subcommand: parse, sort, dedup, re-render.
func runFmt(args []string) {
	fmtFlags := flag.NewFlagSet("fmt", flag.ExitOnError)
	write := fmtFlags.Bool("write", false, "Rewrite the file in place instead of printing")
	_ = fmtFlags.Parse(args)
	rest := fmtFlags.Args()

	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: scriptsec fmt [--write] <file.list>")
		os.Exit(2)
	}
	path := rest[0]

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open catalog: %v\n", err)
		os.Exit(1)
	}
	entries, err := whitelist.ParseEntries(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalog has parse errors:\n%v\n", err)
		os.Exit(1)
	}

	formatted := whitelist.FormatCatalog(entries)
	if *write {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Formatted %s (%d entries)\n", path, len(signature.Dedup(entries)))
		return
	}
	fmt.Print(formatted)
}

// runLint handles the lint subcommand.
func runLint(args []string) {
	lintFlags := flag.NewFlagSet("lint", flag.ExitOnError)
	_ = lintFlags.Parse(args)
	rest := lintFlags.Args()

	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: scriptsec lint <file.list>")
		os.Exit(2)
	}

	issues, err := whitelist.LintFile(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lint catalog: %v\n", err)
		os.Exit(1)
	}
	if len(issues) == 0 {
		fmt.Println("No problems found")
		return
	}
	for _, issue := range issues {
		fmt.Printf("%s:%d: %s\n", rest[0], issue.Line, issue.Message)
	}
	os.Exit(1)
}

// runBrowse handles the browse subcommand.
func runBrowse(args []string) {
	browseFlags := flag.NewFlagSet("browse", flag.ExitOnError)
	noColor := browseFlags.Bool("no-color", false, "Disable styling")
	userDir := browseFlags.String("user-dir", "", "User catalog directory")
	_ = browseFlags.Parse(args)

	setupOutput("", *noColor)

	engine := loadEngine(*userDir, false)
	entries := engine.Entries()
	sigs := make([]*signature.Signature, 0, len(entries))
	for _, e := range entries {
		sigs = append(sigs, e.Signature)
	}
	results := whitelist.Audit(sigs, lang.StandardRegistry())

	if err := tui.Browse(entries, results); err != nil {
		fmt.Fprintf(os.Stderr, "Browse failed: %v\n", err)
		os.Exit(1)
	}
}

// runCompletion handles the completion subcommand.
func runCompletion(args []string) {
	compFlags := flag.NewFlagSet("completion", flag.ExitOnError)
	doInstall := compFlags.Bool("install", false, "Install shell completion")
	doUninstall := compFlags.Bool("uninstall", false, "Uninstall shell completion")
	_ = compFlags.Parse(args)

	switch {
	case *doInstall:
		if completion.IsInstalled() {
			fmt.Println("Shell completion is already installed")
			return
		}
		if err := completion.Install(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to install completion: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Shell completion installed; restart your shell to activate")
	case *doUninstall:
		if err := completion.Uninstall(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to uninstall completion: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Shell completion uninstalled")
	default:
		state := "not installed"
		if completion.IsInstalled() {
			state = "installed"
		}
		fmt.Printf("Shell completion is %s (use --install or --uninstall)\n", state)
	}
}

// runVersion handles the version subcommand.
func runVersion(args []string) {
	jsonOut := false
	for _, a := range args {
		if a == "--json" || a == "-json" {
			jsonOut = true
		}
	}
	if jsonOut {
		out, _ := json.Marshal(map[string]string{"version": Version})
		fmt.Println(string(out))
		return
	}
	fmt.Printf("scriptsec version %s\n", Version)
}
