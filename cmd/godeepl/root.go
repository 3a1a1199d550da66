package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ZaguanLabs/godeepl"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config keys, shared by flags, GODEEPL_* variables and godeepl.yaml.
const (
	keyConfig      = "config"
	keyVerbose     = "verbose"
	keyFrom        = "from"
	keyTo          = "to"
	keySession     = "session"
	keyTagHandling = "tag-handling"
	keyBackend     = "backend"
	keyChrome      = "chrome"
	keyHeadless    = "headless"
	keySelector    = "selector"
	keyJSON        = "json"
	keyCacheTTL    = "cache-ttl"
	keyCacheSize   = "cache-size"
	keyRedisURL    = "redis-url"
	keyRPM         = "rpm"
	keyNoRetry     = "no-retry"
	keyConcurrency = "concurrency"
)

type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	// newProvider builds the translation backend; tests replace it.
	newProvider func(a *app) (godeepl.Provider, io.Closer, error)
}

func newApp(stdout, stderr io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("GODEEPL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &app{
		v:           v,
		stdout:      stdout,
		stderr:      stderr,
		logger:      slog.New(slog.DiscardHandler),
		newProvider: buildProvider,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   godeepl.Name,
		Short: godeepl.Description,
		Long: `godeepl obtains DeepL translations without an API key, either by
replaying the JSON-RPC calls of the DeepL browser extension (default) or by
driving a headless Chrome against the DeepL web translator.

Every flag can also be set as GODEEPL_<FLAG> (dashes become underscores)
or in a godeepl.yaml config file.`,
		Version:       godeepl.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String(keyConfig, "", "config file (default: ./godeepl.yaml or ~/.config/godeepl/godeepl.yaml)")
	pf.BoolP(keyVerbose, "v", false, "debug logging")
	pf.String(keySession, "", "dl_session cookie for the JSON-RPC backend")
	pf.String(keyTagHandling, "", "treat the text as markup: html or xml")
	pf.String(keyBackend, "jsonrpc", "translation backend: jsonrpc or browser")
	pf.String(keyChrome, "", "Chrome/Chromium executable for the browser backend")
	pf.Bool(keyHeadless, true, "run the browser backend headless")
	pf.String(keySelector, "", "CSS selector of the result element (browser backend)")
	pf.Int(keyCacheTTL, 3600, "cache TTL in seconds (0 disables caching)")
	pf.Int(keyCacheSize, 0, "in-memory cache size (default 4096)")
	pf.String(keyRedisURL, "", "Redis URL for a shared cache")
	pf.Int(keyRPM, 0, "client-side limit in requests per minute (0 disables)")
	pf.Bool(keyNoRetry, false, "do not retry rate-limited requests")

	root.AddCommand(
		newTranslateCmd(a),
		newBatchCmd(a),
		newLanguagesCmd(a),
		newCacheCmd(a),
		newVersionCmd(a),
	)
	return root
}

// init binds flags, reads the optional .env and config file, and sets up
// logging. It runs before every command.
func (a *app) init(cmd *cobra.Command) error {
	_ = godotenv.Load()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := a.v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	if path := a.v.GetString(keyConfig); path != "" {
		a.v.SetConfigFile(path)
	} else {
		a.v.SetConfigName("godeepl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME/.config/godeepl")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	level := slog.LevelInfo
	if a.v.GetBool(keyVerbose) {
		level = slog.LevelDebug
	}
	a.logger = slog.New(tint.NewHandler(a.stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	return nil
}
