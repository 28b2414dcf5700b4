package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/console/internal/api/client"
	"github.com/GriffinCanCode/AgentOS/console/internal/credentials"
	"github.com/GriffinCanCode/AgentOS/console/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/console/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/console/internal/logging"
	"github.com/GriffinCanCode/AgentOS/console/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/console/internal/socket"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing/llm"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	store   *credentials.Store
	tokens  tracing.CredentialProvider
	api     *client.Client

	flags globalFlags
}

type globalFlags struct {
	config      string
	apiURL      string
	token       string
	credentials string
	logLevel    string
	dev         bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tracewatch",
		Short: "Watch and query AgentOS traces",
		Long: `tracewatch reads the AgentOS console trace feed.

It lists and filters traces over REST, follows new and updated traces over the
live push channel, and can serve the live state to local dashboards.

Configuration is read from ~/.config/agentos/tracewatch.toml (or --config),
then environment variables (API_URL, API_TOKEN, LOG_LEVEL, ...), then flags.
Later sources win.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", "", "TOML config file (default ~/.config/agentos/tracewatch.toml)")
	pf.StringVar(&a.flags.apiURL, "api-url", "", "Console API base URL")
	pf.StringVar(&a.flags.token, "token", "", "Bearer token (overrides the credentials file)")
	pf.StringVar(&a.flags.credentials, "credentials", "", "Credentials file path")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.dev, "dev", false, "Development logging")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newListCmd(a),
		newDetailCmd(a),
		newStatsCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newSettingsCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads configuration and builds the shared clients. Flags win over
// the environment, which wins over the config file.
func (a *app) init(cmd *cobra.Command) error {
	file, fileErr := configFile(a.flags.config)
	cfg, err := config.LoadFile(file)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.URL = a.flags.apiURL
	}
	if flags.Changed("token") {
		cfg.API.Token = a.flags.token
	}
	if flags.Changed("credentials") {
		cfg.API.CredentialsFile = a.flags.credentials
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = a.flags.dev
	}
	if cfg.Tracing.Kind != llm.Kind {
		return fmt.Errorf("unsupported trace kind %q", cfg.Tracing.Kind)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		return err
	}
	a.logger = logger
	a.metrics = monitoring.NewMetrics()
	if fileErr != nil {
		logger.Debug("default config file skipped", zap.Error(fileErr))
	}

	path := cfg.API.CredentialsFile
	if path == "" {
		if path, err = credentials.DefaultPath(); err != nil {
			return err
		}
	}
	a.store = credentials.NewStore(path)
	a.tokens = credentials.Chain{tracing.StaticToken(cfg.API.Token), a.store}

	opts := client.OptionsFromConfig(cfg)
	opts.Tokens = a.tokens
	opts.Metrics = a.metrics
	opts.Logger = logger.Logger
	a.api = client.New(opts)

	logger.Debug("configuration loaded",
		zap.String("api_url", cfg.API.URL),
		zap.String("config_file", file),
		zap.String("credentials", path),
	)
	return nil
}

// configFile returns the config file to load: the flag value, else the
// default location. A default that cannot be resolved yields "" and the
// lookup error, which only disables the file overlay.
func configFile(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return paths.ConfigFile()
}

// engineOptions selects optional engine collaborators.
type engineOptions struct {
	live      bool
	pageSize  int
	notifier  tracing.Notifier
	navigator tracing.Navigator
}

// newEngine builds an LLM engine. The push channel dialer is only attached
// when live is set.
func (a *app) newEngine(opts engineOptions) (*llm.Engine, error) {
	cfg := tracing.Config{
		Requester:            a.api,
		Credentials:          a.tokens,
		Notifier:             opts.notifier,
		Navigator:            opts.navigator,
		Metrics:              a.metrics,
		Logger:               a.logger.Logger,
		PageSize:             a.cfg.Tracing.PageSize,
		MaxReconnectAttempts: a.cfg.Tracing.MaxReconnectAttempts,
		ReconnectInterval:    a.cfg.Tracing.ReconnectInterval,
		SocketPath:           a.cfg.Tracing.SocketPath,
	}
	if opts.pageSize > 0 {
		cfg.PageSize = opts.pageSize
	}
	if opts.live {
		sockOpts := socket.OptionsFromConfig(a.cfg)
		sockOpts.Logger = a.logger.Logger
		dialer, err := socket.NewDialer(sockOpts)
		if err != nil {
			return nil, err
		}
		cfg.Dialer = dialer
	}
	return llm.New(cfg)
}

// stderrNotifier prints engine notices for interactive use.
type stderrNotifier struct {
	w io.Writer
}

func (n stderrNotifier) Success(msg string) { fmt.Fprintln(n.w, msg) }
func (n stderrNotifier) Error(msg string)   { fmt.Fprintln(n.w, "error:", msg) }

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tracewatch", version)
		},
	}
}
