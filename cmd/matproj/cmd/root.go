package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matproj"
	"github.com/kailas-cloud/matproj/internal/config"
	logpkg "github.com/kailas-cloud/matproj/internal/logger"
	"github.com/kailas-cloud/matproj/internal/version"
)

// cliLogLevel keeps client commands quiet unless asked otherwise.
const cliLogLevel = "warn"

// options is the state shared by every command.
type options struct {
	v          *viper.Viper
	configPath string
	output     string

	cfg    config.Config
	logger *zap.Logger
}

// Execute runs the matproj command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "matproj",
		Short: "Query the Materials Project REST API",
		Long: `matproj queries Materials Project data categories from the command line.

Examples:
  # Fetch a summary document
  matproj get summary mp-149

  # Search iron oxides with a band gap between 1 and 3 eV
  matproj search summary --filter elements=Fe,O --filter band_gap_min=1 --filter band_gap_max=3

  # Find sol-gel recipes for BaTiO3
  matproj synthesis --target BaTiO3 --keywords sol-gel

  # Serve the built-in fixtures locally
  matproj serve --port 8080`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVarP(&o.output, "output", "o", "table", "Output format: table, json, yaml")
	flags.String("api-key", "", "Materials Project API key (defaults to $MP_API_KEY)")
	flags.String("endpoint", "", "API endpoint (defaults to $MP_API_ENDPOINT or the public API)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")

	o.v.SetEnvPrefix("MPRESTER")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()
	_ = o.v.BindPFlag("api.key", flags.Lookup("api-key"))
	_ = o.v.BindPFlag("api.endpoint", flags.Lookup("endpoint"))
	_ = o.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = o.v.BindEnv("api.key", "MPRESTER_API_KEY", matproj.EnvAPIKey)
	_ = o.v.BindEnv("api.endpoint", "MPRESTER_API_ENDPOINT", matproj.EnvEndpoint)

	root.AddCommand(
		newGetCmd(o),
		newSearchCmd(o),
		newSynthesisCmd(o),
		newCountCmd(o),
		newFieldsCmd(o),
		newVersionsCmd(o),
		newHeartbeatCmd(o),
		newHealthCmd(o),
		newServeCmd(o),
		newAskCmd(o),
		newVersionCmd(),
	)
	return root
}

// load reads the config file, applies flag and env overrides and builds the logger.
func (o *options) load(cmd *cobra.Command) error {
	switch o.output {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", o.output)
	}

	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(o.configPath); err != nil {
			return err //nolint:wrapcheck // already names the file
		}
	}
	if s := o.v.GetString("api.key"); s != "" {
		cfg.API.Key = s
	}
	if s := o.v.GetString("api.endpoint"); s != "" {
		cfg.API.Endpoint = s
	}
	if s := o.v.GetString("cache.addr"); s != "" {
		cfg.Cache.Addr = s
	}
	if s := o.v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = s
	}
	if cmd.Name() == "serve" {
		if p := o.v.GetInt("server.port"); p > 0 {
			cfg.Server.Port = p
		}
		if s := o.v.GetString("server.fixtures_dir"); s != "" {
			cfg.Server.FixturesDir = s
		}
		if keys := o.v.GetStringSlice("server.api_keys"); len(keys) > 0 {
			cfg.Server.APIKeys = keys
		}
	} else if cfg.Logging.Level == "" {
		cfg.Logging.Level = cliLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logpkg.NewLogger(config.GetEnv(), cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}

// client creates an SDK client from the loaded configuration.
func (o *options) client(ctx context.Context) (*matproj.Client, error) {
	cc := o.cfg.Client
	opts := []matproj.Option{
		matproj.WithEndpoint(o.cfg.API.Endpoint),
		matproj.WithTimeout(cc.Timeout()),
		matproj.WithMaxRetries(cc.MaxRetries),
		matproj.WithParallelRequests(cc.ParallelRequests),
		matproj.WithChunkSize(cc.ChunkSize),
		matproj.WithMaxURLLength(cc.MaxURLLength),
		matproj.WithMontyDecode(*cc.MontyDecode),
		matproj.WithUserAgent(*cc.UserAgent),
		matproj.WithLogger(logpkg.NewSlog(o.logger)),
	}
	if o.cfg.API.Key != "" {
		opts = append(opts, matproj.WithAPIKey(o.cfg.API.Key))
	}
	if o.cfg.Cache.Addr != "" {
		opts = append(opts, matproj.WithRedisCache(o.cfg.Cache.Addr, o.cfg.Cache.Password, o.cfg.Cache.TTL()))
	}
	c, err := matproj.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// rester resolves a category and returns it with a client the caller must close.
func (o *options) rester(ctx context.Context, category string) (*matproj.Client, matproj.GenericRester, error) {
	c, err := o.client(ctx)
	if err != nil {
		return nil, nil, err
	}
	r, err := c.Rester(category)
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("category %q: %w", category, err)
	}
	return c, r, nil
}
