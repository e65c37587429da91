package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samvad-hq/samvad-api-client/internal/app"
	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/spf13/cobra"
)

type flags struct {
	cfgFile     string
	baseURL     string
	logLevel    string
	params      []string
	headers     []string
	form        []string
	data        string
	json        string
	timeout     time.Duration
	noRedirects bool
	output      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "apiclient failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "apiclient METHOD PATH",
		Short: "Send a request to a JSON API and print the decoded response",
		Long: `apiclient sends one request relative to the configured base URL and prints
the decoded JSON body. Settings come from --config, configs/.env and
APICLIENT_* environment variables; flags override them.`,
		Example: `  apiclient --base-url https://httpbin.org get /anything/one
  apiclient post /anything --json '{"a":1}' --output yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args[0], args[1])
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.cfgFile, "config", "", "config file (yaml, json or toml)")
	fs.StringVar(&f.baseURL, "base-url", "", "API base URL (overrides base_url)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringArrayVar(&f.params, "param", nil, "query parameter key=value (repeatable)")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, "request header key=value (repeatable)")
	fs.StringArrayVar(&f.form, "form", nil, "form field key=value (repeatable)")
	fs.StringVarP(&f.data, "data", "d", "", "raw request body")
	fs.StringVar(&f.json, "json", "", "JSON request body")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-request timeout (e.g. 5s)")
	fs.BoolVar(&f.noRedirects, "no-redirects", false, "do not follow redirects")
	fs.StringVarP(&f.output, "output", "o", app.OutputJSON, "output format: json, yaml, raw")

	return cmd
}

func run(cmd *cobra.Command, f *flags, method, path string) error {
	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(cfg, log, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	return runner.Run(ctx, app.Call{
		Method:      method,
		Path:        path,
		Params:      f.params,
		Headers:     f.headers,
		Form:        f.form,
		Data:        f.data,
		JSON:        f.json,
		Timeout:     f.timeout,
		NoRedirects: f.noRedirects,
		Output:      f.output,
	})
}
