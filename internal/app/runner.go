package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Call.Output.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
	OutputRaw  = "raw"
)

// Call describes a single request issued from the command line.
type Call struct {
	Method      string
	Path        string
	Params      []string
	Headers     []string
	Form        []string
	Data        string
	JSON        string
	Timeout     time.Duration
	NoRedirects bool
	Output      string
}

// Runner owns a configured client and renders responses.
type Runner struct {
	cfg    *config.Config
	client *apiclient.Client
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
}

// NewRunner builds the client described by cfg. The session stays closed until Run.
func NewRunner(cfg *config.Config, log *zap.Logger, out, errOut io.Writer, opts ...apiclient.Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	clientCfg, err := ClientConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]apiclient.Option{apiclient.WithLogger(apiclient.ZapLogger(log))}, opts...)
	client, err := apiclient.New(clientCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	// Run reopens inside a scoped block
	if err := client.Close(); err != nil {
		return nil, fmt.Errorf("close client: %w", err)
	}

	log.Debug("client configured",
		zap.String("base_url", client.BaseURL()),
		zap.String("auth_type", cfg.Auth.Type),
		zap.Duration("timeout", cfg.Timeout),
	)

	return &Runner{cfg: cfg, client: client, log: log, out: out, errOut: errOut}, nil
}

// ClientConfig maps loaded settings onto apiclient.Config.
func ClientConfig(cfg *config.Config) (apiclient.Config, error) {
	headers, err := config.ParsePairs(cfg.Headers)
	if err != nil {
		return apiclient.Config{}, fmt.Errorf("parse headers: %w", err)
	}
	params, err := config.ParsePairs(cfg.Params)
	if err != nil {
		return apiclient.Config{}, fmt.Errorf("parse params: %w", err)
	}
	cookies, err := config.ParsePairs(cfg.Cookies)
	if err != nil {
		return apiclient.Config{}, fmt.Errorf("parse cookies: %w", err)
	}
	proxies, err := config.ParsePairs(cfg.Proxies)
	if err != nil {
		return apiclient.Config{}, fmt.Errorf("parse proxies: %w", err)
	}

	return apiclient.Config{
		BaseURL: cfg.BaseURL,
		Params:  params,
		Headers: headers,
		Auth:    authStrategy(cfg.Auth),
		Cookies: cookies,
		Proxies: proxies,
		TLS: httpclient.TLSConfig{
			InsecureSkipVerify: !cfg.TLS.Verify,
			CABundle:           cfg.TLS.CABundle,
			CertFile:           cfg.TLS.CertFile,
			KeyFile:            cfg.TLS.KeyFile,
		},
		MaxRedirects: cfg.MaxRedirects,
		Stream:       cfg.Stream,
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
	}, nil
}

func authStrategy(cfg config.AuthConfig) apiclient.AuthStrategy {
	switch cfg.Type {
	case config.AuthToken:
		scheme := strings.TrimSpace(cfg.Scheme)
		if strings.EqualFold(scheme, "none") {
			scheme = ""
		}
		return apiclient.NewTokenAuth(cfg.Token, apiclient.WithAuthScheme(scheme))
	case config.AuthBasic:
		return apiclient.BasicAuth{Username: cfg.Username, Password: cfg.Password}
	default:
		return nil
	}
}

// Run performs call inside a scoped session and writes the rendered body to out.
func (r *Runner) Run(ctx context.Context, call Call) error {
	opts, err := requestOptions(call)
	if err != nil {
		return err
	}
	method := strings.ToUpper(strings.TrimSpace(call.Method))
	if method == "" {
		return fmt.Errorf("method is required")
	}

	return r.client.Do(ctx, func(ctx context.Context, c *apiclient.Client) error {
		start := time.Now()
		resp, err := c.Request(ctx, method, call.Path, opts...)
		if err != nil {
			r.log.Error("request failed",
				zap.String("method", method),
				zap.String("path", call.Path),
				zap.Error(err),
			)
			return fmt.Errorf("%s %s: %w", method, call.Path, err)
		}

		fmt.Fprintf(r.errOut, "%s %s -> %s\n", method, call.Path, resp.Raw().Status())
		r.log.Info("request completed",
			zap.String("method", method),
			zap.String("path", call.Path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
		return render(r.out, call.Output, resp, r.cfg.Stream)
	})
}

func requestOptions(call Call) ([]apiclient.RequestOption, error) {
	var opts []apiclient.RequestOption

	params, err := config.ParsePairs(call.Params)
	if err != nil {
		return nil, fmt.Errorf("parse params: %w", err)
	}
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		opts = append(opts, apiclient.WithParams(values))
	}

	headers, err := config.ParsePairs(call.Headers)
	if err != nil {
		return nil, fmt.Errorf("parse headers: %w", err)
	}
	if len(headers) > 0 {
		opts = append(opts, apiclient.WithHeaders(headers))
	}

	form, err := config.ParsePairs(call.Form)
	if err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	switch {
	case len(form) > 0:
		opts = append(opts, apiclient.WithData(form))
	case call.Data != "":
		opts = append(opts, apiclient.WithData(call.Data))
	}

	if call.JSON != "" {
		var payload any
		if err := sonic.UnmarshalString(call.JSON, &payload); err != nil {
			return nil, fmt.Errorf("parse json body: %w", err)
		}
		opts = append(opts, apiclient.WithJSON(payload))
	}
	if call.Timeout > 0 {
		opts = append(opts, apiclient.WithTimeout(call.Timeout))
	}
	if call.NoRedirects {
		opts = append(opts, apiclient.WithoutRedirects())
	}
	return opts, nil
}

func render(w io.Writer, format string, resp *apiclient.Response, streamed bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", OutputJSON:
		out, err := sonic.ConfigStd.MarshalIndent(resp.JSON(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode json output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case OutputYAML:
		out, err := yaml.Marshal(resp.JSON())
		if err != nil {
			return fmt.Errorf("encode yaml output: %w", err)
		}
		_, err = w.Write(out)
		return err
	case OutputRaw:
		if body := resp.Raw().RawBody(); streamed && body != nil {
			defer body.Close()
			_, err := io.Copy(w, body)
			return err
		}
		_, err := io.WriteString(w, resp.Text())
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
