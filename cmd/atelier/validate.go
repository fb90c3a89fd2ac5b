package main

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/atelier/pkg/cli"
	"mercator-hq/atelier/pkg/config"
	"mercator-hq/atelier/pkg/providers/genai"
	"mercator-hq/atelier/pkg/security/secrets"

	"github.com/spf13/cobra"
)

var validateFlags struct {
	checkKey bool
	format   string
	timeout  time.Duration
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and credentials",
	Long: `Load the configuration file with environment overrides applied and
report the effective settings.

The upstream API key is checked for presence and format. With --check-key
it is also sent to the upstream once to confirm it is accepted.

Examples:
  # Validate config.yaml
  atelier validate

  # Validate a specific file and print JSON
  atelier validate --config /etc/atelier/config.yaml --format json

  # Also confirm the key with the upstream
  atelier validate --check-key`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.checkKey, "check-key", false, "confirm the API key with the upstream")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.Flags().DurationVar(&validateFlags.timeout, "timeout", 10*time.Second, "upstream check timeout")
}

// validationSummary is the result of the validate command.
type validationSummary struct {
	ConfigFile        string `json:"configFile"`
	ListenAddress     string `json:"listenAddress"`
	RateLimitEnabled  bool   `json:"rateLimitEnabled"`
	RateLimitBackend  string `json:"rateLimitBackend"`
	RequestsPerWindow int    `json:"requestsPerWindow"`
	Window            string `json:"window"`
	EditModel         string `json:"editModel"`
	GenerateModel     string `json:"generateModel"`
	KeySource         string `json:"keySource,omitempty"`
	KeyStatus         string `json:"keyStatus"`
	UpstreamStatus    string `json:"upstreamStatus,omitempty"`
}

func (s validationSummary) Lines() []string {
	lines := []string{
		"config file:    " + s.ConfigFile,
		"listen address: " + s.ListenAddress,
		fmt.Sprintf("rate limit:     %d per %s (%s, enabled=%t)", s.RequestsPerWindow, s.Window, s.RateLimitBackend, s.RateLimitEnabled),
		"edit model:     " + s.EditModel,
		"generate model: " + s.GenerateModel,
		"api key:        " + s.KeyStatus,
	}
	if s.UpstreamStatus != "" {
		lines = append(lines, "upstream:       "+s.UpstreamStatus)
	}
	return lines
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	summary := summarize(cfg)

	keyErr := secrets.ValidateAPIKey(cfg.Gemini.APIKey)
	if keyErr == nil && validateFlags.checkKey {
		client := genai.NewClient(genai.Config{
			BaseURL:       cfg.Gemini.BaseURL,
			EditModel:     cfg.Gemini.EditModel,
			GenerateModel: cfg.Gemini.GenerateModel,
			Timeout:       validateFlags.timeout,
		})

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, validateFlags.timeout)
		defer cancel()

		latency, err := client.Ping(ctx, cfg.Gemini.APIKey)
		if err != nil {
			summary.UpstreamStatus = "rejected: " + err.Error()
			keyErr = err
		} else {
			summary.UpstreamStatus = fmt.Sprintf("accepted in %dms", latency.Milliseconds())
		}
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summary); err != nil {
		return err
	}

	if keyErr != nil {
		return cli.NewCommandError("validate", keyErr)
	}
	return nil
}

func summarize(cfg *config.Config) validationSummary {
	s := validationSummary{
		ConfigFile:        cfgFile,
		ListenAddress:     cfg.Proxy.ListenAddress,
		RateLimitEnabled:  cfg.Limits.RateLimitEnabled(),
		RateLimitBackend:  cfg.Limits.RateLimit.Backend,
		RequestsPerWindow: cfg.Limits.RateLimit.MaxRequests,
		Window:            cfg.Limits.RateLimit.Window.String(),
		EditModel:         cfg.Gemini.EditModel,
		GenerateModel:     cfg.Gemini.GenerateModel,
		KeySource:         secrets.APIKeySource(),
	}

	switch err := secrets.ValidateAPIKey(cfg.Gemini.APIKey); err {
	case nil:
		s.KeyStatus = "present (" + secrets.MaskAPIKey(cfg.Gemini.APIKey) + ")"
	case secrets.ErrAPIKeyMissing:
		s.KeyStatus = "missing: set " + secrets.APIKeyEnvVars[0] + " or " + secrets.APIKeyEnvVars[1]
	default:
		s.KeyStatus = "invalid format"
	}
	return s
}
