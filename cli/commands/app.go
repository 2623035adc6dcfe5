// Package commands implements the basalt command tree using Cobra.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/petal-labs/basalt/cli/config"
	"github.com/petal-labs/basalt/cli/keystore"
	"github.com/petal-labs/basalt/client"
	"github.com/petal-labs/basalt/functions"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// ClientFactory creates the project client used by API commands.
type ClientFactory func(projectURL, apiKey string, opts ...client.Option) (*client.Client, error)

// BackOffFactory returns the wait policy between invoke retries.
type BackOffFactory func() backoff.BackOff

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newKeystore KeystoreFactory
	newClient   ClientFactory
	newBackOff  BackOffFactory
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile     string
	profileName string
	projectURL  string
	jsonOutput  bool
	verbose     bool

	cfg     *config.Config
	profile config.Profile
	logger  hclog.Logger
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithClientFactory injects a project client factory dependency.
func WithClientFactory(factory ClientFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newClient = factory
		}
	}
}

// WithBackOffFactory injects the retry wait policy.
func WithBackOffFactory(factory BackOffFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newBackOff = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.LoadConfig,
		newKeystore: keystore.NewKeystore,
		newClient:   client.New,
		newBackOff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "basalt",
		Short: "Basalt - functions, storage and vectors from the command line",
		Long: `Basalt is a command-line interface for a project's edge functions,
object storage and vector indexes.

Configure a project in ~/.basalt/config.yaml or with BASALT_URL, then store
its API key with 'basalt keys set default'.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.basalt/config.yaml)")
	root.PersistentFlags().StringVar(&a.profileName, "profile", "", "named profile from the config file")
	root.PersistentFlags().StringVar(&a.projectURL, "url", "", "project URL (overrides config and "+client.URLEnvVar+")")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newInvokeCommand())
	root.AddCommand(a.newBucketsCommand())
	root.AddCommand(a.newObjectsCommand())
	root.AddCommand(a.newVectorsCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command and reports any error on stderr.
func (a *App) Execute() error {
	return a.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the root command with explicit arguments.
func (a *App) ExecuteArgs(args []string) error {
	a.root.SetArgs(args)
	err := a.root.Execute()
	if err != nil {
		return a.reportError(err)
	}
	return nil
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	a.cfg = cfg

	profile, err := cfg.Resolve(a.profileName)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	a.profile = profile

	// Flag, then profile, then environment.
	if a.projectURL == "" {
		a.projectURL = profile.ProjectURL
	}
	if a.projectURL == "" {
		a.projectURL = os.Getenv(client.URLEnvVar)
	}

	level := hclog.Warn
	if a.verbose {
		level = hclog.Debug
	}
	a.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "basalt",
		Level:  level,
		Output: a.stderr,
	})

	return nil
}

// apiClient builds the project client for API commands. Classified errors
// come back as Go errors so they map onto exit codes.
func (a *App) apiClient() (*client.Client, error) {
	if a.projectURL == "" {
		return nil, exitWithCode(ExitValidation, fmt.Errorf(
			"project URL required: use --url, set project_url in config or %s", client.URLEnvVar))
	}

	apiKey, err := a.apiKey()
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithThrowOnError(true),
		client.WithLogger(a.logger),
	}
	if a.profile.Timeout > 0 {
		opts = append(opts, client.WithTimeout(a.profile.Timeout))
	}
	if a.profile.DefaultRegion != "" {
		opts = append(opts, client.WithRegion(functions.Region(a.profile.DefaultRegion)))
	}

	c, err := a.newClient(a.projectURL, apiKey, opts...)
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}
	return c, nil
}

// apiKey prefers the environment so CI runs need no keystore.
func (a *App) apiKey() (string, error) {
	if v := os.Getenv(client.APIKeyEnvVar); v != "" {
		return v, nil
	}

	ks, err := a.newKeystore()
	if err != nil {
		return "", exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
	}

	ref := a.profile.KeyRef()
	key, err := ks.Get(ref)
	if err != nil {
		var notFound *keystore.ErrKeyNotFound
		if errors.As(err, &notFound) {
			return "", exitWithCode(ExitValidation, fmt.Errorf(
				"no API key for %s: run 'basalt keys set %s' or set %s", ref, ref, client.APIKeyEnvVar))
		}
		return "", exitWithCode(ExitValidation, fmt.Errorf("failed to get API key: %w", err))
	}
	return key, nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}
