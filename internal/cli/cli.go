package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"molle_pos/internal/config"
	"molle_pos/internal/dashboard"
	"molle_pos/internal/posapi"
	"molle_pos/internal/prefs"

	"go.uber.org/zap"
)

// preferences is the slice of prefs.Store the CLI touches.
type preferences interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]string, error)
	AuthToken(ctx context.Context) (string, error)
}

type Runner struct {
	cfg       config.Config
	logger    *zap.Logger
	newClient posapi.Factory
	newLoader dashboard.Factory
	prefs     preferences
	stdout    io.Writer
	stderr    io.Writer
}

func NewRunner(
	cfg config.Config,
	logger *zap.Logger,
	clients posapi.Factory,
	loaders dashboard.Factory,
	store *prefs.Store,
) *Runner {
	return &Runner{
		cfg:       cfg,
		logger:    logger.Named("cli"),
		newClient: clients,
		newLoader: loaders,
		prefs:     store,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
}

func (r *Runner) Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return r.Run(ctx, os.Args[1:])
}

// Run parses args, executes one command and writes its result.
func (r *Runner) Run(ctx context.Context, args []string) error {
	opts, err := r.parseOptions(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cmd, ok := commands[opts.Command]
	if !ok {
		r.usage()
		return fmt.Errorf("unknown command %q", opts.Command)
	}

	inv := &invocation{
		ctx:    ctx,
		runner: r,
		opts:   opts,
		cfg:    opts.apply(r.cfg),
		args:   opts.Args,
	}
	if cmd.needsAPI {
		if err := inv.connect(); err != nil {
			return err
		}
	}

	r.logger.Info("command",
		zap.String("command", opts.Command),
		zap.Strings("args", opts.Args),
		zap.String("base_url", inv.cfg.APIBaseURL),
		zap.Bool("json", opts.JSON),
	)

	start := time.Now()
	result, err := cmd.run(inv)
	r.logger.Info("command finished",
		zap.String("command", opts.Command),
		zap.Int64("ms", time.Since(start).Milliseconds()),
		zap.Bool("ok", err == nil),
	)
	if err != nil {
		return friendlyError(err)
	}
	if result == nil {
		return nil
	}
	return r.write(opts, result)
}

func (r *Runner) parseOptions(args []string) (Options, error) {
	opts := Options{
		BaseURL: r.cfg.APIBaseURL,
		Token:   r.cfg.AuthToken,
		Timeout: r.cfg.Timeout,
		Offline: r.cfg.OfflineMode,
	}
	var timeoutSeconds int

	fs := flag.NewFlagSet("molle-pos", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	fs.Usage = r.usage

	fs.StringVar(&opts.BaseURL, "base-url", opts.BaseURL, "POS API base URL (API_BASE_URL)")
	fs.StringVar(&opts.Token, "token", opts.Token, "POS API token (AUTH_TOKEN), falls back to the saved auth_token preference")
	fs.IntVar(&timeoutSeconds, "timeout", int(opts.Timeout.Seconds()), "Timeout in seconds")
	fs.BoolVar(&opts.Offline, "offline", opts.Offline, "Keep watching when the server is unreachable (OFFLINE_MODE)")
	fs.BoolVar(&opts.JSON, "json", false, "Output JSON format")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if timeoutSeconds > 0 {
		opts.Timeout = time.Duration(timeoutSeconds) * time.Second
	}

	rest := fs.Args()
	if len(rest) == 0 {
		r.usage()
		return Options{}, errors.New("a command is required")
	}
	opts.Command = rest[0]
	opts.Args = rest[1:]
	return opts, nil
}

func (r *Runner) usage() {
	fmt.Fprintln(r.stderr, "Usage: molle-pos [flags] <command> [args]")
	fmt.Fprintln(r.stderr, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(r.stderr, "  %-20s %s\n", name, commands[name].usage)
	}
	fmt.Fprintln(r.stderr, "\nFlags:")
	fmt.Fprintln(r.stderr, "  -base-url, -token, -timeout, -offline, -json")
}

type invocation struct {
	ctx    context.Context
	runner *Runner
	opts   Options
	cfg    config.Config
	args   []string
	client *posapi.Client
}

// connect builds the API client, taking the token from the saved
// preference when neither flags nor config supplied one.
func (inv *invocation) connect() error {
	if strings.TrimSpace(inv.cfg.AuthToken) == "" && inv.runner.prefs != nil {
		token, err := inv.runner.prefs.AuthToken(inv.ctx)
		if err != nil {
			return err
		}
		inv.cfg.AuthToken = strings.TrimSpace(token)
	}
	if inv.cfg.AuthToken == "" {
		return friendlyError(posapi.ErrMissingToken)
	}
	inv.client = inv.runner.newClient(inv.cfg)
	return nil
}
