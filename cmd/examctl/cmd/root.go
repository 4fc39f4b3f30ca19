package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/internal/logging"
	"github.com/MrEthical07/examAuth/session"
	"github.com/MrEthical07/examAuth/transport/httpapi"
)

// envPrefix prefixes every environment override, e.g. EXAMCTL_API_URL.
const envPrefix = "EXAMCTL"

// app carries what the commands share. Tests inject transport and store.
type app struct {
	v   *viper.Viper
	out io.Writer
	in  *bufio.Reader

	transport examAuth.Transport
	store     session.Store
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	return newApp(os.Stdout, os.Stdin).rootCmd()
}

func newApp(out io.Writer, in io.Reader) *app {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &app{v: v, out: out, in: bufio.NewReader(in)}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examctl",
		Short: "ExamSphere session client",
		Long: `examctl logs in to an ExamSphere platform, keeps the session between
invocations, and runs the user-management calls the current role allows.

Every flag can also be set in the config file or as EXAMCTL_<FLAG>, e.g.
EXAMCTL_API_URL or EXAMCTL_STORE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfigFile()
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.String("api-url", "", "platform base URL; overrides origin-based resolution")
	pf.String("store", "file", "session store: file, redis or memory")
	pf.String("session-file", "", "session file for the file store (default ~/.examsphere/session.json)")
	pf.String("redis-addr", "localhost:6379", "redis address for the redis store")
	pf.String("redis-prefix", "examsphere", "key prefix for the redis store")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.Bool("audit", false, "write audit events to stderr as JSON lines")
	pf.Bool("non-interactive", false, "fail instead of prompting for missing input")
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.statusCmd(),
		a.whoamiCmd(),
		a.userCmd(),
		a.fakeBackendCmd(),
		a.demoCmd(),
	)
	return root
}

func (a *app) loadConfigFile() error {
	path := a.v.GetString("config")
	if path == "" {
		return nil
	}
	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (a *app) logger() *zap.Logger {
	return logging.NewOrNop(a.v.GetString("log-level"))
}

// sessionStore returns the configured store and a function releasing it.
func (a *app) sessionStore(ctx context.Context) (session.Store, func(), error) {
	if a.store != nil {
		return a.store, func() {}, nil
	}

	switch kind := strings.ToLower(a.v.GetString("store")); kind {
	case "", "file":
		path := a.v.GetString("session-file")
		if path == "" {
			var err error
			if path, err = session.DefaultFilePath(); err != nil {
				return nil, nil, err
			}
		}
		fs, err := session.NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: a.v.GetString("redis-addr")})
		rs := session.NewRedisStore(client, a.v.GetString("redis-prefix"), 0)
		if _, err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return rs, func() { _ = client.Close() }, nil
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want file, redis or memory)", kind)
	}
}

// newManager builds a manager restored from the configured store. The
// returned function closes the manager and the store.
func (a *app) newManager(ctx context.Context) (*examAuth.SessionManager, func(), error) {
	cfg, err := examAuth.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	if u := a.v.GetString("api-url"); u != "" {
		cfg.Identity.BaseURLOverride = u
	}
	if a.v.GetBool("audit") {
		cfg.Audit.Enabled = true
	}

	logger := a.logger()
	store, release, err := a.sessionStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	transport := a.transport
	if transport == nil {
		transport = httpapi.New("", httpapi.WithLogger(logger), httpapi.WithUserAgent("examctl"))
	}

	b := examAuth.New().
		WithConfig(cfg).
		WithTransport(transport).
		WithStore(store).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		b = b.WithAuditSink(examAuth.NewJSONWriterSink(os.Stderr))
	}

	m, err := b.Build(ctx)
	if err != nil {
		release()
		return nil, nil, err
	}
	return m, func() {
		m.Close()
		release()
		_ = logger.Sync()
	}, nil
}

// requireSession restores the session and learns its role.
func (a *app) requireSession(ctx context.Context) (*examAuth.SessionManager, func(), error) {
	m, done, err := a.newManager(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !m.IsAuthenticated() {
		done()
		return nil, nil, errors.New("not logged in; run examctl login")
	}
	if _, err := m.FetchCurrentProfile(ctx); err != nil {
		done()
		return nil, nil, err
	}
	return m, done, nil
}
