package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/internal/fakebackend"
	"github.com/MrEthical07/examAuth/metrics/export/internaldefs"
	"github.com/MrEthical07/examAuth/permission"
	"github.com/MrEthical07/examAuth/session"
	"github.com/MrEthical07/examAuth/transport/httpapi"
)

func (a *app) fakeBackendCmd() *cobra.Command {
	var (
		listen    string
		accessTTL time.Duration
	)
	cmd := &cobra.Command{
		Use:   "fake-backend",
		Short: "Serve an in-memory ExamSphere platform for local testing",
		Long: `Serves the platform's captcha, login, reAuth and user endpoints from
memory, seeded with one demo user per role. Point examctl at it with
--api-url http://localhost:8080.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := fakebackend.New(fakebackend.Options{AccessTTL: accessTTL, Logger: a.logger()})
			if err != nil {
				return err
			}
			backend.Seed()

			rows := [][]string{{"USER ID", "PASSWORD", "ROLE"}}
			for _, u := range fakebackend.DemoUsers {
				rows = append(rows, []string{u.UserID, u.Password, u.Role.String()})
			}
			pterm.DefaultSection.WithWriter(a.out).Println("Demo users")
			if err := pterm.DefaultTable.WithHasHeader().WithWriter(a.out).WithData(rows).Render(); err != nil {
				return err
			}
			pterm.Info.Printf("Listening on %s (access tokens live %s)\n", listen, accessTTL)

			errc := make(chan error, 1)
			go func() { errc <- backend.App().Listen(listen) }()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return backend.App().ShutdownWithContext(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8080", "listen address")
	cmd.Flags().DurationVar(&accessTTL, "access-ttl", 15*time.Minute, "access token lifetime")
	return cmd
}

func (a *app) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through login, refresh, user management and logout against an in-process platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDemo(cmd.Context())
		},
	}
}

func (a *app) runDemo(ctx context.Context) error {
	backend, err := fakebackend.New(fakebackend.Options{AccessTTL: time.Minute})
	if err != nil {
		return err
	}
	backend.Seed()

	cfg := examAuth.DefaultConfig()
	cfg.Identity.BaseURLOverride = "http://examsphere.fake"
	cfg.Metrics.EnableLatencyHistograms = true
	m, err := examAuth.New().
		WithConfig(cfg).
		WithTransport(httpapi.New("", httpapi.WithHTTPClient(backend.HTTPClient()))).
		WithStore(session.NewMemoryStore()).
		WithLogger(a.logger()).
		Build(ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	step := func(format string, args ...any) {
		pterm.Info.WithWriter(a.out).Printfln(format, args...)
	}

	ch, err := m.RequestCaptcha(ctx)
	if err != nil {
		return err
	}
	answer, _ := backend.CaptchaAnswer(ch.ID)
	step("captcha %s issued for client %s", ch.ID, m.Identity().CorrelationID())

	res, err := m.Login(ctx, examAuth.LoginRequest{UserID: "admin", Password: "admin-pass", CaptchaAnswer: answer})
	if err != nil {
		return err
	}
	step("logged in as %s (%s)", res.FullName, res.Role)

	backend.Advance(2 * time.Minute)
	if _, err := m.FetchCurrentProfile(ctx); err != nil {
		return err
	}
	step("access token expired; profile fetched after %d refresh", backend.Calls(fakebackend.EndpointReAuth))

	_, err = m.CreateUser(ctx, examAuth.CreateUserRequest{UserID: "demo-owner", Password: "pw", Role: permission.RoleOwner})
	if !errors.Is(err, examAuth.ErrPermissionDenied) {
		return fmt.Errorf("expected owner creation to be refused, got %v", err)
	}
	step("creating an owner refused locally: %v", err)

	created, err := m.CreateUser(ctx, examAuth.CreateUserRequest{UserID: "demo-student", FullName: "Demo Student", Password: "pw"})
	if err != nil {
		return err
	}
	step("created %s as %s", created.UserID, created.Role)

	if err := m.Logout(ctx); err != nil {
		return err
	}
	step("logged out; state %s", m.State())

	snapshot := m.MetricsSnapshot()
	rows := [][]string{{"METRIC", "VALUE"}}
	for _, def := range internaldefs.CounterDefs {
		if v := snapshot.Counters[def.ID]; v > 0 {
			rows = append(rows, []string{def.Name, fmt.Sprint(v)})
		}
	}
	pterm.DefaultSection.WithWriter(a.out).Println("Metrics")
	return pterm.DefaultTable.WithHasHeader().WithWriter(a.out).WithData(rows).Render()
}
