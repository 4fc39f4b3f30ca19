package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	examAuth "github.com/MrEthical07/examAuth"
)

func (a *app) loginCmd() *cobra.Command {
	var (
		userID     string
		password   string
		answer     string
		captchaOut string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to ExamSphere",
		Long: `Requests a captcha, writes its image to --captcha-out and asks for the
answer, then logs in with the user id and password. Missing values are
prompted for unless --non-interactive is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, done, err := a.newManager(ctx)
			if err != nil {
				return err
			}
			defer done()

			if m.IsAuthenticated() {
				pterm.Warning.Println("Replacing the current session")
			}

			ch, err := m.RequestCaptcha(ctx)
			if err != nil {
				return fmt.Errorf("captcha: %w", err)
			}
			if err := writeCaptcha(captchaOut, ch.Image); err != nil {
				return err
			}
			pterm.Info.Printf("Captcha image written to %s\n", captchaOut)

			if userID, err = a.ask(userID, "User ID", "user"); err != nil {
				return err
			}
			if answer, err = a.ask(answer, "Captcha answer", "captcha-answer"); err != nil {
				return err
			}
			if password, err = a.askSecret(password, "Password", "password"); err != nil {
				return err
			}

			res, err := m.Login(ctx, examAuth.LoginRequest{
				UserID:        userID,
				Password:      password,
				CaptchaID:     ch.ID,
				CaptchaAnswer: answer,
			})
			if err != nil {
				return err
			}
			pterm.Success.Printf("Logged in as %s (%s)\n", res.FullName, res.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted without echo when omitted)")
	cmd.Flags().StringVar(&answer, "captcha-answer", "", "captcha answer")
	cmd.Flags().StringVar(&captchaOut, "captcha-out", filepath.Join(os.TempDir(), "examsphere-captcha.png"), "where to write the captcha image")
	return cmd
}

// writeCaptcha decodes a base64 image, with or without a data: URL prefix.
func writeCaptcha(path, image string) error {
	if i := strings.Index(image, ";base64,"); i >= 0 && strings.HasPrefix(image, "data:") {
		image = image[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		data = []byte(image)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write captcha image: %w", err)
	}
	return nil
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, done, err := a.newManager(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if err := m.Logout(cmd.Context()); err != nil {
				return err
			}
			pterm.Success.Println("Logged out")
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, done, err := a.newManager(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			pterm.DefaultSection.WithWriter(a.out).Println("Session")
			rows := [][]string{
				{"FIELD", "VALUE"},
				{"State", m.State().String()},
				{"Base URL", m.Identity().BasePath()},
				{"Correlation ID", m.Identity().CorrelationID()},
			}
			if exp, ok := m.AccessTokenExpiry(); ok {
				state := "valid"
				if time.Now().After(exp) {
					state = "expired, refreshed on next call"
				}
				rows = append(rows, []string{"Access token expires", fmt.Sprintf("%s (%s)", exp.Local().Format(time.RFC1123), state)})
			}
			return pterm.DefaultTable.WithHasHeader().WithWriter(a.out).WithData(rows).Render()
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the current user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, done, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			p := m.Profile()
			rows := [][]string{
				{"FIELD", "VALUE"},
				{"User ID", p.UserID},
				{"Name", p.FullName},
				{"Email", p.Email},
				{"Role", p.Role.String()},
				{"Language", p.PrimaryLanguage},
			}
			return pterm.DefaultTable.WithHasHeader().WithWriter(a.out).WithData(rows).Render()
		},
	}
}
