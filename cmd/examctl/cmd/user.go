package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/permission"
)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up and manage platform users",
	}
	cmd.AddCommand(a.userInfoCmd(), a.userSearchCmd(), a.userCreateCmd(), a.userEditCmd())
	return cmd
}

func (a *app) userInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info USER_ID",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, done, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			u, err := m.GetUserInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderUsers([]examAuth.UserInfo{*u})
		},
	}
}

func (a *app) userSearchCmd() *cobra.Command {
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search users by id, name or email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, done, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			req := examAuth.SearchUserRequest{Offset: offset, Limit: limit}
			if len(args) == 1 {
				req.Query = args[0]
			}
			res, err := m.SearchUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			if len(res.Users) == 0 {
				pterm.Info.Println("No users found")
				return nil
			}
			return a.renderUsers(res.Users)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	return cmd
}

func (a *app) userCreateCmd() *cobra.Command {
	var (
		req  examAuth.CreateUserRequest
		role string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Creates a user. Owners may create any role; admins may create teachers
and students. The role defaults to student.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "" {
				if req.Role = permission.ParseRole(role); req.Role == permission.RoleUnknown {
					return fmt.Errorf("unknown role %q", role)
				}
			}

			m, done, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if req.UserID, err = a.ask(req.UserID, "User ID", "user-id"); err != nil {
				return err
			}
			if req.Password, err = a.askSecret(req.Password, "Password", "password"); err != nil {
				return err
			}

			res, err := m.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			pterm.Success.Printf("Created %s (%s)\n", res.UserID, res.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.UserID, "user-id", "", "new user's id")
	f.StringVar(&req.FullName, "full-name", "", "full name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Password, "password", "", "initial password (prompted when omitted)")
	f.StringVar(&role, "role", "", "student, teacher, admin or owner")
	f.StringVar(&req.UserAddress, "address", "", "postal address")
	f.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	f.StringVar(&req.PrimaryLanguage, "language", "", "primary language")
	return cmd
}

func (a *app) userEditCmd() *cobra.Command {
	var req examAuth.EditUserRequest
	cmd := &cobra.Command{
		Use:   "edit USER_ID",
		Short: "Change a user's editable fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, done, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			req.UserID = args[0]
			res, err := m.EditUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			pterm.Success.Printf("Updated %s\n", res.UserID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.FullName, "full-name", "", "full name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.UserAddress, "address", "", "postal address")
	f.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	f.StringVar(&req.PrimaryLanguage, "language", "", "primary language")
	return cmd
}

func (a *app) renderUsers(users []examAuth.UserInfo) error {
	rows := [][]string{{"USER ID", "NAME", "EMAIL", "ROLE", "BANNED"}}
	for _, u := range users {
		rows = append(rows, []string{u.UserID, u.FullName, u.Email, u.Role.String(), strconv.FormatBool(u.IsBanned)})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(a.out).WithData(rows).Render()
}
