package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/service"
	"github.com/schoolcms/schoolcms/internal/store"
)

const minPasswordLength = 8

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, list and reset the passwords of the administrators who edit site content through the admin API.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminPasswdCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		password string
		name     string
		email    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  schoolcms admin create --username admin --password secret123
  schoolcms admin create --username admin --name "Site Admin"  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd.OutOrStdout(), username, password, name, email)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.MarkFlagRequired("username")

	return cmd
}

func runAdminCreate(out io.Writer, username, password, name, email string) error {
	if password == "" {
		var err error
		if password, err = promptNewPassword(); err != nil {
			return err
		}
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	if name == "" {
		name = username
	}
	admin := &model.Admin{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Email:        email,
	}
	if err := st.CreateAdmin(cmdCtx(), admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("admin %q already exists", username)
		}
		return err
	}

	fmt.Fprintf(out, "Created admin user %q (id %d)\n", admin.Username, admin.ID)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(out io.Writer, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	admins, err := st.ListAdmins(cmdCtx())
	if err != nil {
		return err
	}
	return printAdmins(out, admins, jsonOutput)
}

func printAdmins(out io.Writer, admins []model.Admin, jsonOutput bool) error {
	if jsonOutput {
		profiles := make([]model.AdminProfile, 0, len(admins))
		for i := range admins {
			profiles = append(profiles, admins[i].Profile())
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(profiles)
	}

	if len(admins) == 0 {
		fmt.Fprintln(out, "No admin users configured. Use 'schoolcms admin create' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-24s %-30s\n", "ID", "USERNAME", "NAME", "EMAIL")
	fmt.Fprintf(out, "%-6s %-20s %-24s %-30s\n", "--", "--------", "----", "-----")
	for _, a := range admins {
		fmt.Fprintf(out, "%-6d %-20s %-24s %-30s\n", a.ID, a.Username, a.Name, a.Email)
	}
	return nil
}

// ---------- admin passwd ----------

func newAdminPasswdCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Reset an admin user's password",
		Long: `Reset an administrator's password without knowing the current one.
Tokens issued before the reset stay valid until they expire.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminPasswd(cmd.OutOrStdout(), args[0], password)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")

	return cmd
}

func runAdminPasswd(out io.Writer, username, password string) error {
	if password == "" {
		var err error
		if password, err = promptNewPassword(); err != nil {
			return err
		}
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmdCtx()
	admin, err := st.FindAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("admin %q not found", username)
		}
		return err
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	if err := st.UpdateAdminPasswordHash(ctx, admin.ID, hash); err != nil {
		return err
	}
	if _, err := st.AppendActivity(ctx, model.ActivityPasswordChange,
		fmt.Sprintf("password for admin %s reset from the command line", admin.Username), nil); err != nil {
		return fmt.Errorf("password updated but the activity was not recorded: %w", err)
	}

	fmt.Fprintf(out, "Password updated for %q\n", admin.Username)
	return nil
}

// promptNewPassword reads a password and its confirmation from the terminal
// without echoing them.
func promptNewPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}
