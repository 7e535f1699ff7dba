package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/adapters/persistence/repositories"
	"bilet-lending/internal/config"
	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// env is an opened database plus the services built over it
type env struct {
	cfg   *config.Config
	store *repositories.GormStore
	svc   *services.Container
}

func (e *env) close() {
	e.svc.Close()
	config.CloseDatabase()
}

// open loads config, connects and migrates. Cron is never started here.
func open() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		config.CloseDatabase()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	store := repositories.NewGormStore(db)
	svc := services.NewContainer(store, services.Options{
		JWTSecret:       cfg.JWT.Secret,
		RefreshSecret:   cfg.JWT.RefreshSecret,
		TokenMinutes:    cfg.JWT.AccessTokenMins,
		RefreshDays:     cfg.JWT.RefreshTokenDays,
		LoanDays:        cfg.Lending.LoanDays,
		RenewalMax:      cfg.Lending.RenewalMax,
		RenewalDays:     cfg.Lending.RenewalDays,
		NotifyWorkers:   1,
		NotifyQueueSize: cfg.Notification.QueueSize,
	})
	return &env{cfg: cfg, store: store, svc: svc}, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin account and, optionally, a demo catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			return config.NewSeeder(e.store, e.svc.Users).Run(cmd.Context(), demo)
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "also seed a demo catalog")
	return cmd
}

func newCreateStaffCmd() *cobra.Command {
	var (
		input services.CreateUserInput
		role  string
	)

	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a library or admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if r != domain.RoleLibrary && r != domain.RoleAdmin {
				return fmt.Errorf("role must be library or admin, got %q", role)
			}
			if input.Password == "" {
				pw, err := readPassword("Password: ")
				if err != nil {
					return err
				}
				input.Password = pw
			}

			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			user, err := e.svc.Users.Bootstrap(cmd.Context(), r, input)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s account %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.Username, "username", "", "login name")
	f.StringVar(&input.FirstName, "first-name", "", "first name")
	f.StringVar(&input.LastName, "last-name", "", "last name")
	f.StringVar(&input.TicketNumber, "ticket", "", "ticket number")
	f.StringVar(&input.ContractNumber, "contract", "", "contract number")
	f.StringVar(&input.Password, "password", "", "password (prompted when empty)")
	f.StringVar(&role, "role", string(domain.RoleLibrary), "library or admin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("ticket")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}

func newRefreshStatusesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-statuses",
		Short: "Recompute the stored status of open loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			n, err := e.svc.Lending.RefreshStatuses(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d loans\n", n)
			return nil
		},
	}
}

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Notify readers whose loans fall due within a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			n, err := e.svc.Cron.SendDueReminders(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Queued %d reminders\n", n)
			return nil
		},
	}
}

func newRevokeSessionsCmd() *cobra.Command {
	var expired bool

	cmd := &cobra.Command{
		Use:   "revoke-sessions [username]",
		Short: "Revoke every refresh token of a user, or delete expired ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if expired == (len(args) == 1) {
				return fmt.Errorf("pass either a username or --expired")
			}

			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			if expired {
				n, err := e.svc.Auth.CleanupExpiredTokens(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %d expired refresh tokens\n", n)
				return nil
			}

			user, err := e.store.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := e.svc.Auth.LogoutAll(cmd.Context(), user.ID); err != nil {
				return err
			}
			fmt.Printf("Revoked all sessions of %q\n", user.Username)
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "delete expired tokens of all users instead")
	return cmd
}

func newTopBooksCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top-books",
		Short: "Print the most issued titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			rows, err := e.svc.Inventory.TopBooksByIssueCount(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Printf("%-6s %-50s %s\n", "ID", "Title", "Issues")
			fmt.Println(strings.Repeat("-", 64))
			for _, r := range rows {
				fmt.Printf("%-6d %-50s %d\n", r.BookGroupID, truncate(r.Title, 50), r.Issues)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", services.DefaultTopBooksLimit, "number of titles")
	return cmd
}

// readPassword reads a password from the terminal without echo
func readPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("no terminal to prompt for a password; use --password")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
