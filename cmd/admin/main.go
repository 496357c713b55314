// Package main provides operator utilities for Projectarium accounts.
package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"

	"projectarium/internal/config"
	"projectarium/internal/database"
	"projectarium/internal/featureflags"
	"projectarium/internal/models"
	"projectarium/internal/repository"
	"projectarium/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd(connect, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.Connect(cfg)
}

type adminApp struct {
	connect func() (*gorm.DB, error)
	out     io.Writer

	db      *gorm.DB
	store   *repository.Store
	users   *service.UserService
	cascade *service.CascadeService
}

func (a *adminApp) open(cmd *cobra.Command, _ []string) error {
	db, err := a.connect()
	if err != nil {
		return err
	}
	a.db = db
	a.store = repository.NewStore(db)
	a.users = service.NewUserService(a.store, service.NewGraphService(a.store, nil), featureflags.NewManager(""), nil)
	a.cascade = service.NewCascadeService(a.store)
	return nil
}

func newRootCmd(connect func() (*gorm.DB, error), out io.Writer) *cobra.Command {
	a := &adminApp{connect: connect, out: out}

	root := &cobra.Command{
		Use:               "admin",
		Short:             "Manage Projectarium accounts",
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "promote <username>",
			Short: "Grant the admin role to a user",
			Args:  cobra.ExactArgs(1),
			RunE:  a.setRole(models.RoleAdmin),
		},
		&cobra.Command{
			Use:   "demote <username>",
			Short: "Revoke the admin role from a user",
			Args:  cobra.ExactArgs(1),
			RunE:  a.setRole(models.RoleUser),
		},
		&cobra.Command{
			Use:   "list-admins",
			Short: "List all admins",
			Args:  cobra.NoArgs,
			RunE:  a.listAdmins,
		},
		&cobra.Command{
			Use:   "grant-credits <username> <amount>",
			Short: "Add credits to a user's balance",
			Args:  cobra.ExactArgs(2),
			RunE:  a.grantCredits,
		},
		&cobra.Command{
			Use:   "delete-user <username>",
			Short: "Delete a user and everything they own",
			Args:  cobra.ExactArgs(1),
			RunE:  a.deleteUser,
		},
	)
	return root
}

func (a *adminApp) setRole(role models.Role) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		user, err := a.users.SetRole(cmd.Context(), args[0], role)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s (ID: %d) is now %s\n", user.Username, user.ID, user.Role)
		return nil
	}
}

func (a *adminApp) listAdmins(cmd *cobra.Command, _ []string) error {
	var admins []models.User
	if err := a.db.WithContext(cmd.Context()).Where("role = ?", models.RoleAdmin).Order("id").Find(&admins).Error; err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Fprintln(a.out, "No admins found")
		return nil
	}
	for _, u := range admins {
		fmt.Fprintf(a.out, "%d\t%s\n", u.ID, u.Username)
	}
	return nil
}

func (a *adminApp) grantCredits(cmd *cobra.Command, args []string) error {
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	ctx := cmd.Context()
	user, err := a.store.Users.GetByUsername(ctx, args[0])
	if err != nil {
		return err
	}
	// Acting as the user themselves skips the admin check meant for HTTP callers.
	user, err = a.users.AddCredits(ctx, user.ID, user.ID, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s now has %d credits\n", user.Username, user.Credits)
	return nil
}

func (a *adminApp) deleteUser(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	user, err := a.store.Users.GetByUsername(ctx, args[0])
	if err != nil {
		return err
	}
	summary, err := a.cascade.DeleteUser(ctx, user.ID, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s (ID: %d)\n", user.Username, user.ID)
	for _, step := range slices.Sorted(maps.Keys(summary.Removed)) {
		fmt.Fprintf(a.out, "  %s: %d\n", step, summary.Removed[step])
	}
	return nil
}
