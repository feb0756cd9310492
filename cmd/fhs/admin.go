package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/farmily/fhs/repositories"
	"github.com/farmily/fhs/repositories/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFactory(cmd.Context(), func(ctx context.Context, factory *postgres.RepositoryFactory, _ *zap.Logger) error {
				applied, err := factory.Migrate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
				return nil
			})
		},
	}
}

func setRolesCmd() *cobra.Command {
	var clearRoles, noRoles bool

	cmd := &cobra.Command{
		Use:   "set-roles <username> [role...]",
		Short: "Replace the stored roles of a user",
		Long: `Replace the stored roles of a user.

Roles are stored exactly as given. Two flags cover the special cases:

  --clear  remove role data, so the user gets the default AUTHENTICATED role
  --none   store an empty role list, so the user holds no role at all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := rolesFromArgs(args[1:], clearRoles, noRoles)
			if err != nil {
				return err
			}
			return withFactory(cmd.Context(), func(ctx context.Context, factory *postgres.RepositoryFactory, _ *zap.Logger) error {
				return setRoles(ctx, factory.NewRepositories().Users, args[0], roles, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().BoolVar(&clearRoles, "clear", false, "Remove role data so defaults apply")
	cmd.Flags().BoolVar(&noRoles, "none", false, "Store an explicit empty role list")
	cmd.MarkFlagsMutuallyExclusive("clear", "none")

	return cmd
}

// rolesFromArgs turns the command line into the value stored in the roles
// column: nil for --clear, an empty slice for --none, else the names given.
func rolesFromArgs(names []string, clearRoles, noRoles bool) ([]string, error) {
	switch {
	case clearRoles || noRoles:
		if len(names) > 0 {
			return nil, errors.New("role names cannot be combined with --clear or --none")
		}
		if clearRoles {
			return nil, nil
		}
		return []string{}, nil
	case len(names) == 0:
		return nil, errors.New("give at least one role, or --clear or --none")
	}

	roles := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("role names cannot be blank")
		}
		roles = append(roles, name)
	}
	return roles, nil
}

func setRoles(ctx context.Context, users repositories.UserRepository, username string, roles []string, out io.Writer) error {
	if err := users.UpdateRoles(ctx, username, roles); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return err
	}

	switch {
	case roles == nil:
		fmt.Fprintf(out, "%s: role data cleared\n", username)
	case len(roles) == 0:
		fmt.Fprintf(out, "%s: no roles\n", username)
	default:
		fmt.Fprintf(out, "%s: %s\n", username, strings.Join(roles, ", "))
	}
	return nil
}

// withFactory opens the database from the environment, runs fn and closes it.
func withFactory(ctx context.Context, fn func(context.Context, *postgres.RepositoryFactory, *zap.Logger) error) error {
	cfg, logger, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = factory.Close() }()

	return fn(ctx, factory, logger)
}
