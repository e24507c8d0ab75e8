package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/config"
	"pixelwerk.nl/backoffice/internal/db/postgres"
	"pixelwerk.nl/backoffice/internal/features/users"
	"pixelwerk.nl/backoffice/internal/passwords"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Operator commands for the back-office",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newHashPasswordCmd(), newCreateAdminCmd(), newMigrateCmd())
	return root
}

func newHashPasswordCmd() *cobra.Command {
	var useArgon bool
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a password hash (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := hashPassword(password, useArgon)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useArgon, "argon2id", false, "produce a legacy Argon2id hash instead of bcrypt")
	return cmd
}

// adminFlags are the inputs of create-admin.
type adminFlags struct {
	email        string
	name         string
	role         string
	capabilities []string
	password     string
}

func (f adminFlags) input() users.CreateInput {
	caps := make([]string, 0, len(f.capabilities))
	for _, c := range f.capabilities {
		if c = strings.TrimSpace(c); c != "" {
			caps = append(caps, c)
		}
	}
	sort.Strings(caps)
	return users.CreateInput{
		Email:        strings.TrimSpace(f.email),
		FullName:     strings.TrimSpace(f.name),
		Password:     f.password,
		Role:         f.role,
		Capabilities: caps,
	}
}

func newCreateAdminCmd() *cobra.Command {
	var f adminFlags
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account directly in the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.password == "" {
				p, err := passwordFrom(nil, cmd.InOrStdin())
				if err != nil {
					return err
				}
				f.password = p
			}
			in := f.input()
			if err := validateInput(&in); err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}

			svc := users.NewService(users.NewRepository(pool), nil)
			acc, err := svc.Create(ctx, operator(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account aangemaakt: %s (%s, %s)\n", acc.Email, acc.Role, acc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&f.name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&f.role, "role", "admin", "admin or superadmin")
	cmd.Flags().StringSliceVar(&f.capabilities, "capabilities", nil, "comma separated: leads,customers,analytics,users")
	cmd.Flags().StringVar(&f.password, "password", "", "password; read from stdin when empty")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Info("Migrations up to date")
			return nil
		},
	}
}

func hashPassword(password string, argon bool) (string, error) {
	if argon {
		return passwords.HashArgon2id(password)
	}
	return passwords.Hash(password)
}

// passwordFrom takes the first argument or else the first line of r.
func passwordFrom(args []string, r io.Reader) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("wachtwoord lezen: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("geen wachtwoord opgegeven")
	}
	return line, nil
}

func validateInput(in *users.CreateInput) error {
	apiErr := common.Validate(in)
	if apiErr == nil {
		return nil
	}
	keys := make([]string, 0, len(apiErr.Details))
	for k := range apiErr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+apiErr.Details[k])
	}
	return fmt.Errorf("%s: %s", apiErr.Message, strings.Join(parts, "; "))
}

// operator is the actor recorded for accounts created from the shell.
func operator() *access.Principal {
	return &access.Principal{UserID: "adminctl", Email: "adminctl", Role: access.RoleSuperAdmin}
}
