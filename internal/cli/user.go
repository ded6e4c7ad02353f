package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// hashPassword is the credential collaborator: the store only keeps the
// resulting hash.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %v", types.ErrValidation, err)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// redacted copies users without their password hashes for output.
func redacted(users ...*types.User) []types.User {
	out := make([]types.User, 0, len(users))
	for _, u := range users {
		c := *u
		c.Hash = ""
		out = append(out, c)
	}
	return out
}

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(a.userAddCmd(), a.userListCmd())
	return cmd
}

func (a *app) userAddCmd() *cobra.Command {
	var (
		u        types.User
		password string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password != "" {
				hash, err := hashPassword(password)
				if err != nil {
					return err
				}
				u.Hash = hash
			}
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := bd.CreateUser(cmd.Context(), &u); err != nil {
				return err
			}
			return a.emit(cmd, redacted(&u)[0], func(p *printer) {
				p.linef("Created user: %s", u.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&u.Email, "email", "", "email address, unique ignoring case (required)")
	f.StringVar(&u.Name, "name", "", "display name")
	f.StringVar(&u.Role, "role", types.RoleUser, "role: admin, user or guest")
	f.StringVar(&password, "password", "", "password to hash with bcrypt")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bd, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			users, err := bd.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd, redacted(users...), func(p *printer) {
				p.row("ID", "EMAIL", "NAME", "ROLE", "BINDERS")
				for _, u := range users {
					p.row(u.ID, u.Email, u.Name, u.Role, strings.Join(u.Binders, ","))
				}
			})
		},
	}
}
