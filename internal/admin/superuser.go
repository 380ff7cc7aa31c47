package admin

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/usersvc/internal/common"
	"github.com/dmitrijs2005/usersvc/internal/cryptox"
	"github.com/dmitrijs2005/usersvc/internal/server/models"
	"github.com/dmitrijs2005/usersvc/internal/server/services"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

var (
	errPasswordMismatch = errors.New("passwords do not match")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

func (c *cli) createSuperuserCommand() *cobra.Command {
	var (
		email, username, fullName string
	)

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create an account with administrative rights",
		Long:  `Creates a superuser. The password is read from the terminal without echo and asked twice.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.promptPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			in := models.UserCreate{Email: email, Username: username, Password: string(password)}
			common.WipeByteArray(password)
			if fullName != "" {
				in.FullName = &fullName
			}

			if err := validate.Struct(in); err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}

			return c.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				return c.createSuperuser(ctx, cmd.OutOrStdout(), db, in)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func (c *cli) createSuperuser(ctx context.Context, out io.Writer, db *sql.DB, in models.UserCreate) error {
	s := services.NewUserService(db, c.env.Manager, cryptox.NewBcryptHasher(c.cfg.BcryptCost), c.cfg)

	u, err := s.CreateSuperuser(ctx, in)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return fmt.Errorf("user %q or email %q is already taken", in.Username, in.Email)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Superuser %s created (id %d)\n", u.Username, u.ID)
	return nil
}

// promptPassword asks for the password twice. The returned slice should be
// wiped by the caller.
func (c *cli) promptPassword(w io.Writer) ([]byte, error) {
	fmt.Fprint(w, "Password: ")
	first, err := c.env.ReadPassword(c.env.StdinFd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(w, "Password (again): ")
	second, err := c.env.ReadPassword(c.env.StdinFd)
	fmt.Fprintln(w)
	defer common.WipeByteArray(second)
	if err != nil {
		common.WipeByteArray(first)
		return nil, fmt.Errorf("read password: %w", err)
	}

	if !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, errPasswordMismatch
	}
	return first, nil
}
