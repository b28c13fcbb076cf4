// Package staffctl provisions support and admin accounts from the command line.
package staffctl

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/flagx"
	"github.com/dmitrijs2005/shopkeeper/internal/server/models"
	"github.com/dmitrijs2005/shopkeeper/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var ErrPasswordMismatch = errors.New("passwords do not match")

// Options are the staffctl command-line arguments.
type Options struct {
	Email    string
	Role     string
	FullName string
}

// Creator is implemented by services.CredentialService.
type Creator interface {
	CreateStaff(ctx context.Context, in services.StaffInput) (*models.Account, error)
}

// ParseArgs reads -email, -role and -name; server flags in args are ignored.
func ParseArgs(args []string) (*Options, error) {
	opts := &Options{}

	fs := flag.NewFlagSet("staffctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Email, "email", "", "staff email")
	fs.StringVar(&opts.Role, "role", models.RoleSupport, "staff role: support or admin")
	fs.StringVar(&opts.FullName, "name", "", "full name (optional)")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "-role", "-name", "--email", "--role", "--name"})); err != nil {
		return nil, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return nil, fmt.Errorf("%w: -email is required", common.ErrValidation)
	}
	if !models.IsStaffRole(opts.Role) {
		return nil, fmt.Errorf("%w: -role must be %q or %q", common.ErrValidation, models.RoleSupport, models.RoleAdmin)
	}

	return opts, nil
}

// GetPassword reads the password twice without echo. The caller wipes the result.
func GetPassword(w io.Writer, fd int) ([]byte, error) {
	fmt.Fprint(w, "Enter password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(w, "Repeat password: ")
	again, err := readPassword(fd)
	fmt.Fprintln(w)
	defer common.WipeByteArray(again)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}

	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, ErrPasswordMismatch
	}

	return pw, nil
}

// Run prompts for the password and creates the account.
func Run(ctx context.Context, c Creator, opts *Options, w io.Writer) error {
	pw, err := GetPassword(w, int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	in := services.StaffInput{
		Email:    opts.Email,
		Password: string(pw),
		Role:     opts.Role,
	}
	if opts.FullName != "" {
		name := opts.FullName
		in.FullName = &name
	}

	acc, err := c.CreateStaff(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Created %s account %s\n", acc.StaffRole, acc.ID)
	return nil
}
