package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
	"github.com/dmitrijs2005/shopkeeper/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	r := client.Registration{Email: email, Password: password}
	for _, f := range []struct {
		prompt string
		dst    **string
	}{
		{"Full name (optional)", &r.FullName},
		{"Phone (optional)", &r.Phone},
		{"Address (optional)", &r.Address},
	} {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = &v
		}
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	s, err := a.auth.Register(rctx, r)
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return err
	}

	a.userName = email
	fmt.Fprintf(a.out, "Registered, account %s\n", s.Subject)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	if _, err := a.auth.Login(rctx, email, password); err != nil {
		fmt.Fprintf(a.out, "Login failed: %v\n", err)
		return err
	}

	a.userName = email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	p, err := a.auth.WhoAmI(rctx)
	if err != nil {
		fmt.Fprintf(a.out, "whoami failed: %v\n", err)
		return err
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := p[k]
		if v == nil {
			v = "-"
		}
		fmt.Fprintf(a.out, "%-12s %v\n", k+":", v)
	}
	return nil
}

// Verify checks the given token, or the session token when none is given.
func (a *App) Verify(ctx context.Context, token string) error {
	if token == "" {
		token = a.auth.CurrentToken()
	}
	if token == "" {
		fmt.Fprintln(a.out, "No token to verify")
		return client.ErrNotLoggedIn
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	info, err := a.auth.VerifyToken(rctx, token)
	if err != nil {
		fmt.Fprintf(a.out, "Token rejected: %v\n", err)
		return err
	}

	fmt.Fprintf(a.out, "subject=%s role=%s expires=%s\n", info.Subject, info.Role, info.ExpiresAt.Format("2006-01-02 15:04:05Z07:00"))
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.auth.Logout()
	a.userName = ""
	return nil
}
