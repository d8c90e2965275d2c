// Package cli implements the interactive client: a small REPL over the
// auth server API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/tubeauth/internal/client/client"
	"github.com/dmitrijs2005/tubeauth/internal/client/config"
	"github.com/dmitrijs2005/tubeauth/internal/common"
)

// api is the part of client.Client the commands use.
type api interface {
	LoggedIn() bool
	Register(ctx context.Context, req client.RegisterRequest) (*client.User, error)
	Login(ctx context.Context, identifier, password string) (*client.User, error)
	Refresh(ctx context.Context) error
	CurrentUser(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
}

type App struct {
	api      api
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.New(c.ServerURL, c.Timeout)
	if err != nil {
		return nil, err
	}
	return &App{api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) status() string {
	if a.userName == "" || !a.isLoggedIn() {
		return "(anonymous)"
	}
	return "(" + a.userName + ")"
}

// Run prompts for a login straight away and then hands over to the REPL.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to tubeauth CLI (type 'help' for commands)")
	_ = a.Login(ctx)
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) report(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later")
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "You are not logged in")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}

func (a *App) Register(ctx context.Context) error {
	var req client.RegisterRequest
	var err error

	if req.FullName, err = GetSimpleText(a.reader, "Full name", a.out); err != nil {
		return a.report(err)
	}
	if req.Email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
		return a.report(err)
	}
	if req.UserName, err = GetSimpleText(a.reader, "User name", a.out); err != nil {
		return a.report(err)
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	u, err := a.api.Register(ctx, req)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Registered %s, you can log in now\n", u.UserName)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	identifier, err := GetSimpleText(a.reader, "User name or email", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	u, err := a.api.Login(ctx, identifier, string(password))
	if err != nil {
		return a.report(err)
	}
	a.userName = u.UserName
	fmt.Fprintf(a.out, "Logged in as %s\n", u.UserName)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.api.CurrentUser(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s <%s> %s (id %s)\n", u.UserName, u.Email, u.FullName, u.ID)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return a.report(err)
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
