// Package cli implements the trails interactive shell.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bengaltrails/bengaltrails-go/internal/client"
)

const helpText = `commands:
  signup   create an account and sign in
  login    sign in
  whoami   show the signed-in user
  rename   change your display name
  logout   sign out
  hide     simulate the app going to the background
  show     simulate the app coming back
  help     show this list
  quit     exit (signs out if unload logout is on)`

// Shell is a line-oriented front end over an AuthContext.
type Shell struct {
	auth    *client.AuthContext
	watcher *client.AutoLogout
	in      *bufio.Reader
	out     io.Writer
}

func NewShell(auth *client.AuthContext, watcher *client.AutoLogout, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		auth:    auth,
		watcher: watcher,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// Run reconciles with the server, then reads commands until quit or EOF.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.auth.Mount(ctx); err != nil && !client.IsUnauthorized(err) {
		fmt.Fprintf(s.out, "server not reachable: %v\n", err)
	}
	s.printStatus()

	defer func() {
		s.watcher.Unload()
		s.watcher.Stop()
	}()

	for {
		cmd, err := prompt(s.in, s.out, "trails")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.ToLower(cmd) {
		case "":
		case "help", "?":
			fmt.Fprintln(s.out, helpText)
		case "signup":
			s.signup(ctx)
		case "login":
			s.login(ctx)
		case "whoami":
			s.whoami(ctx)
		case "rename":
			s.rename(ctx)
		case "logout":
			s.auth.Logout(ctx, "")
			fmt.Fprintln(s.out, "signed out")
		case "hide":
			s.watcher.Hidden()
			fmt.Fprintln(s.out, "app hidden")
		case "show":
			s.watcher.Visible()
			fmt.Fprintln(s.out, "app visible")
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(s.out, "unknown command %q, try help\n", cmd)
		}
	}
}

func (s *Shell) signup(ctx context.Context) {
	name, err := prompt(s.in, s.out, "Name")
	if err != nil {
		return
	}
	email, err := prompt(s.in, s.out, "Email")
	if err != nil {
		return
	}
	password, err := promptPassword(s.in, s.out)
	if err != nil {
		return
	}

	user, err := s.auth.Signup(ctx, name, email, password)
	if err != nil {
		fmt.Fprintf(s.out, "signup failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "welcome, %s\n", user.Name)
}

func (s *Shell) login(ctx context.Context) {
	email, err := prompt(s.in, s.out, "Email")
	if err != nil {
		return
	}
	password, err := promptPassword(s.in, s.out)
	if err != nil {
		return
	}

	user, err := s.auth.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(s.out, "login failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "welcome back, %s\n", user.Name)
}

func (s *Shell) whoami(ctx context.Context) {
	if err := s.auth.Reconcile(ctx); err != nil && !client.IsUnauthorized(err) {
		fmt.Fprintf(s.out, "could not reach server: %v\n", err)
	}
	s.printStatus()
}

func (s *Shell) rename(ctx context.Context) {
	if !s.auth.IsAuthenticated() {
		fmt.Fprintln(s.out, "not signed in")
		return
	}
	name, err := prompt(s.in, s.out, "New name")
	if err != nil {
		return
	}

	user, err := s.auth.UpdateName(ctx, name)
	if err != nil {
		fmt.Fprintf(s.out, "rename failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "name changed to %s\n", user.Name)
}

func (s *Shell) printStatus() {
	snap := s.auth.Snapshot()
	if !snap.IsAuthenticated() {
		fmt.Fprintln(s.out, "not signed in")
		return
	}
	fmt.Fprintf(s.out, "signed in as %s <%s>\n", snap.User.Name, snap.User.Email)
}
