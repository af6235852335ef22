package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gradient-chat/internal/domain"
	"gradient-chat/internal/errs"
	"gradient-chat/internal/session"
)

var (
	flagUsername string
	flagEmail    string
	flagPassword string
)

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "account email")
		c.Flags().StringVar(&flagPassword, "password", "", "account password (prompted when empty)")
	}
	registerCmd.Flags().StringVar(&flagUsername, "username", "", "display name")
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		in := bufio.NewReader(os.Stdin)
		creds := domain.Credentials{
			Username: promptIfEmpty(in, flagUsername, "Username: "),
			Email:    promptIfEmpty(in, flagEmail, "Email: "),
			Password: promptIfEmpty(in, flagPassword, "Password: "),
		}
		user, err := app.Sessions.Register(cmd.Context(), creds)
		if err != nil {
			return describeAuthError(err)
		}
		fmt.Printf("Welcome, %s!\n", user.Username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		in := bufio.NewReader(os.Stdin)
		creds := domain.Credentials{
			Email:    promptIfEmpty(in, flagEmail, "Email: "),
			Password: promptIfEmpty(in, flagPassword, "Password: "),
		}
		user, err := app.Sessions.Login(cmd.Context(), creds)
		if err != nil {
			return describeAuthError(err)
		}
		fmt.Printf("Signed in as %s\n", user.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Sessions.Restore(cmd.Context()); err != nil && !errors.Is(err, errs.ErrAuthRejected) {
			// El logout local no depende del servicio.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		app.Sessions.Logout(cmd.Context())
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Sessions.Restore(cmd.Context()); err != nil {
			return describeAuthError(err)
		}
		snap := app.Sessions.Snapshot()
		if session.Guard(snap.Status) != session.Render {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("%s <%s>\n", snap.User.Username, snap.User.Email)
		return nil
	},
}

func promptIfEmpty(in *bufio.Reader, value, prompt string) string {
	if value != "" {
		return value
	}
	fmt.Print(prompt)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func describeAuthError(err error) error {
	switch {
	case errors.Is(err, errs.ErrAuthRejected):
		return fmt.Errorf("invalid credentials or expired session")
	case errors.Is(err, errs.ErrConflict):
		return fmt.Errorf("an account with that email or username already exists")
	case errors.Is(err, errs.ErrValidation):
		return fmt.Errorf("invalid input: %w", err)
	case errors.Is(err, errs.ErrTransport):
		return fmt.Errorf("account service unavailable: %w", err)
	default:
		return err
	}
}
