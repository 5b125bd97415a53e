package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DhruvilJayani/coursecompass/pkg/api/client"
)

type registerConfig struct {
	name     string
	email    string
	phone    string
	password string
}

func newRegisterCmd(a *app) *cobra.Command {
	cfg := &registerConfig{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a CourseCompass account",
		Long: `Create an account. Missing details are prompted for. Registration
does not sign you in; run 'compass login' afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRegister(cmd, a, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.name, "name", "", "full name")
	cmd.Flags().StringVar(&cfg.email, "email", "", "email address")
	cmd.Flags().StringVar(&cfg.phone, "phone", "", "10 digit phone number")
	cmd.Flags().StringVar(&cfg.password, "password", "", "password (prompted when omitted)")
	return cmd
}

func runRegister(cmd *cobra.Command, a *app, cfg *registerConfig) error {
	input := client.RegisterInput{
		Name:     strings.TrimSpace(cfg.name),
		Email:    strings.TrimSpace(cfg.email),
		PhoneNo:  strings.TrimSpace(cfg.phone),
		Password: cfg.password,
	}
	var err error
	if input.Name == "" {
		if input.Name, err = a.prompt(cmd, "Name"); err != nil {
			return err
		}
	}
	if input.Email == "" {
		if input.Email, err = a.prompt(cmd, "Email"); err != nil {
			return err
		}
	}
	if input.PhoneNo == "" {
		if input.PhoneNo, err = a.prompt(cmd, "Phone"); err != nil {
			return err
		}
	}
	if input.Password == "" {
		if input.Password, err = a.promptSecret(cmd, "Password"); err != nil {
			return err
		}
	}

	user, err := a.session.Register(cmd.Context(), input)
	if err != nil {
		return userError(err)
	}
	if a.session.State().SignedIn() {
		fmt.Fprintf(cmd.OutOrStdout(), "Account created. Signed in as %s.\n", user.Email)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Run 'compass login' to sign in.\n", user.Email)
	return nil
}

type loginConfig struct {
	email    string
	password string
}

func newLoginCmd(a *app) *cobra.Command {
	cfg := &loginConfig{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, a, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.email, "email", "", "email address")
	cmd.Flags().StringVar(&cfg.password, "password", "", "password (prompted when omitted)")
	return cmd
}

func runLogin(cmd *cobra.Command, a *app, cfg *loginConfig) error {
	email := strings.TrimSpace(cfg.email)
	password := cfg.password
	var err error
	if email == "" {
		if email, err = a.prompt(cmd, "Email"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = a.promptSecret(cmd, "Password"); err != nil {
			return err
		}
	}
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	user, err := a.session.Login(cmd.Context(), email, password)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome back, %s!\n", user.Name)
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session and chat history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			if err := a.transcript.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := a.requireSession(cmd)
			if err != nil {
				return err
			}
			u := state.User
			if u.ID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "id:    %s\n", u.ID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "name:  %s\nemail: %s\nphone: %s\n", u.Name, u.Email, u.PhoneNo)
			return nil
		},
	}
}

// userError keeps server messages intact and replaces transport noise.
func userError(err error) error {
	if client.IsTransportError(err) {
		return fmt.Errorf("%s (%w)", client.ErrorMessage(err), err)
	}
	return errors.New(client.ErrorMessage(err))
}
