package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/DhruvilJayani/coursecompass/pkg/api/client"
	"github.com/DhruvilJayani/coursecompass/pkg/config"
	"github.com/DhruvilJayani/coursecompass/pkg/logger"
	"github.com/DhruvilJayani/coursecompass/pkg/session"
)

var errNotSignedIn = errors.New("not signed in, run 'compass login' first")

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg        config.ClientConfig
	logger     *slog.Logger
	api        *client.Client
	session    *session.Session
	transcript *session.Transcript
	theme      session.Theme
	in         *bufio.Reader
}

// NewRootCmd creates the root command for the compass CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "compass",
		Short: "CourseCompass terminal client",
		Long: `compass signs you in to a CourseCompass API and talks to the
academic assistant. The API address comes from COMPASS_API_URL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "version", "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
				return nil
			}
			return a.setup(cmd)
		},
	}

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newThemeCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.NewWithWriter(cmd.ErrOrStderr(), "compass", logger.ParseLevel(cfg.LogLevel))

	api, err := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}
	a.api = api

	store := session.NewFileStorage(cfg.StateFile, session.WithStorageLogger(a.logger))
	a.session = session.New(api, store, a.logger)
	if err := a.session.Hydrate(); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	a.transcript = session.NewTranscript(store)
	a.theme = session.NewTheme(store)
	a.in = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// requireSession returns the signed-in state, verifying the token with the API
// first. Network failures keep the stored session.
func (a *app) requireSession(cmd *cobra.Command) (session.State, error) {
	if !a.session.State().SignedIn() {
		return session.State{}, errNotSignedIn
	}
	if err := a.session.CheckSession(cmd.Context()); err != nil {
		if !a.session.State().SignedIn() {
			if clearErr := a.transcript.Clear(); clearErr != nil {
				a.logger.Warn("clear chat history", "error", clearErr)
			}
			return session.State{}, fmt.Errorf("%s: %w", client.ErrorMessage(err), errNotSignedIn)
		}
		a.logger.Warn("session check failed, continuing with stored session", "error", err)
	}
	return a.session.State(), nil
}

// prompt reads one line after printing label.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal.
func (a *app) promptSecret(cmd *cobra.Command, label string) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.prompt(cmd, label)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}

func displayName(state session.State) string {
	if state.User == nil {
		return ""
	}
	return state.User.Name
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(buildVersion))
		},
	}
}
