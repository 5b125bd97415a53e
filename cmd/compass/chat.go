package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DhruvilJayani/coursecompass/pkg/api/client"
	"github.com/DhruvilJayani/coursecompass/pkg/session"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the academic assistant",
		Long: `Send a single message, or start an interactive conversation when no
message is given. Type "exit" or send EOF to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.requireSession(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				return a.send(cmd, state, strings.Join(args, " "))
			}
			return a.chatLoop(cmd, state)
		},
	}
}

func (a *app) chatLoop(cmd *cobra.Command, state session.State) error {
	msgs, err := a.transcript.Load(displayName(state))
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		printMessage(cmd, msgs[len(msgs)-1])
	}
	for {
		fmt.Fprint(cmd.OutOrStdout(), "you> ")
		line, err := a.in.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "exit" || text == "quit" {
			return nil
		}
		if text != "" {
			if sendErr := a.send(cmd, state, text); sendErr != nil {
				return sendErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			return err
		}
		if cmd.Context().Err() != nil {
			return nil
		}
	}
}

// send records message, relays it and records the reply. Unreachable APIs
// produce the offline reply; a rejected token ends the session.
func (a *app) send(cmd *cobra.Command, state session.State, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("message is required")
	}
	name := displayName(state)
	if _, err := a.transcript.Append(name, session.Message{Role: session.RoleUser, Content: message}); err != nil {
		return err
	}

	reply, err := a.api.Chat(cmd.Context(), state.Token, message)
	text := reply.Message
	switch {
	case err == nil:
	case client.IsAuthError(err):
		if logoutErr := a.session.Logout(); logoutErr != nil {
			a.logger.Warn("logout after rejected token", "error", logoutErr)
		}
		if clearErr := a.transcript.Clear(); clearErr != nil {
			a.logger.Warn("clear chat history", "error", clearErr)
		}
		return fmt.Errorf("%s: %w", client.ErrorMessage(err), errNotSignedIn)
	case client.IsTransportError(err):
		a.logger.Warn("chat request failed", "error", err)
		text = session.OfflineReply
	default:
		text = client.ErrorMessage(err)
	}

	msg := session.Message{Role: session.RoleBot, Content: text}
	if reply.FromKnowledgeBase && reply.Source != nil && *reply.Source != "" {
		msg.Content = fmt.Sprintf("%s\n(source: %s)", text, *reply.Source)
	}
	msgs, err := a.transcript.Append(name, msg)
	if err != nil {
		return err
	}
	printMessage(cmd, msgs[len(msgs)-1])
	return nil
}

type historyConfig struct {
	reset bool
}

func newHistoryCmd(a *app) *cobra.Command {
	cfg := &historyConfig{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the stored chat transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := displayName(a.session.State())
			var (
				msgs []session.Message
				err  error
			)
			if cfg.reset {
				msgs, err = a.transcript.Reset(name)
			} else {
				msgs, err = a.transcript.Load(name)
			}
			if err != nil {
				return err
			}
			for _, m := range msgs {
				printMessage(cmd, m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.reset, "reset", false, "start a new conversation")
	return cmd
}

func printMessage(cmd *cobra.Command, m session.Message) {
	who := "you"
	if m.Role == session.RoleBot {
		who = "compass"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s> %s\n", m.Timestamp.Local().Format(time.Kitchen), who, m.Content)
}
