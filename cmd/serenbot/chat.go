package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/internal/service/conversation"
)

var (
	chatLocale  string
	chatSession string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot from the terminal",
	Long: `Starts a local conversation. Type a message and press enter.
Pass --session with an id printed by an earlier run to resume it from the
configured storage backend.

Commands:
  /1, /2 ...   trigger a suggested action of the last reply
  /clear       clear the conversation history
  /export      print the session export as JSON
  /quit        leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		return runChat(cmd.Context(), a.engine, cmd.InOrStdin(), cmd.OutOrStdout(), chatSession, chatLocale)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatLocale, "locale", "l", "", "conversation locale (es, en, pt)")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to resume")
}

func runChat(ctx context.Context, engine *conversation.Engine, in io.Reader, out io.Writer, sessionID, locale string) error {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	snapshot, welcome, err := engine.Open(ctx, sessionID, locale)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %s\n", snapshot.ID)
	if welcome == nil {
		fmt.Fprintf(out, "restored %d messages\n", len(snapshot.History))
		for _, msg := range snapshot.History {
			fmt.Fprintf(out, "  %s: %s\n", msg.Sender, msg.Text)
		}
	}
	last := welcome
	printResponse(out, welcome)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		var resp *chat.Response
		switch {
		case line == "/quit":
			return nil
		case line == "/clear":
			resp, err = engine.ClearHistory(ctx, sessionID)
		case line == "/export":
			export, exportErr := engine.Export(sessionID)
			if exportErr != nil {
				return exportErr
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(export); err != nil {
				return err
			}
			continue
		case strings.HasPrefix(line, "/"):
			action, ok := pickAction(last, strings.TrimPrefix(line, "/"))
			if !ok {
				fmt.Fprintln(out, "unknown command")
				continue
			}
			resp, err = engine.Act(ctx, sessionID, action.ActionID, action.Payload, action.Label)
		default:
			resp, err = engine.Process(ctx, sessionID, line, "")
		}
		if err != nil {
			return err
		}
		last = resp
		printResponse(out, resp)
	}
}

func pickAction(resp *chat.Response, raw string) (chat.SuggestedAction, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || resp == nil || n < 1 || n > len(resp.SuggestedActions) {
		return chat.SuggestedAction{}, false
	}
	return resp.SuggestedActions[n-1], true
}

func printResponse(out io.Writer, resp *chat.Response) {
	if resp == nil {
		return
	}
	fmt.Fprintf(out, "serenbot: %s\n", resp.Text)
	for i, step := range resp.Steps {
		fmt.Fprintf(out, "  %d. %s\n", i+1, step)
	}
	for i, action := range resp.SuggestedActions {
		fmt.Fprintf(out, "  [/%d] %s\n", i+1, action.Label)
	}
}
