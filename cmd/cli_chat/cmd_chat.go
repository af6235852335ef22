package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gradient-chat/internal/chat"
	"gradient-chat/internal/domain"
	"gradient-chat/internal/session"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat (requires login)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, _, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Sessions.Restore(ctx); err != nil {
			return describeAuthError(err)
		}
		if session.Guard(app.Sessions.Status()) != session.Render {
			return fmt.Errorf("not signed in; run `cli_chat login` first")
		}

		user := app.Sessions.Snapshot().User
		fmt.Printf("Welcome back, %s! Commands: /new /list /open N /exit\n", user.Username)
		fmt.Println("Try one of:")
		for _, s := range chat.Suggestions() {
			fmt.Printf("  - %s\n", s)
		}
		return chatLoop(ctx, bufio.NewReader(os.Stdin), os.Stdout, app.Chat)
	},
}

func chatLoop(ctx context.Context, in *bufio.Reader, out io.Writer, orch *chat.Orchestrator) error {
	for {
		fmt.Fprint(out, "You > ")
		line, err := in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "/exit":
			return nil
		case line == "/new":
			orch.StartNewChat()
			fmt.Fprintln(out, "Started a new chat.")
			continue
		case line == "/list":
			printConversations(out, orch)
			continue
		case strings.HasPrefix(line, "/open"):
			openConversation(out, orch, strings.TrimSpace(strings.TrimPrefix(line, "/open")))
			continue
		}

		orch.SetDraft(line)
		ex, err := orch.Submit(ctx)
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		reply, err := waitWithIndicator(ctx, out, ex)
		if err != nil {
			fmt.Fprintf(out, "! message not delivered: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "AI > %s\n", reply.Content)
	}
}

// waitWithIndicator imprime puntos mientras el asistente "escribe".
func waitWithIndicator(ctx context.Context, out io.Writer, ex *chat.Exchange) (domain.Message, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	fmt.Fprint(out, "AI is typing")
	for {
		select {
		case <-ex.Done():
			fmt.Fprintln(out)
			return ex.Reply(), ex.Err()
		case <-ticker.C:
			fmt.Fprint(out, ".")
		case <-ctx.Done():
			fmt.Fprintln(out)
			return domain.Message{}, ctx.Err()
		}
	}
}

func printConversations(out io.Writer, orch *chat.Orchestrator) {
	convs := orch.Conversations()
	if len(convs) == 0 {
		fmt.Fprintln(out, "No conversations yet.")
		return
	}
	active := orch.ActiveID()
	for i, c := range convs {
		marker := " "
		if c.ID == active {
			marker = "*"
		}
		fmt.Fprintf(out, "%s[%d] %s (%d messages)\n", marker, i+1, c.Title, len(c.Messages))
	}
}

func openConversation(out io.Writer, orch *chat.Orchestrator, arg string) {
	convs := orch.Conversations()
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 1 || idx > len(convs) {
		fmt.Fprintln(out, "Usage: /open N (see /list)")
		return
	}
	if !orch.SelectConversation(convs[idx-1].ID) {
		fmt.Fprintln(out, "Conversation not found.")
		return
	}
	for _, m := range orch.Transcript() {
		who := "You"
		if m.Role == domain.RoleAssistant {
			who = "AI"
		}
		fmt.Fprintf(out, "%s > %s\n", who, m.Content)
		if m.Error != "" {
			fmt.Fprintln(out, "  ! not delivered")
		}
	}
}
