package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danismanim/danismanim-backend/internal/chatclient"
	"github.com/danismanim/danismanim-backend/internal/domain"
)

var (
	chatAPI          string
	chatRole         string
	chatName         string
	chatEmail        string
	chatToken        string
	chatConversation string
	chatSessionFile  string
	chatInterval     time.Duration
	chatWatch        bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join a live chat from the terminal",
	Long: `Joins a conversation as a visitor or as an admin and polls for new messages.
Lines typed on stdin are sent; "/end" ends the conversation.

A visitor resumes the conversation saved in --session-file when it is less
than a day old. An admin without --conversation gets the conversation list,
refreshed every five seconds with --watch.`,
	RunE: runChat,
}

func init() {
	home, _ := os.UserHomeDir()
	f := chatCmd.Flags()
	f.StringVar(&chatAPI, "api", "http://localhost:8080/api/v1", "API base URL")
	f.StringVar(&chatRole, "role", domain.SenderVisitor, "visitor or admin")
	f.StringVar(&chatName, "name", "", "display name")
	f.StringVar(&chatEmail, "email", "", "visitor email (optional)")
	f.StringVar(&chatToken, "token", os.Getenv("DANISMANIM_TOKEN"), "admin bearer token")
	f.StringVar(&chatConversation, "conversation", "", "conversation id")
	f.StringVar(&chatSessionFile, "session-file", filepath.Join(home, ".danismanim", "chat-session.json"), "visitor session file")
	f.DurationVar(&chatInterval, "interval", chatclient.DefaultPollInterval, "poll interval")
	f.BoolVar(&chatWatch, "watch", false, "admin: keep refreshing the conversation list")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if !domain.ValidSender(chatRole) {
		return fmt.Errorf("--role must be visitor or admin, got %q", chatRole)
	}
	if chatRole == domain.SenderAdmin && chatToken == "" {
		return errors.New("admin chat needs --token (or DANISMANIM_TOKEN)")
	}
	client := chatclient.New(chatclient.Config{BaseURL: chatAPI, Token: chatToken})

	convID := chatConversation
	var sessions *chatclient.SessionStore
	switch chatRole {
	case domain.SenderVisitor:
		sessions = chatclient.NewSessionStore(chatSessionFile)
		id, err := visitorConversation(ctx, client, sessions)
		if err != nil {
			return err
		}
		convID = id
	case domain.SenderAdmin:
		if convID == "" && chatWatch {
			err := client.WatchConversations(ctx, chatclient.DefaultInboxInterval, log.Logger, func(cs []domain.Conversation) {
				fmt.Fprintf(out, "--- %s\n", time.Now().Format("15:04:05"))
				printConversations(out, cs)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if convID == "" {
			cs, err := client.ListConversations(ctx)
			if err != nil {
				return err
			}
			printConversations(out, cs)
			return nil
		}
	}

	name := chatName
	if name == "" {
		name = map[string]string{domain.SenderVisitor: "Ziyaretçi", domain.SenderAdmin: "Danışman"}[chatRole]
	}
	fmt.Fprintf(out, "joined %s as %s; type /end to finish\n", convID, chatRole)

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := chatclient.NewPoller(client, convID, chatRole, chatclient.PollerOptions{
		Interval: chatInterval,
		Logger:   log.Logger,
		OnMessages: func(ms []domain.Message) {
			for _, m := range ms {
				if m.Sender == chatRole {
					continue
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), m.SenderName, m.Message)
			}
		},
		OnEnded: func() {
			fmt.Fprintln(out, "the conversation was ended by the other party")
			if sessions != nil {
				_ = sessions.Clear()
			}
		},
	})

	lines := make(chan string)
	go readLines(pctx, cmd.InOrStdin(), lines)

	done := make(chan error, 1)
	go func() { done <- poller.Run(pctx) }()

	for {
		select {
		case err := <-done:
			log.Debug().Int64("skipped_ticks", poller.Skipped()).Str("cursor", poller.Cursor().Format(time.RFC3339Nano)).Msg("poller stopped")
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				lines = nil
				cancel()
				continue
			}
			if line == "/end" {
				if err := client.EndConversation(ctx, convID, chatRole); err != nil && !errors.Is(err, chatclient.ErrConversationGone) {
					return err
				}
				if sessions != nil {
					_ = sessions.Clear()
				}
				fmt.Fprintln(out, "conversation ended")
				return nil
			}
			if _, err := client.SendMessage(ctx, chatclient.Outgoing{
				ConversationID: convID,
				Sender:         chatRole,
				SenderName:     name,
				Message:        line,
			}); err != nil {
				log.Warn().Err(err).Msg("send failed")
			}
		}
	}
}

// visitorConversation resumes a saved conversation that still exists, or
// opens a new one and saves it.
func visitorConversation(ctx context.Context, c *chatclient.Client, sessions *chatclient.SessionStore) (string, error) {
	if chatConversation != "" {
		return chatConversation, nil
	}
	if sess, err := sessions.Load(); err != nil {
		log.Warn().Err(err).Msg("session file unreadable")
	} else if sess != nil {
		if _, _, err := c.GetConversation(ctx, sess.ConversationID); err == nil {
			if chatName == "" {
				chatName = sess.VisitorName
			}
			return sess.ConversationID, nil
		}
		_ = sessions.Clear()
	}

	if strings.TrimSpace(chatName) == "" {
		return "", errors.New("--name is required to start a conversation")
	}
	conv, err := c.CreateConversation(ctx, chatclient.NewVisitor{VisitorName: chatName, VisitorEmail: chatEmail})
	if err != nil {
		return "", err
	}
	if err := sessions.Save(chatclient.Session{ConversationID: conv.ID, VisitorName: chatName, VisitorEmail: chatEmail}); err != nil {
		log.Warn().Err(err).Msg("session not saved")
	}
	return conv.ID, nil
}

func printConversations(out io.Writer, convs []domain.Conversation) {
	if len(convs) == 0 {
		fmt.Fprintln(out, "no conversations")
		return
	}
	for _, cv := range convs {
		fmt.Fprintf(out, "%s  %-6s  unread=%-3d  %s  %q\n", cv.ID, cv.Status, cv.UnreadCount, cv.VisitorName, cv.LastMessage)
	}
}

// readLines sends non-blank trimmed lines of r to out until r is exhausted
// or ctx ends. A line read after ctx ended is dropped.
func readLines(ctx context.Context, r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case out <- line:
		case <-ctx.Done():
			return
		}
	}
}
