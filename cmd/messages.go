package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/logger"
	"github.com/spigell/roomeo/internal/utils"
)

const defaultWatchInterval = 10 * time.Second

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List conversations of the seeker",
	Run: func(_ *cobra.Command, _ []string) {
		withInbox(conversations)
	},
}

var threadCmd = &cobra.Command{
	Use:   "thread <listing-id> <user-id>",
	Short: "Print the messages exchanged with a user about a listing",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		withInbox(func(ctx context.Context, in *inbox) error {
			return in.thread(ctx, args[0], args[1])
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <listing-id> <user-id> <text>...",
	Short: "Send a message to a user about a listing",
	Args:  cobra.MinimumNArgs(3),
	Run: func(_ *cobra.Command, args []string) {
		withInbox(func(ctx context.Context, in *inbox) error {
			return in.send(ctx, args[0], args[1], strings.Join(args[2:], " "))
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for new messages until interrupted",
	Run: func(cmd *cobra.Command, _ []string) {
		interval, _ := cmd.Flags().GetDuration("interval")
		withInbox(func(ctx context.Context, in *inbox) error {
			return in.watch(ctx, interval)
		})
	},
}

func init() {
	rootCmd.AddCommand(messagesCmd)
	messagesCmd.AddCommand(threadCmd, sendCmd, watchCmd)

	watchCmd.Flags().Duration("interval", defaultWatchInterval, "how often to poll for new messages")
}

// messageStore is the part of the backend client used by the messages commands.
type messageStore interface {
	Conversations(ctx context.Context, userID string) ([]*housing.Conversation, error)
	Thread(ctx context.Context, listingID, userID, otherID string) ([]*housing.Message, error)
	MessagesSince(ctx context.Context, userID, since string) ([]*housing.Message, error)
	SendMessage(ctx context.Context, msg *housing.Message) (*housing.Message, error)
}

type inbox struct {
	store  messageStore
	userID string
	logger *zap.Logger
}

func withInbox(fn func(ctx context.Context, in *inbox) error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(ctx)
	defer s.Close()

	client, err := s.remote()
	if err != nil {
		s.logger.Fatal("messages", zap.Error(err))
	}
	if s.userID == "" {
		s.logger.Fatal("messages", zap.String("reason", "seeker is unknown"), zap.String("hint", "pass --user or sign in"))
	}

	in := &inbox{store: client, userID: s.userID, logger: s.logger}
	if err := fn(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Fatal("messages", zap.Error(err))
	}
}

func conversations(ctx context.Context, in *inbox) error {
	convs, err := in.store.Conversations(ctx, in.userID)
	if err != nil {
		return err
	}

	in.logger.Info("conversations", zap.Int("count", len(convs)))
	for _, c := range convs {
		in.logger.Info(utils.TruncateForLog(c.Last.Text, 80),
			zap.String(logger.FieldListing, c.ListingID),
			zap.String("listing_title", c.ListingTitle),
			zap.String("with", utils.FirstNonEmpty(c.OtherName, c.OtherUserID)),
			zap.String("at", c.Last.CreatedAt),
		)
	}
	return nil
}

func (in *inbox) thread(ctx context.Context, listingID, otherID string) error {
	messages, err := in.store.Thread(ctx, listingID, in.userID, otherID)
	if err != nil {
		return err
	}

	for _, m := range messages {
		in.print(m)
	}
	return nil
}

func (in *inbox) send(ctx context.Context, listingID, otherID, text string) error {
	sent, err := in.store.SendMessage(ctx, &housing.Message{
		ListingID:  listingID,
		SenderID:   in.userID,
		ReceiverID: otherID,
		Text:       text,
	})
	if err != nil {
		return err
	}

	in.logger.Info("message sent", zap.String("message_id", sent.ID), zap.String(logger.FieldListing, listingID))
	return nil
}

// watch prints messages received after it started, polling every interval.
func (in *inbox) watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	since := time.Now().UTC().Format(time.RFC3339Nano)
	in.logger.Info("watching for new messages", zap.Duration("interval", interval))

	for {
		if err := utils.WaitFor(ctx, interval); err != nil {
			return err
		}

		messages, err := in.store.MessagesSince(ctx, in.userID, since)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			in.logger.Warn("polling messages failed", zap.Error(err))
			continue
		}

		for _, m := range messages {
			in.print(m)
			if m.CreatedAt > since {
				since = m.CreatedAt
			}
		}
	}
}

func (in *inbox) print(m *housing.Message) {
	direction := "received"
	if m.SenderID == in.userID {
		direction = "sent"
	}

	in.logger.Info(m.Text,
		zap.String("direction", direction),
		zap.String("from", m.SenderID),
		zap.String(logger.FieldListing, m.ListingID),
		zap.String("at", m.CreatedAt),
	)
}
