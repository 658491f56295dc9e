package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/spigell/roomeo/internal/housing"
)

const (
	messagesTable       = "messages"
	conversationsSelect = "id,text,created_at,listing_id,sender_id,receiver_id," +
		"listing:listings(title)," +
		"sender:profiles!sender_id(name,university)," +
		"receiver:profiles!receiver_id(name,university)"
)

type conversationRow struct {
	housing.Message
	Listing *struct {
		Title string `json:"title"`
	} `json:"listing"`
	Sender   *housing.Profile `json:"sender"`
	Receiver *housing.Profile `json:"receiver"`
}

// Conversations returns one entry per (listing, other user) the user has
// exchanged messages with, most recent first.
func (c *Client) Conversations(ctx context.Context, userID string) ([]*housing.Conversation, error) {
	q := url.Values{}
	q.Set("select", conversationsSelect)
	q.Set("or", fmt.Sprintf("(sender_id.eq.%s,receiver_id.eq.%s)", userID, userID))
	q.Set("order", "created_at.desc")

	rows, err := c.getRows(ctx, messagesTable, q)
	if err != nil {
		return nil, fmt.Errorf("get conversations: %w", err)
	}

	var decoded []conversationRow
	if err := decodeRows(rows, &decoded); err != nil {
		return nil, err
	}

	messages := make([]*housing.Message, 0, len(decoded))
	titles := make(map[string]string)
	names := make(map[string]string)
	for i := range decoded {
		row := &decoded[i]
		msg := row.Message
		messages = append(messages, &msg)
		if row.Listing != nil {
			titles[msg.ListingID] = row.Listing.Title
		}
		if row.Sender != nil {
			names[msg.SenderID] = row.Sender.Name
		}
		if row.Receiver != nil {
			names[msg.ReceiverID] = row.Receiver.Name
		}
	}

	conversations := housing.GroupConversations(userID, messages)
	for _, conv := range conversations {
		conv.ListingTitle = titles[conv.ListingID]
		conv.OtherName = names[conv.OtherUserID]
	}
	return conversations, nil
}

// Thread returns the messages between two users about one listing, oldest first.
func (c *Client) Thread(ctx context.Context, listingID, userID, otherID string) ([]*housing.Message, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("listing_id", eq(listingID))
	q.Set("or", fmt.Sprintf("(and(sender_id.eq.%s,receiver_id.eq.%s),and(sender_id.eq.%s,receiver_id.eq.%s))",
		userID, otherID, otherID, userID))
	q.Set("order", "created_at.asc")

	return c.messages(ctx, q)
}

// MessagesSince returns messages received by the user after the timestamp,
// oldest first. An empty timestamp returns everything.
func (c *Client) MessagesSince(ctx context.Context, userID, since string) ([]*housing.Message, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("receiver_id", eq(userID))
	if since = strings.TrimSpace(since); since != "" {
		q.Set("created_at", "gt."+since)
	}
	q.Set("order", "created_at.asc")

	return c.messages(ctx, q)
}

func (c *Client) messages(ctx context.Context, q url.Values) ([]*housing.Message, error) {
	rows, err := c.getRows(ctx, messagesTable, q)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	var messages []*housing.Message
	if err := decodeRows(rows, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, msg *housing.Message) (*housing.Message, error) {
	if msg == nil {
		return nil, errors.New("message is required")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil, errors.New("message text must not be empty")
	}
	if msg.SenderID == "" || msg.ReceiverID == "" || msg.ListingID == "" {
		return nil, errors.New("listing, sender and receiver are required")
	}

	body := map[string]string{
		"id":          msg.ID,
		"listing_id":  msg.ListingID,
		"sender_id":   msg.SenderID,
		"receiver_id": msg.ReceiverID,
		"text":        strings.TrimSpace(msg.Text),
	}
	if body["id"] == "" {
		body["id"] = uuid.NewString()
	}

	rows, err := c.postRows(ctx, messagesTable, body)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	if len(rows) == 0 {
		sent := *msg
		sent.ID = body["id"]
		return &sent, nil
	}

	var sent housing.Message
	if err := decodeRows(rows[0], &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}
