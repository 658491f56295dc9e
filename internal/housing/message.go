package housing

type Message struct {
	ID         string `json:"id,omitempty"`
	ListingID  string `json:"listing_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Conversation is the latest message exchanged with one user about one listing.
type Conversation struct {
	ListingID    string
	ListingTitle string
	OtherUserID  string
	OtherName    string
	Last         *Message
}

// OtherParty returns the participant of the message that is not userID.
func (m *Message) OtherParty(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// GroupConversations collapses messages into one conversation per
// (listing, other user) pair. Messages must be ordered newest first; the
// first message seen for a pair becomes its Last message.
func GroupConversations(userID string, messages []*Message) []*Conversation {
	seen := make(map[string]struct{})
	conversations := make([]*Conversation, 0)

	for _, m := range messages {
		if m == nil {
			continue
		}
		other := m.OtherParty(userID)
		key := m.ListingID + "-" + other
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		conversations = append(conversations, &Conversation{
			ListingID:   m.ListingID,
			OtherUserID: other,
			Last:        m,
		})
	}

	return conversations
}
