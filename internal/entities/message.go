package entities

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one chat bubble. Once appended to a conversation it is never changed.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsHTML    bool   `json:"is_html"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"` // display string, e.g. "03:04 PM"
}

// AltText is the avatar label shown next to the bubble
func (m Message) AltText() string {
	if m.Sender == SenderUser {
		return "You"
	}
	return "Assistant"
}

type QuickReply struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}
