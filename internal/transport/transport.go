// Package transport defines the chat-transport surface the relay is built
// against. The relay core never talks to a concrete network; it sends
// through a Client and consumes inbound Messages, so the wire protocol can
// be swapped without touching admission or delivery logic.
package transport

import "strings"

// Kind is the content type of a message.
type Kind int

const (
	KindText Kind = iota
	KindPhoto
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	default:
		return "text"
	}
}

// Message is one inbound event from the transport.
type Message struct {
	ID      int64  // transport-assigned message id
	From    int64  // sender user id
	Kind    Kind
	Text    string // text body, or caption for media
	Media   string // opaque media reference, set for photo/video
	GroupID string // correlation id shared by one multi-item post, "" if none
	ReplyTo int64  // message id this replies to, 0 if none
}

// IsMedia reports whether the message carries a photo or video.
func (m *Message) IsMedia() bool {
	return m.Kind == KindPhoto || m.Kind == KindVideo
}

// IsCommand reports whether the message is a slash command.
func (m *Message) IsCommand() bool {
	return m.Kind == KindText && strings.HasPrefix(m.Text, "/")
}

// Command splits a slash command into its name and the remaining argument
// string. Returns ("", "") for non-commands.
func (m *Message) Command() (name, args string) {
	if !m.IsCommand() {
		return "", ""
	}
	rest := strings.TrimPrefix(m.Text, "/")
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		return strings.ToLower(rest[:i]), strings.TrimSpace(rest[i+1:])
	}
	return strings.ToLower(rest), ""
}

// MediaItem is one element of an outbound media batch.
type MediaItem struct {
	Kind    Kind
	Ref     string
	Caption string
}

// Client is the outbound side of the transport. Every send returns the
// transport-assigned id of the delivered message; a failed send returns an
// error the caller treats as "skip this recipient".
type Client interface {
	SendText(to int64, text string) (int64, error)
	SendPhoto(to int64, ref, caption string) (int64, error)
	SendVideo(to int64, ref, caption string) (int64, error)
	SendMediaGroup(to int64, items []MediaItem) ([]int64, error)
	DeleteMessage(chat, messageID int64) error
}
