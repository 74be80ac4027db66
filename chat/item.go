package chat

import (
	"encoding/json"
	"time"
)

// ChatItem is one normalized chat event.
type ChatItem struct {
	ID           string        `json:"id"`
	Author       Author        `json:"author"`
	Message      []MessageItem `json:"message"`
	SuperChat    *SuperChat    `json:"superchat,omitempty"`
	IsMembership bool          `json:"is_membership"`
	IsVerified   bool          `json:"is_verified"`
	IsOwner      bool          `json:"is_owner"`
	IsModerator  bool          `json:"is_moderator"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
}

type Author struct {
	Name      *string    `json:"name,omitempty"`
	Thumbnail *ImageItem `json:"thumbnail,omitempty"`
	ChannelID string     `json:"channel_id"`
	Badge     *Badge     `json:"badge,omitempty"`
}

type ImageItem struct {
	URL string  `json:"url"`
	Alt *string `json:"alt,omitempty"`
}

// EmojiItem is an emoji run. EmojiText holds the shortcut for custom emoji
// and the emoji id otherwise; IsCustomEmoji is nil when upstream omitted it.
type EmojiItem struct {
	Image         *ImageItem `json:"image,omitempty"`
	EmojiText     *string    `json:"emoji_text,omitempty"`
	IsCustomEmoji *bool      `json:"is_custom_emoji,omitempty"`
}

type Badge struct {
	Thumbnail ImageItem `json:"thumbnail"`
	Label     string    `json:"label"`
}

// SuperChat describes a paid message or sticker. Amount is the
// pre-formatted currency text from upstream.
type SuperChat struct {
	Amount  string     `json:"amount"`
	Color   string     `json:"color"`
	Sticker *ImageItem `json:"sticker,omitempty"`
}

// MessageKind tags a MessageItem.
type MessageKind int

const (
	MessageText MessageKind = iota
	MessageEmoji
)

// MessageItem is either a text fragment or an emoji. Build it with
// TextMessage or EmojiMessage.
type MessageItem struct {
	Kind  MessageKind
	Text  string
	Emoji *EmojiItem
}

func TextMessage(text string) MessageItem { return MessageItem{Kind: MessageText, Text: text} }

func EmojiMessage(e EmojiItem) MessageItem { return MessageItem{Kind: MessageEmoji, Emoji: &e} }

// MarshalJSON renders {"type":"text","text":...} or {"type":"emoji",...}.
func (m MessageItem) MarshalJSON() ([]byte, error) {
	if m.Kind == MessageEmoji && m.Emoji != nil {
		return json.Marshal(struct {
			Type string `json:"type"`
			EmojiItem
		}{Type: "emoji", EmojiItem: *m.Emoji})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "text", Text: m.Text})
}

// PlainText concatenates text runs and emoji text, for logs.
func (c ChatItem) PlainText() string {
	var out []byte
	for _, m := range c.Message {
		switch m.Kind {
		case MessageText:
			out = append(out, m.Text...)
		case MessageEmoji:
			if m.Emoji != nil && m.Emoji.EmojiText != nil {
				out = append(out, *m.Emoji.EmojiText...)
			}
		}
	}
	return string(out)
}

func ptr[T any](v T) *T { return &v }
