package chat

import "github.com/onnwee/livechat/youtubeapi"

// DecodeRuns converts message runs into MessageItems, preserving order.
// Runs carrying neither text nor emoji are dropped.
func DecodeRuns(runs []youtubeapi.Run) []MessageItem {
	out := make([]MessageItem, 0, len(runs))
	for _, run := range runs {
		switch {
		case run.Text != nil:
			out = append(out, TextMessage(*run.Text))
		case run.Emoji != nil:
			out = append(out, EmojiMessage(decodeEmoji(run)))
		}
	}
	return out
}

func decodeEmoji(run youtubeapi.Run) EmojiItem {
	emoji := run.Emoji
	var shortcut *string
	if len(emoji.Shortcuts) > 0 {
		shortcut = ptr(emoji.Shortcuts[0])
	}
	isCustom := run.IsCustomEmoji
	if isCustom == nil {
		isCustom = emoji.IsCustomEmoji
	}
	text := ptr(emoji.EmojiID)
	if isCustom != nil && *isCustom {
		text = shortcut
	}
	return EmojiItem{
		Image:         firstImage(emoji.Image.Thumbnails, shortcut),
		EmojiText:     text,
		IsCustomEmoji: isCustom,
	}
}
