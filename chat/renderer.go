package chat

import (
	"strconv"
	"time"

	"github.com/onnwee/livechat/youtubeapi"
)

// RendererKind identifies which of the four renderer payloads a Renderer wraps.
// The zero value is not a valid kind.
type RendererKind int

const (
	KindText        RendererKind = iota + 1 // liveChatTextMessageRenderer
	KindPaidMessage                         // liveChatPaidMessageRenderer
	KindMembership                          // liveChatMembershipItemRenderer
	KindPaidSticker                         // liveChatPaidStickerRenderer
)

func (k RendererKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPaidMessage:
		return "paid_message"
	case KindMembership:
		return "membership"
	case KindPaidSticker:
		return "paid_sticker"
	default:
		return "unknown"
	}
}

// Renderer is a closed variant over the four chat renderer payloads. Exactly
// the field matching Kind is set; accessors switch on Kind. The zero Renderer
// and one built from a nil payload answer every accessor with empty values.
type Renderer struct {
	Kind       RendererKind
	text       *youtubeapi.LiveChatTextMessageRenderer
	paid       *youtubeapi.LiveChatPaidMessageRenderer
	membership *youtubeapi.LiveChatMembershipItemRenderer
	sticker    *youtubeapi.LiveChatPaidStickerRenderer
}

// TextRenderer wraps a plain text message.
func TextRenderer(r *youtubeapi.LiveChatTextMessageRenderer) Renderer {
	return Renderer{Kind: KindText, text: r}
}

// PaidMessageRenderer wraps a Super Chat message.
func PaidMessageRenderer(r *youtubeapi.LiveChatPaidMessageRenderer) Renderer {
	return Renderer{Kind: KindPaidMessage, paid: r}
}

// MembershipRenderer wraps a membership join or milestone item.
func MembershipRenderer(r *youtubeapi.LiveChatMembershipItemRenderer) Renderer {
	return Renderer{Kind: KindMembership, membership: r}
}

// PaidStickerRenderer wraps a Super Sticker.
func PaidStickerRenderer(r *youtubeapi.LiveChatPaidStickerRenderer) Renderer {
	return Renderer{Kind: KindPaidSticker, sticker: r}
}

// RendererFromAction selects the first renderer present, checking text, paid
// message, membership and paid sticker in that order.
func RendererFromAction(action youtubeapi.Action) (Renderer, bool) {
	if action.AddChatItemAction == nil {
		return Renderer{}, false
	}
	item := action.AddChatItemAction.Item
	switch {
	case item.LiveChatTextMessageRenderer != nil:
		return TextRenderer(item.LiveChatTextMessageRenderer), true
	case item.LiveChatPaidMessageRenderer != nil:
		return PaidMessageRenderer(item.LiveChatPaidMessageRenderer), true
	case item.LiveChatMembershipItemRenderer != nil:
		return MembershipRenderer(item.LiveChatMembershipItemRenderer), true
	case item.LiveChatPaidStickerRenderer != nil:
		return PaidStickerRenderer(item.LiveChatPaidStickerRenderer), true
	}
	return Renderer{}, false
}

func (r Renderer) base() *youtubeapi.MessageRendererBase {
	switch {
	case r.Kind == KindText && r.text != nil:
		return &r.text.MessageRendererBase
	case r.Kind == KindPaidMessage && r.paid != nil:
		return &r.paid.MessageRendererBase
	case r.Kind == KindMembership && r.membership != nil:
		return &r.membership.MessageRendererBase
	case r.Kind == KindPaidSticker && r.sticker != nil:
		return &r.sticker.MessageRendererBase
	}
	return &youtubeapi.MessageRendererBase{}
}

// Runs returns the message runs; empty for stickers and for memberships without a header.
func (r Renderer) Runs() []youtubeapi.Run {
	switch {
	case r.Kind == KindText && r.text != nil:
		if r.text.Message != nil {
			return r.text.Message.Runs
		}
	case r.Kind == KindPaidMessage && r.paid != nil:
		if r.paid.Message != nil {
			return r.paid.Message.Runs
		}
	case r.Kind == KindMembership && r.membership != nil:
		if r.membership.HeaderSubText != nil {
			return r.membership.HeaderSubText.Runs
		}
	}
	return nil
}

// AuthorName returns the display name, or nil when the payload has none.
func (r Renderer) AuthorName() *string {
	if n := r.base().AuthorName; n != nil {
		return ptr(n.SimpleText)
	}
	return nil
}

// ID returns the chat item id.
func (r Renderer) ID() string { return r.base().ID }

// Thumbnails returns the author photo candidates; the first one is authoritative.
func (r Renderer) Thumbnails() []youtubeapi.Thumbnail { return r.base().AuthorPhoto.Thumbnails }

// ChannelID returns the author's external channel id.
func (r Renderer) ChannelID() string { return r.base().AuthorExternalChannelID }

// Timestamp parses timestampUsec (microseconds since epoch). It returns nil
// when the value is absent or not an integer.
func (r Renderer) Timestamp() *time.Time {
	usec, err := strconv.ParseInt(string(r.base().TimestampUsec), 10, 64)
	if err != nil {
		return nil
	}
	return ptr(time.UnixMicro(usec).UTC())
}

// AuthorBadges returns the raw badge renderers in wire order.
func (r Renderer) AuthorBadges() []youtubeapi.AuthorBadge { return r.base().AuthorBadges }

// SuperChat returns the paid details for paid messages and stickers, nil otherwise.
func (r Renderer) SuperChat() *SuperChat {
	switch {
	case r.Kind == KindPaidMessage && r.paid != nil:
		return &SuperChat{
			Amount: r.paid.PurchaseAmountText.SimpleText,
			Color:  wireColor(r.paid.BodyBackgroundColor),
		}
	case r.Kind == KindPaidSticker && r.sticker != nil:
		return &SuperChat{
			Amount:  r.sticker.PurchaseAmountText.SimpleText,
			Color:   wireColor(r.sticker.BackgroundColor),
			Sticker: firstImage(r.sticker.Sticker.Thumbnails, ptr(r.sticker.Sticker.Accessibility.AccessibilityData.Label)),
		}
	}
	return nil
}

// firstImage builds an ImageItem from the first thumbnail, or nil when there is none.
func firstImage(thumbnails []youtubeapi.Thumbnail, alt *string) *ImageItem {
	if len(thumbnails) == 0 {
		return nil
	}
	return &ImageItem{URL: thumbnails[0].URL, Alt: alt}
}
