package youtubeapi

import (
	"bytes"
	"encoding/json"
)

// ClientNameWeb is the innertube client name sent with every chat fetch.
const ClientNameWeb = "WEB"

// GetLiveChatBody is the POST body of the get_live_chat endpoint.
type GetLiveChatBody struct {
	Context      RequestContext `json:"context"`
	Continuation string         `json:"continuation"`
}

type RequestContext struct {
	Client RequestClient `json:"client"`
}

type RequestClient struct {
	ClientVersion string `json:"clientVersion"`
	ClientName    string `json:"clientName"`
}

// NewGetLiveChatBody builds a WEB client request for the given continuation.
func NewGetLiveChatBody(continuation, clientVersion string) GetLiveChatBody {
	return GetLiveChatBody{
		Context: RequestContext{
			Client: RequestClient{ClientVersion: clientVersion, ClientName: ClientNameWeb},
		},
		Continuation: continuation,
	}
}

// LiveChatResponse is the decoded get_live_chat response. Only the fields the
// mapper reads are declared; everything else is ignored.
type LiveChatResponse struct {
	ContinuationContents *ContinuationContents `json:"continuationContents"`
}

type ContinuationContents struct {
	LiveChatContinuation *LiveChatContinuation `json:"liveChatContinuation"`
}

// LiveChatContinuation keeps actions as raw messages so one malformed action
// can be skipped without failing the whole batch.
type LiveChatContinuation struct {
	Continuations []Continuation    `json:"continuations"`
	Actions       []json.RawMessage `json:"actions,omitempty"`
}

type Continuation struct {
	InvalidationContinuationData *ContinuationData `json:"invalidationContinuationData,omitempty"`
	TimedContinuationData        *ContinuationData `json:"timedContinuationData,omitempty"`
}

type ContinuationData struct {
	Continuation string `json:"continuation"`
	TimeoutMs    int    `json:"timeoutMs,omitempty"`
}

type Action struct {
	AddChatItemAction *AddChatItemAction `json:"addChatItemAction,omitempty"`
	// Ticker actions are recognized so they decode cleanly; they never map to an item.
	AddLiveChatTickerItemAction json.RawMessage `json:"addLiveChatTickerItemAction,omitempty"`
}

type AddChatItemAction struct {
	Item     ActionItem `json:"item"`
	ClientID string     `json:"clientId,omitempty"`
}

// ActionItem carries at most one renderer key.
type ActionItem struct {
	LiveChatTextMessageRenderer    *LiveChatTextMessageRenderer    `json:"liveChatTextMessageRenderer,omitempty"`
	LiveChatPaidMessageRenderer    *LiveChatPaidMessageRenderer    `json:"liveChatPaidMessageRenderer,omitempty"`
	LiveChatMembershipItemRenderer *LiveChatMembershipItemRenderer `json:"liveChatMembershipItemRenderer,omitempty"`
	LiveChatPaidStickerRenderer    *LiveChatPaidStickerRenderer    `json:"liveChatPaidStickerRenderer,omitempty"`
}

// MessageRendererBase is the author/id/timestamp block shared by every renderer.
// It is embedded so its fields decode from the renderer object itself.
type MessageRendererBase struct {
	AuthorName              *SimpleText   `json:"authorName,omitempty"`
	AuthorPhoto             ThumbnailList `json:"authorPhoto"`
	AuthorBadges            []AuthorBadge `json:"authorBadges,omitempty"`
	ID                      string        `json:"id"`
	TimestampUsec           NumericString `json:"timestampUsec"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
}

// NumericString decodes from either a JSON string or a bare JSON number.
// Any other JSON value decodes to "" instead of failing the enclosing object.
type NumericString string

func (s *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = NumericString(v)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*s = NumericString(data)
	default:
		*s = ""
	}
	return nil
}

type LiveChatTextMessageRenderer struct {
	MessageRendererBase
	Message *Message `json:"message,omitempty"`
}

type LiveChatPaidMessageRenderer struct {
	LiveChatTextMessageRenderer
	PurchaseAmountText    SimpleText `json:"purchaseAmountText"`
	HeaderBackgroundColor int64      `json:"headerBackgroundColor"`
	HeaderTextColor       int64      `json:"headerTextColor"`
	BodyBackgroundColor   int64      `json:"bodyBackgroundColor"`
	BodyTextColor         int64      `json:"bodyTextColor"`
	AuthorNameTextColor   int64      `json:"authorNameTextColor"`
}

type LiveChatMembershipItemRenderer struct {
	MessageRendererBase
	HeaderSubText *Message `json:"headerSubText,omitempty"`
}

type LiveChatPaidStickerRenderer struct {
	MessageRendererBase
	PurchaseAmountText       SimpleText `json:"purchaseAmountText"`
	Sticker                  Sticker    `json:"sticker"`
	MoneyChipBackgroundColor int64      `json:"moneyChipBackgroundColor"`
	MoneyChipTextColor       int64      `json:"moneyChipTextColor"`
	BackgroundColor          int64      `json:"backgroundColor"`
	AuthorNameTextColor      int64      `json:"authorNameTextColor"`
	StickerDisplayWidth      int        `json:"stickerDisplayWidth"`
	StickerDisplayHeight     int        `json:"stickerDisplayHeight"`
}

type Sticker struct {
	Thumbnails    []Thumbnail   `json:"thumbnails"`
	Accessibility Accessibility `json:"accessibility"`
}

type SimpleText struct {
	SimpleText string `json:"simpleText"`
}

type Message struct {
	Runs []Run `json:"runs"`
}

// Run is one rich-text fragment: a text run carries Text, an emoji run carries Emoji.
type Run struct {
	Text          *string `json:"text,omitempty"`
	Emoji         *Emoji  `json:"emoji,omitempty"`
	IsCustomEmoji *bool   `json:"isCustomEmoji,omitempty"`
}

type Emoji struct {
	EmojiID       string   `json:"emojiId"`
	Shortcuts     []string `json:"shortcuts,omitempty"`
	SearchTerms   []string `json:"searchTerms,omitempty"`
	IsCustomEmoji *bool    `json:"isCustomEmoji,omitempty"`
	Image         Image    `json:"image"`
}

type Image struct {
	Thumbnails    []Thumbnail   `json:"thumbnails"`
	Accessibility Accessibility `json:"accessibility"`
}

type ThumbnailList struct {
	Thumbnails []Thumbnail `json:"thumbnails"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Accessibility struct {
	AccessibilityData AccessibilityData `json:"accessibilityData"`
}

type AccessibilityData struct {
	Label string `json:"label"`
}

type AuthorBadge struct {
	LiveChatAuthorBadgeRenderer AuthorBadgeRenderer `json:"liveChatAuthorBadgeRenderer"`
}

type AuthorBadgeRenderer struct {
	CustomThumbnail *ThumbnailList `json:"customThumbnail,omitempty"`
	Icon            *Icon          `json:"icon,omitempty"`
	Tooltip         string         `json:"tooltip"`
	Accessibility   Accessibility  `json:"accessibility"`
}

type Icon struct {
	IconType string `json:"iconType"`
}
