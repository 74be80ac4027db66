package chat

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/onnwee/livechat/youtubeapi"
)

// MapAction builds a ChatItem from one action. It returns false for actions
// without a recognized renderer (tickers, engagement messages) and for
// renderers missing their id or author channel id.
func MapAction(action youtubeapi.Action) (ChatItem, bool) {
	item, _, ok := mapAction(action)
	return item, ok
}

func mapAction(action youtubeapi.Action) (ChatItem, RendererKind, bool) {
	r, ok := RendererFromAction(action)
	if !ok {
		return ChatItem{}, 0, false
	}
	if r.ID() == "" || r.ChannelID() == "" {
		return ChatItem{}, r.Kind, false
	}
	name := r.AuthorName()
	item := ChatItem{
		ID: r.ID(),
		Author: Author{
			Name:      name,
			Thumbnail: firstImage(r.Thumbnails(), name),
			ChannelID: r.ChannelID(),
		},
		Message:   DecodeRuns(r.Runs()),
		SuperChat: r.SuperChat(),
		Timestamp: r.Timestamp(),
	}
	ApplyBadges(&item, r.AuthorBadges())
	return item, r.Kind, true
}

// DecodeResponse decodes a get_live_chat response. It fails with
// KindMalformedResponse when the document is not JSON or lacks
// continuationContents.liveChatContinuation or its continuations list.
func DecodeResponse(raw []byte) (*youtubeapi.LiveChatResponse, error) {
	var resp youtubeapi.LiveChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, newError(KindMalformedResponse, "decode live chat response", err)
	}
	if resp.ContinuationContents == nil || resp.ContinuationContents.LiveChatContinuation == nil {
		return nil, newError(KindMalformedResponse, "decode live chat response", errors.New("missing continuationContents.liveChatContinuation"))
	}
	if resp.ContinuationContents.LiveChatContinuation.Continuations == nil {
		return nil, newError(KindMalformedResponse, "decode live chat response", errors.New("missing continuations"))
	}
	return &resp, nil
}

// MapResponse maps every action of resp, in order, and extracts the next
// continuation. An empty continuation means the stream has no next step.
func MapResponse(resp *youtubeapi.LiveChatResponse) ([]ChatItem, string) {
	b := mapBatch(resp)
	return b.items, b.continuation
}

type batch struct {
	items        []ChatItem
	kinds        []RendererKind
	skipped      int
	continuation string
}

func mapBatch(resp *youtubeapi.LiveChatResponse) batch {
	var b batch
	if resp == nil || resp.ContinuationContents == nil || resp.ContinuationContents.LiveChatContinuation == nil {
		return b
	}
	lcc := resp.ContinuationContents.LiveChatContinuation
	for i, raw := range lcc.Actions {
		var action youtubeapi.Action
		if err := json.Unmarshal(raw, &action); err != nil {
			slog.Debug("skipping undecodable chat action", slog.Int("index", i), slog.Any("err", err))
			b.skipped++
			continue
		}
		item, kind, ok := mapAction(action)
		if !ok {
			if action.AddChatItemAction != nil {
				b.skipped++
			}
			continue
		}
		b.items = append(b.items, item)
		b.kinds = append(b.kinds, kind)
	}
	b.continuation = nextContinuation(lcc.Continuations)
	return b
}

func nextContinuation(continuations []youtubeapi.Continuation) string {
	if len(continuations) == 0 {
		return ""
	}
	c := continuations[0]
	switch {
	case c.InvalidationContinuationData != nil:
		return c.InvalidationContinuationData.Continuation
	case c.TimedContinuationData != nil:
		return c.TimedContinuationData.Continuation
	}
	return ""
}
