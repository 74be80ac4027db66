package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/onnwee/livechat/youtubeapi"
)

func TestRenderer_EmptyPayloads(t *testing.T) {
	tests := []struct {
		name string
		r    Renderer
	}{
		{"zero value", Renderer{}},
		{"nil text", TextRenderer(nil)},
		{"nil paid message", PaidMessageRenderer(nil)},
		{"nil membership", MembershipRenderer(nil)},
		{"nil paid sticker", PaidStickerRenderer(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Empty(t, tt.r.Runs())
				assert.Nil(t, tt.r.AuthorName())
				assert.Empty(t, tt.r.ID())
				assert.Empty(t, tt.r.Thumbnails())
				assert.Empty(t, tt.r.ChannelID())
				assert.Nil(t, tt.r.Timestamp())
				assert.Empty(t, tt.r.AuthorBadges())
				assert.Nil(t, tt.r.SuperChat())
			})
		})
	}
}

func TestRendererFromAction_NoRenderer(t *testing.T) {
	r, ok := RendererFromAction(youtubeapi.Action{AddChatItemAction: &youtubeapi.AddChatItemAction{}})
	assert.False(t, ok)
	assert.Equal(t, "unknown", r.Kind.String())
	assert.NotPanics(t, func() { _ = r.ID() })

	r, ok = RendererFromAction(youtubeapi.Action{})
	assert.False(t, ok)
	assert.Empty(t, r.ChannelID())
}
