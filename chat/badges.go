package chat

import "github.com/onnwee/livechat/youtubeapi"

// ApplyBadges sets role flags and the author badge on item. A badge with a
// custom thumbnail marks membership whether or not its image resolves.
// OWNER, VERIFIED and MODERATOR icons all set IsOwner (upstream behavior,
// see DESIGN.md). Flags are only ever set, never cleared.
func ApplyBadges(item *ChatItem, badges []youtubeapi.AuthorBadge) {
	for _, b := range badges {
		r := b.LiveChatAuthorBadgeRenderer
		if r.CustomThumbnail != nil {
			if img := firstImage(r.CustomThumbnail.Thumbnails, ptr(r.Tooltip)); img != nil {
				item.Author.Badge = &Badge{Thumbnail: *img, Label: r.Tooltip}
			}
			item.IsMembership = true
			continue
		}
		if r.Icon == nil {
			continue
		}
		switch r.Icon.IconType {
		case "OWNER", "VERIFIED", "MODERATOR":
			item.IsOwner = true
		}
	}
}
