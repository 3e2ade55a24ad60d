package helpers

import (
	"regexp"
	"strings"
)

var (
	discordEmojiRegex = regexp.MustCompile(`^<?(a)?:([^<>:]+):([0-9]+)>?$`)
)

// IsDiscordEmoji returns true if text is a discord custom emoji
func IsDiscordEmoji(text string) bool {
	return discordEmojiRegex.MatchString(strings.TrimSpace(text))
}

// CanonicalEmoji brings user input into the same form discordgo's
// Emoji.MessageFormat() produces for reaction events: <:name:id>, <a:name:id>
// for custom emoji and the raw symbol for unicode emoji.
func CanonicalEmoji(text string) string {
	text = strings.TrimSpace(text)
	parts := discordEmojiRegex.FindStringSubmatch(text)
	if parts == nil {
		return text
	}
	if parts[1] != "" {
		return "<a:" + parts[2] + ":" + parts[3] + ">"
	}
	return "<:" + parts[2] + ":" + parts[3] + ">"
}

// EmojiAPIName converts an emoji into the name:id form the reaction endpoints expect.
func EmojiAPIName(text string) string {
	parts := discordEmojiRegex.FindStringSubmatch(strings.TrimSpace(text))
	if parts == nil {
		return strings.TrimSpace(text)
	}
	return parts[2] + ":" + parts[3]
}
