package helpers

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var (
	snowflakeRegex   = regexp.MustCompile(`^[0-9]+$`)
	userMentionRegex = regexp.MustCompile(`^<@!?([0-9]+)>$`)
)

// SessionAuthorizer answers permission questions from the session state.
type SessionAuthorizer struct {
	Session *discordgo.Session
	OwnerID string
}

// IsBotOwner checks if $id is the configured bot owner
func (a *SessionAuthorizer) IsBotOwner(id string) bool {
	return a.OwnerID != "" && id == a.OwnerID
}

// IsGuildAdmin checks if $userID owns the guild or has the administrator permission in $channelID
func (a *SessionAuthorizer) IsGuildAdmin(guildID, channelID, userID string) bool {
	if guildID == "" {
		return false
	}

	guild, err := a.Session.State.Guild(guildID)
	if err == nil && guild.OwnerID == userID {
		return true
	}

	permissions, err := a.Session.State.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false
	}
	return permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator
}

// ParseUserID accepts a user mention (<@123>, <@!123>) or a plain user id.
func ParseUserID(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if parts := userMentionRegex.FindStringSubmatch(text); parts != nil {
		return parts[1], true
	}
	if snowflakeRegex.MatchString(text) {
		return text, true
	}
	return "", false
}

// StripMention turns <@123>, <@!123>, <@&123> and <#123> into 123
func StripMention(text string) string {
	for _, prefix := range []string{"<@!", "<@&", "<@", "<#"} {
		if len(text) > len(prefix) && text[:len(prefix)] == prefix && text[len(text)-1] == '>' {
			return text[len(prefix) : len(text)-1]
		}
	}
	return text
}

// StripMentionPrefix removes a leading user mention from text
func StripMentionPrefix(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "<@") {
		return text
	}
	end := strings.Index(text, ">")
	if end < 0 {
		return text
	}
	return text[end+1:]
}
