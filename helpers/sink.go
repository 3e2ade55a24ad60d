package helpers

import (
	"github.com/bwmarrin/discordgo"
)

// ActionSink is everything the bot is allowed to do on discord on behalf of
// its engines. Every method returns errors classified with
// ClassifyDiscordError so engines can branch on ErrorKind.
type ActionSink interface {
	SendMessage(channelID, content string) (messageID string, err error)
	SendReply(channelID, replyToMessageID, content string) error
	SendDirectMessage(userID, content string) error
	AddReaction(channelID, messageID, emoji string) error
	DeleteMessage(channelID, messageID string) error
	GrantRole(guildID, userID, roleID string) error
	RevokeRole(guildID, userID, roleID string) error
}

// SessionSink implements ActionSink on top of a discordgo session.
type SessionSink struct {
	Session *discordgo.Session
}

func NewSessionSink(session *discordgo.Session) *SessionSink {
	return &SessionSink{Session: session}
}

func (s *SessionSink) SendMessage(channelID, content string) (string, error) {
	message, err := s.Session.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", ClassifyDiscordError("send message", err)
	}
	return message.ID, nil
}

func (s *SessionSink) SendReply(channelID, replyToMessageID, content string) error {
	_, err := s.Session.ChannelMessageSendReply(channelID, content, &discordgo.MessageReference{
		MessageID: replyToMessageID,
		ChannelID: channelID,
	})
	return ClassifyDiscordError("send reply", err)
}

func (s *SessionSink) SendDirectMessage(userID, content string) error {
	channel, err := s.Session.UserChannelCreate(userID)
	if err != nil {
		return ClassifyDiscordError("open dm channel", err)
	}
	_, err = s.Session.ChannelMessageSend(channel.ID, content)
	return ClassifyDiscordError("send dm", err)
}

func (s *SessionSink) AddReaction(channelID, messageID, emoji string) error {
	return ClassifyDiscordError("add reaction",
		s.Session.MessageReactionAdd(channelID, messageID, EmojiAPIName(emoji)))
}

func (s *SessionSink) DeleteMessage(channelID, messageID string) error {
	return ClassifyDiscordError("delete message", s.Session.ChannelMessageDelete(channelID, messageID))
}

func (s *SessionSink) GrantRole(guildID, userID, roleID string) error {
	return ClassifyDiscordError("grant role", s.Session.GuildMemberRoleAdd(guildID, userID, roleID))
}

func (s *SessionSink) RevokeRole(guildID, userID, roleID string) error {
	return ClassifyDiscordError("revoke role", s.Session.GuildMemberRoleRemove(guildID, userID, roleID))
}
