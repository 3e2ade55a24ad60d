package modules

import (
	"strings"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/bwmarrin/discordgo"
)

// Command is one parsed, prefix-triggered invocation.
type Command struct {
	Name    string
	Content string   // everything after the command name, trimmed, quotes kept
	Args    []string // quoted arguments arrive without their quotes

	GuildID   string
	ChannelID string
	AuthorID  string

	Message *discordgo.Message
	Session *discordgo.Session
}

// ParseCommand splits content into a command if it starts with prefix.
func ParseCommand(prefix string, msg *discordgo.Message) (*Command, bool) {
	if prefix == "" || msg == nil || msg.Author == nil || !strings.HasPrefix(msg.Content, prefix) {
		return nil, false
	}

	rest := strings.TrimPrefix(msg.Content, prefix)
	arguments := helpers.ScanArguments(rest)
	if len(arguments) == 0 {
		return nil, false
	}
	name := strings.ToLower(arguments[0].Value)

	args := make([]string, 0, len(arguments)-1)
	for _, argument := range arguments[1:] {
		args = append(args, argument.Value)
	}

	return &Command{
		Name:      name,
		Content:   helpers.SkipArguments(rest, 1),
		Args:      args,
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		AuthorID:  msg.Author.ID,
		Message:   msg,
	}, true
}

// MessageID returns the id of the message that triggered the command.
func (c *Command) MessageID() string {
	if c.Message == nil {
		return ""
	}
	return c.Message.ID
}
