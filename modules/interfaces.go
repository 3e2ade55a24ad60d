package modules

import "github.com/bwmarrin/discordgo"

type BaseModule interface{}

type Plugin interface {
	BaseModule

	Commands() []string

	Init(session *discordgo.Session)

	Action(cmd *Command) error
}

// GuardedPlugin lets a plugin require more than PermissionEveryone for
// some of its commands.
type GuardedPlugin interface {
	Plugin

	Permission(command string) Permission
}

type ExtendedPlugin interface {
	Plugin

	OnMessage(
		content string,
		msg *discordgo.Message,
		session *discordgo.Session,
	)

	OnMessageDelete(
		msg *discordgo.MessageDelete,
		session *discordgo.Session,
	)

	OnReactionAdd(
		reaction *discordgo.MessageReactionAdd,
		session *discordgo.Session,
	)

	OnReactionRemove(
		reaction *discordgo.MessageReactionRemove,
		session *discordgo.Session,
	)
}
