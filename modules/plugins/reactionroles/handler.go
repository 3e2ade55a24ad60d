package reactionroles

import (
	"regexp"
	"strings"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/models"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
)

var (
	snowflakeRegex = regexp.MustCompile(`^[0-9]+$`)
	roleRegex      = regexp.MustCompile(`^<@&([0-9]+)>$`)
)

type ReactionRoles struct {
	engine *Engine
	sink   helpers.ActionSink
}

func New(engine *Engine, sink helpers.ActionSink) *ReactionRoles {
	return &ReactionRoles{
		engine: engine,
		sink:   sink,
	}
}

func (r *ReactionRoles) Commands() []string {
	return []string{
		"reactionrole",
		"reactionroles",
		"rr",
	}
}

func (r *ReactionRoles) Permission(command string) modules.Permission {
	return modules.PermissionAdmin
}

func (r *ReactionRoles) Init(session *discordgo.Session) {
}

func (r *ReactionRoles) Action(cmd *modules.Command) error {
	if cmd.GuildID == "" {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("bot.errors.guild-only"))
	}
	if len(cmd.Args) < 1 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.usage"))
	}

	switch strings.ToLower(cmd.Args[0]) {
	case "list":
		return r.actionList(cmd)
	case "remove", "delete":
		return r.actionRemove(cmd)
	}
	return r.actionBind(cmd)
}

func (r *ReactionRoles) actionBind(cmd *modules.Command) error {
	if len(cmd.Args) < 3 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.usage"))
	}
	messageID := cmd.Args[0]
	if !snowflakeRegex.MatchString(messageID) {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.invalid-message"))
	}
	emoji := helpers.CanonicalEmoji(cmd.Args[1])
	roleID, ok := ParseRole(cmd.Args[2])
	if !ok {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.invalid-role"))
	}

	// the initial reaction doubles as check that message and emoji exist
	err := r.sink.AddReaction(cmd.ChannelID, messageID, emoji)
	if err != nil {
		switch helpers.KindOf(err) {
		case helpers.KindNotFound:
			if helpers.IsDiscordEmoji(emoji) {
				return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.message-or-emoji-not-found"))
			}
			return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.message-not-found"))
		case helpers.KindInvalidArgument:
			return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.invalid-emoji"))
		}
		return err
	}

	err = r.engine.Bind(models.ReactionRoleBinding{
		MessageID: messageID,
		Emoji:     emoji,
		RoleID:    roleID,
		GuildID:   cmd.GuildID,
		ChannelID: cmd.ChannelID,
	})
	if err != nil {
		return err
	}

	_, err = r.sink.SendMessage(cmd.ChannelID, helpers.GetTextF("plugins.reactionroles.bind-success",
		emoji, roleID, messageID))
	return err
}

func (r *ReactionRoles) actionRemove(cmd *modules.Command) error {
	if len(cmd.Args) < 3 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.remove-usage"))
	}

	binding, ok := r.engine.Lookup(cmd.Args[1], cmd.Args[2])
	if !ok || (binding.GuildID != "" && binding.GuildID != cmd.GuildID) {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.reactionroles.remove-not-found"))
	}
	r.engine.Unbind(binding.MessageID, binding.Emoji)

	_, err := r.sink.SendMessage(cmd.ChannelID, helpers.GetTextF("plugins.reactionroles.remove-success",
		binding.Emoji, binding.MessageID))
	return err
}

func (r *ReactionRoles) actionList(cmd *modules.Command) error {
	bindings := r.engine.List(cmd.GuildID)
	if len(bindings) == 0 {
		_, err := r.sink.SendMessage(cmd.ChannelID, helpers.GetText("plugins.reactionroles.list-empty"))
		return err
	}

	var text strings.Builder
	text.WriteString(helpers.GetText("plugins.reactionroles.list-title"))
	for _, binding := range bindings {
		text.WriteString("\n")
		text.WriteString(helpers.GetTextF("plugins.reactionroles.list-entry",
			binding.MessageID, binding.Emoji, binding.RoleID))
	}
	_, err := r.sink.SendMessage(cmd.ChannelID, text.String())
	return err
}

func (r *ReactionRoles) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (r *ReactionRoles) OnMessageDelete(msg *discordgo.MessageDelete, session *discordgo.Session) {
}

func (r *ReactionRoles) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	if reaction.MessageReaction == nil {
		return
	}
	r.engine.OnReactionAdd(toReaction(reaction.MessageReaction))
}

func (r *ReactionRoles) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
	if reaction.MessageReaction == nil {
		return
	}
	r.engine.OnReactionRemove(toReaction(reaction.MessageReaction))
}

func toReaction(reaction *discordgo.MessageReaction) Reaction {
	return Reaction{
		GuildID:   reaction.GuildID,
		ChannelID: reaction.ChannelID,
		MessageID: reaction.MessageID,
		Emoji:     reaction.Emoji.MessageFormat(),
		UserID:    reaction.UserID,
	}
}

// ParseRole accepts a role mention or a plain role id.
func ParseRole(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if parts := roleRegex.FindStringSubmatch(text); parts != nil {
		return parts[1], true
	}
	if snowflakeRegex.MatchString(text) {
		return text, true
	}
	return "", false
}
