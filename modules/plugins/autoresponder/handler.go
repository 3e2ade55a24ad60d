package autoresponder

import (
	"strings"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/models"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

const listReplyPreview = 100

type Autoresponder struct {
	engine *Engine
	sink   helpers.ActionSink
	prefix string
}

func New(engine *Engine, sink helpers.ActionSink, prefix string) *Autoresponder {
	return &Autoresponder{
		engine: engine,
		sink:   sink,
		prefix: prefix,
	}
}

func (a *Autoresponder) Commands() []string {
	return []string{
		"autoresponder",
		"ar",
	}
}

func (a *Autoresponder) Permission(command string) modules.Permission {
	return modules.PermissionAdmin
}

func (a *Autoresponder) Init(session *discordgo.Session) {
}

func (a *Autoresponder) Action(cmd *modules.Command) error {
	if cmd.GuildID == "" {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("bot.errors.guild-only"))
	}
	if len(cmd.Args) < 1 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.autoresponder.usage"))
	}

	switch strings.ToLower(cmd.Args[0]) {
	case "add":
		return a.actionAdd(cmd)
	case "react":
		return a.actionReact(cmd)
	case "remove", "delete":
		return a.actionRemove(cmd)
	case "list":
		return a.actionList(cmd)
	}
	return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.autoresponder.usage"))
}

func (a *Autoresponder) actionAdd(cmd *modules.Command) error {
	if len(cmd.Args) < 3 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.autoresponder.add-missing"))
	}
	trigger := cmd.Args[1]
	reply := helpers.SkipArguments(cmd.Content, 2)

	err := a.engine.AddTextRule(cmd.GuildID, trigger, reply)
	if err != nil {
		return err
	}

	_, err = a.sink.SendMessage(cmd.ChannelID, helpers.GetTextF("plugins.autoresponder.add-success",
		NormalizeTrigger(trigger), reply))
	return err
}

func (a *Autoresponder) actionReact(cmd *modules.Command) error {
	if len(cmd.Args) < 3 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.autoresponder.react-missing"))
	}
	trigger := cmd.Args[1]
	emojis := cmd.Args[2:]

	probeID, err := a.sink.SendMessage(cmd.ChannelID, helpers.GetText("plugins.autoresponder.react-probe"))
	if err != nil {
		return err
	}
	err = a.engine.AddReactionRule(cmd.GuildID, trigger, emojis, func(emoji string) error {
		return a.sink.AddReaction(cmd.ChannelID, probeID, emoji)
	})
	if deleteErr := a.sink.DeleteMessage(cmd.ChannelID, probeID); deleteErr != nil {
		cache.GetLogger().WithField("module", "autoresponder").Warnf(
			"failed to delete emoji probe message #%s: %s", probeID, deleteErr.Error())
	}
	if err != nil {
		var invalid *InvalidEmojiError
		if errors.As(err, &invalid) {
			return helpers.InvalidArgumentText(cmd.Name, helpers.GetTextF("plugins.autoresponder.react-invalid-emoji",
				strings.Join(invalid.Emojis, " ")))
		}
		return err
	}

	rule, _ := a.findRule(cmd.GuildID, trigger)
	_, err = a.sink.SendMessage(cmd.ChannelID, helpers.GetTextF("plugins.autoresponder.react-success",
		rule.Trigger, strings.Join(rule.Emojis, " ")))
	return err
}

func (a *Autoresponder) actionRemove(cmd *modules.Command) error {
	if len(cmd.Args) < 2 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.autoresponder.remove-missing"))
	}
	trigger := cmd.Args[1]

	if !a.engine.RemoveRule(cmd.GuildID, trigger) {
		text := helpers.GetText("plugins.autoresponder.remove-not-found")
		if suggestions := a.engine.Suggest(cmd.GuildID, trigger); len(suggestions) > 0 {
			text += "\n" + helpers.GetTextF("plugins.autoresponder.remove-suggestions",
				"`"+strings.Join(suggestions, "`, `")+"`")
		}
		return helpers.NewError(helpers.KindNotFound, cmd.Name, errors.New(text))
	}

	_, err := a.sink.SendMessage(cmd.ChannelID, helpers.GetTextF("plugins.autoresponder.remove-success",
		NormalizeTrigger(trigger)))
	return err
}

func (a *Autoresponder) actionList(cmd *modules.Command) error {
	rules := a.engine.Rules(cmd.GuildID)
	if len(rules) == 0 {
		_, err := a.sink.SendMessage(cmd.ChannelID, helpers.GetText("plugins.autoresponder.list-empty"))
		return err
	}

	var text strings.Builder
	text.WriteString(helpers.GetText("plugins.autoresponder.list-title"))
	for _, rule := range rules {
		text.WriteString("\n")
		switch rule.Kind {
		case models.RuleKindText:
			reply := rule.Reply
			if len([]rune(reply)) > listReplyPreview {
				reply = string([]rune(reply)[:listReplyPreview]) + "..."
			}
			text.WriteString(helpers.GetTextF("plugins.autoresponder.list-entry-text", rule.Trigger, reply))
		case models.RuleKindReaction:
			text.WriteString(helpers.GetTextF("plugins.autoresponder.list-entry-reaction",
				rule.Trigger, strings.Join(rule.Emojis, " ")))
		}
	}

	_, err := a.sink.SendMessage(cmd.ChannelID, text.String())
	return err
}

func (a *Autoresponder) findRule(guildID, trigger string) (models.AutoresponderRule, bool) {
	trigger = NormalizeTrigger(trigger)
	for _, rule := range a.engine.Rules(guildID) {
		if rule.Trigger == trigger {
			return rule, true
		}
	}
	return models.AutoresponderRule{}, false
}

// OnMessage fires the first matching rule for guild messages of humans.
// Commands never trigger autoresponders.
func (a *Autoresponder) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return
	}
	if a.prefix != "" && strings.HasPrefix(content, a.prefix) {
		return
	}

	rule, ok := a.engine.Match(msg.GuildID, content)
	if !ok {
		return
	}

	if err := Dispatch(a.sink, msg.ChannelID, msg.ID, rule); err != nil {
		cache.GetLogger().WithField("module", "autoresponder").Warnf(
			"autoresponder %q in #%s failed: %s", rule.Trigger, msg.ChannelID, err.Error())
	}
}

func (a *Autoresponder) OnMessageDelete(msg *discordgo.MessageDelete, session *discordgo.Session) {
}

func (a *Autoresponder) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (a *Autoresponder) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}
