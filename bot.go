package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
)

// Bot routes gateway events into the plugin registry.
type Bot struct {
	ctx      context.Context
	prefix   string
	registry *modules.Registry
	sink     helpers.ActionSink

	// plugins and the status loop start once, reconnects send Ready again
	startOnce sync.Once
}

// BotOnReady gets called after the gateway connected
func (b *Bot) BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()

	log.WithField("module", "bot").Info("Connected to discord!")
	log.WithField("module", "bot").Info("Invite link: " + fmt.Sprintf(
		"https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%d",
		event.User.ID,
		discordgo.PermissionManageRoles|discordgo.PermissionSendMessages|
			discordgo.PermissionAddReactions|discordgo.PermissionManageMessages|
			discordgo.PermissionReadMessageHistory,
	))

	b.startOnce.Do(func() {
		// Load and init all modules
		b.registry.Init(session)

		// Run async game-changer
		go b.changeGameInterval(session)
	})
}

// BotOnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
// or spawn costly work inside of coroutines.
func (b *Bot) BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	if message.Author == nil || message.Author.Bot {
		return
	}

	// levels and autoresponders see the message before any command does
	b.registry.CallExtendedPlugin(message.Content, message.Message, session)

	// Check if the message contains @mentions for us
	if session.State.User != nil && len(message.Mentions) > 0 && message.Mentions[0].ID == session.State.User.ID &&
		strings.HasPrefix(message.Content, "<@") {
		content := strings.TrimSpace(helpers.StripMentionPrefix(message.Content))
		if strings.EqualFold(content, "prefix") {
			_, err := b.sink.SendMessage(message.ChannelID, helpers.GetTextF("bot.prefix.is", b.prefix))
			helpers.RelaxLog(err)
		}
		return
	}

	cmd, ok := modules.ParseCommand(b.prefix, message.Message)
	if !ok {
		return
	}
	cmd.Session = session

	handled, err := b.registry.CallBotPlugin(cmd)
	if handled && err != nil {
		// already answered in the channel by the pipeline
		cache.GetLogger().WithField("module", "bot").Debugf("command %s by #%s failed: %s",
			cmd.Name, cmd.AuthorID, err.Error())
	}
}

// BotOnMessageDelete feeds deleted messages to the snipe cache
func (b *Bot) BotOnMessageDelete(session *discordgo.Session, message *discordgo.MessageDelete) {
	b.registry.CallExtendedPluginOnMessageDelete(message, session)
}

// BotOnReactionAdd gets called after a reaction is added
// This will be called after *every* reaction added on *every* server so it
// should die as soon as possible or spawn costly work inside of coroutines.
func (b *Bot) BotOnReactionAdd(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	b.registry.CallExtendedPluginOnReactionAdd(reaction, session)
}

func (b *Bot) BotOnReactionRemove(session *discordgo.Session, reaction *discordgo.MessageReactionRemove) {
	b.registry.CallExtendedPluginOnReactionRemove(reaction, session)
}

// Changes the game every hour until the bot shuts down
func (b *Bot) changeGameInterval(session *discordgo.Session) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		session.State.RLock()
		guilds := len(session.State.Guilds)
		session.State.RUnlock()

		err := session.UpdateGameStatus(0, fmt.Sprintf("%d servers | %sleaderboard", guilds, b.prefix))
		if err != nil {
			raven.CaptureError(err, map[string]string{})
		}

		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
