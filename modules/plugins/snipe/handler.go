package snipe

import (
	"strings"
	"time"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/models"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

type Snipe struct {
	store *Store
	sink  helpers.ActionSink
	now   func() time.Time
}

func New(store *Store, sink helpers.ActionSink) *Snipe {
	return &Snipe{
		store: store,
		sink:  sink,
		now:   time.Now,
	}
}

func (s *Snipe) Commands() []string {
	return []string{
		"snipe",
	}
}

func (s *Snipe) Permission(command string) modules.Permission {
	return modules.PermissionAdmin
}

func (s *Snipe) Init(session *discordgo.Session) {
}

func (s *Snipe) Action(cmd *modules.Command) error {
	message, ok := s.store.Get(cmd.ChannelID)
	if !ok {
		_, err := s.sink.SendMessage(cmd.ChannelID, helpers.GetText("plugins.snipe.nothing"))
		return err
	}

	var text strings.Builder
	text.WriteString(helpers.GetTextF("plugins.snipe.title",
		message.AuthorName, humanize.RelTime(message.Timestamp, s.now(), "ago", "from now")))
	if message.Content != "" {
		text.WriteString("\n")
		text.WriteString(message.Content)
	}
	if len(message.Attachments) > 0 {
		text.WriteString("\n")
		text.WriteString(helpers.GetTextF("plugins.snipe.attachments", strings.Join(message.Attachments, "\n")))
	}

	_, err := s.sink.SendMessage(cmd.ChannelID, text.String())
	return err
}

func (s *Snipe) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

// OnMessageDelete needs the session state to cache messages, without it
// discord only tells us the id of the deleted message.
func (s *Snipe) OnMessageDelete(msg *discordgo.MessageDelete, session *discordgo.Session) {
	if msg.BeforeDelete == nil {
		return
	}
	s.Remember(msg.BeforeDelete)
}

// Remember puts a deleted message into its channel's slot. Messages of bots are skipped.
func (s *Snipe) Remember(msg *discordgo.Message) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}

	deleted := models.DeletedMessage{
		ChannelID:  msg.ChannelID,
		AuthorID:   msg.Author.ID,
		AuthorName: msg.Author.Username,
		Content:    msg.Content,
		Timestamp:  msg.Timestamp,
	}
	for _, attachment := range msg.Attachments {
		if attachment == nil {
			continue
		}
		deleted.Attachments = append(deleted.Attachments, attachment.URL)
	}
	s.store.Put(deleted)
}

func (s *Snipe) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (s *Snipe) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}
