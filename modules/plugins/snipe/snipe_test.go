package snipe

import (
	"strings"
	"testing"
	"time"

	"github.com/Seklfreak/Pebble/helpers/sinktest"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
)

func deletedMessage(channelID, content string, bot bool) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m",
		ChannelID: channelID,
		Content:   content,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Author:    &discordgo.User{ID: "u", Username: "someone", Bot: bot},
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn.example/a.png"},
		},
	}
}

func TestLastWriteWins(t *testing.T) {
	store := NewStore()
	plugin := New(store, sinktest.New())

	plugin.Remember(deletedMessage("c", "first", false))
	plugin.Remember(deletedMessage("c", "second", false))
	plugin.Remember(deletedMessage("other", "third", false))

	message, ok := store.Get("c")
	if !ok || message.Content != "second" {
		t.Fatalf("Get(c) = %+v, want the second message", message)
	}
	if len(message.Attachments) != 1 || message.Attachments[0] != "https://cdn.example/a.png" {
		t.Fatalf("attachments = %v", message.Attachments)
	}
	if message, _ := store.Get("other"); message.Content != "third" {
		t.Fatal("channels share a slot")
	}
}

func TestBotMessagesAreSkipped(t *testing.T) {
	store := NewStore()
	plugin := New(store, sinktest.New())

	plugin.Remember(deletedMessage("c", "beep", true))
	plugin.OnMessageDelete(&discordgo.MessageDelete{Message: &discordgo.Message{ID: "x", ChannelID: "c"}}, nil)

	if _, ok := store.Get("c"); ok {
		t.Fatal("store should still be empty")
	}
}

func TestSnipeCommand(t *testing.T) {
	sink := sinktest.New()
	store := NewStore()
	plugin := New(store, sink)
	plugin.now = func() time.Time { return time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC) }

	if err := plugin.Action(&modules.Command{Name: "snipe", ChannelID: "c"}); err != nil {
		t.Fatalf("Action() error = %v", err)
	}

	plugin.Remember(deletedMessage("c", "oops, wrong chat", false))
	if err := plugin.Action(&modules.Command{Name: "snipe", ChannelID: "c"}); err != nil {
		t.Fatalf("Action() error = %v", err)
	}

	messages := sink.Messages()
	if len(messages) != 2 {
		t.Fatalf("messages = %v", messages)
	}
	if strings.Contains(messages[0], "oops") {
		t.Fatal("empty channel showed a message")
	}
	for _, part := range []string{"someone", "oops, wrong chat", "https://cdn.example/a.png", "5 minutes ago"} {
		if !strings.Contains(messages[1], part) {
			t.Errorf("snipe reply %q does not contain %q", messages[1], part)
		}
	}
}
