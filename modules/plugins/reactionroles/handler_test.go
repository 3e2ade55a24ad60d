package reactionroles

import (
	"net/http"
	"strings"
	"testing"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/helpers/sinktest"
	"github.com/Seklfreak/Pebble/models"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

func rrCommand(content string) *modules.Command {
	return &modules.Command{
		Name:      "reactionrole",
		Content:   content,
		Args:      strings.Fields(content),
		GuildID:   "g",
		ChannelID: "c",
		AuthorID:  "admin",
	}
}

func TestBindCommand(t *testing.T) {
	sink := sinktest.New()
	engine := newTestEngine(sink)
	plugin := New(engine, sink)

	if err := plugin.Action(rrCommand("123 <:pepe:456> <@&789>")); err != nil {
		t.Fatalf("Action() error = %v", err)
	}

	reactions := sink.Method("AddReaction")
	if len(reactions) != 1 || reactions[0].Args[1] != "123" || reactions[0].Args[2] != "<:pepe:456>" {
		t.Fatalf("pre-reaction calls = %v", reactions)
	}
	binding, ok := engine.Lookup("123", ":pepe:456")
	if !ok || binding.RoleID != "789" || binding.GuildID != "g" || binding.ChannelID != "c" {
		t.Fatalf("Lookup() = %+v, %v", binding, ok)
	}
	if messages := sink.Messages(); len(messages) != 1 || !strings.Contains(messages[0], "<@&789>") {
		t.Fatalf("confirmation = %q", messages)
	}
}

func TestBindCommandValidation(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"123 👍", helpers.GetText("plugins.reactionroles.usage")},
		{"abc 👍 <@&789>", helpers.GetText("plugins.reactionroles.invalid-message")},
		{"123 👍 moderators", helpers.GetText("plugins.reactionroles.invalid-role")},
	}

	for _, tt := range tests {
		sink := sinktest.New()
		engine := newTestEngine(sink)
		err := New(engine, sink).Action(rrCommand(tt.content))
		if !helpers.IsKind(err, helpers.KindInvalidArgument) || helpers.UserMessage(err) != tt.want {
			t.Errorf("%q: error = %v", tt.content, err)
		}
		if len(engine.Snapshot()) != 0 || len(sink.Calls) != 0 {
			t.Errorf("%q: invalid input reached discord or the engine", tt.content)
		}
	}
}

func TestBindCommandUnknownMessage(t *testing.T) {
	sink := sinktest.New()
	sink.Fail("AddReaction", "", helpers.ClassifyDiscordError("add reaction", &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage},
	}))
	engine := newTestEngine(sink)

	err := New(engine, sink).Action(rrCommand("123 👍 <@&789>"))
	if helpers.UserMessage(err) != helpers.GetText("plugins.reactionroles.message-not-found") {
		t.Fatalf("error = %v", err)
	}
	if _, ok := engine.Lookup("123", "👍"); ok {
		t.Fatal("binding stored although the message does not exist")
	}
}

func TestBindCommandOtherFailure(t *testing.T) {
	sink := sinktest.New()
	sink.Fail("AddReaction", "", helpers.NewError(helpers.KindTransient, "add reaction", errors.New("timeout")))
	engine := newTestEngine(sink)

	err := New(engine, sink).Action(rrCommand("123 👍 <@&789>"))
	if !helpers.IsKind(err, helpers.KindTransient) {
		t.Fatalf("error = %v", err)
	}
	if _, ok := engine.Lookup("123", "👍"); ok {
		t.Fatal("binding stored although the reaction failed")
	}
}

func TestRemoveAndListCommands(t *testing.T) {
	sink := sinktest.New()
	engine := newTestEngine(sink)
	plugin := New(engine, sink)

	plugin.Action(rrCommand("123 👍 <@&789>"))
	if err := plugin.Action(rrCommand("list")); err != nil {
		t.Fatal(err)
	}
	if err := plugin.Action(rrCommand("remove 123 👍")); err != nil {
		t.Fatal(err)
	}
	if _, ok := engine.Lookup("123", "👍"); ok {
		t.Fatal("remove did not unbind")
	}

	err := plugin.Action(rrCommand("remove 123 👍"))
	if helpers.UserMessage(err) != helpers.GetText("plugins.reactionroles.remove-not-found") {
		t.Fatalf("second remove error = %v", err)
	}

	messages := sink.Messages()
	if len(messages) != 3 || !strings.Contains(messages[1], "`123` 👍 ➜ <@&789>") {
		t.Fatalf("messages = %q", messages)
	}
}

func TestReactionEventsReachEngine(t *testing.T) {
	sink := sinktest.New()
	engine := newTestEngine(sink)
	engine.Bind(bindingFor("123", "<:pepe:456>", "789"))
	plugin := New(engine, sink)

	reaction := &discordgo.MessageReaction{
		UserID:    "u",
		MessageID: "123",
		ChannelID: "c",
		GuildID:   "g",
		Emoji:     discordgo.Emoji{ID: "456", Name: "pepe"},
	}
	plugin.OnReactionAdd(&discordgo.MessageReactionAdd{MessageReaction: reaction}, nil)
	plugin.OnReactionRemove(&discordgo.MessageReactionRemove{MessageReaction: reaction}, nil)

	if len(sink.Method("GrantRole")) != 1 || len(sink.Method("RevokeRole")) != 1 {
		t.Fatalf("calls = %v", sink.Calls)
	}
}

func bindingFor(messageID, emoji, roleID string) models.ReactionRoleBinding {
	return models.ReactionRoleBinding{MessageID: messageID, Emoji: emoji, RoleID: roleID, GuildID: "g", ChannelID: "c"}
}
