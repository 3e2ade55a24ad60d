package modules

import (
	"strings"
	"testing"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/helpers/sinktest"
	"github.com/Seklfreak/Pebble/ratelimits"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

type fakeAuthorizer struct {
	owner  string
	admins map[string]bool
}

func (a fakeAuthorizer) IsBotOwner(userID string) bool { return userID == a.owner }

func (a fakeAuthorizer) IsGuildAdmin(guildID, channelID, userID string) bool {
	return a.admins[userID]
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

type fakePlugin struct {
	commands    []string
	permissions map[string]Permission
	action      func(cmd *Command) error
	calls       []string
	seen        []string
}

func (p *fakePlugin) Commands() []string               { return p.commands }
func (p *fakePlugin) Init(session *discordgo.Session) {}

func (p *fakePlugin) Permission(command string) Permission {
	return p.permissions[command]
}

func (p *fakePlugin) Action(cmd *Command) error {
	p.calls = append(p.calls, cmd.Name)
	if p.action != nil {
		return p.action(cmd)
	}
	return nil
}

func (p *fakePlugin) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	p.seen = append(p.seen, content)
}

func (p *fakePlugin) OnMessageDelete(msg *discordgo.MessageDelete, session *discordgo.Session) {}

func (p *fakePlugin) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (p *fakePlugin) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func command(name, author string) *Command {
	return &Command{Name: name, GuildID: "g1", ChannelID: "c1", AuthorID: author}
}

func TestChainOrder(t *testing.T) {
	var order []string
	stage := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(cmd *Command) error {
				order = append(order, name)
				return next(cmd)
			}
		}
	}

	handler := Chain(func(cmd *Command) error {
		order = append(order, "action")
		return nil
	}, stage("first"), stage("second"))

	if err := handler(command("x", "u")); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "first,second,action" {
		t.Fatalf("order = %v", order)
	}
}

func TestAuthorize(t *testing.T) {
	authorizer := fakeAuthorizer{owner: "owner", admins: map[string]bool{"admin": true}}
	tests := []struct {
		permission Permission
		author     string
		allowed    bool
	}{
		{PermissionEveryone, "anyone", true},
		{PermissionAdmin, "anyone", false},
		{PermissionAdmin, "admin", true},
		{PermissionAdmin, "owner", true},
		{PermissionOwner, "admin", false},
		{PermissionOwner, "owner", true},
	}

	for _, tt := range tests {
		ran := false
		handler := Authorize(tt.permission, authorizer)(func(cmd *Command) error {
			ran = true
			return nil
		})
		err := handler(command("x", tt.author))
		if ran != tt.allowed {
			t.Errorf("%s as %s: ran = %v", tt.permission, tt.author, ran)
		}
		if !tt.allowed && !helpers.IsKind(err, helpers.KindPermissionDenied) {
			t.Errorf("%s as %s: error = %v", tt.permission, tt.author, err)
		}
	}
}

func TestRespond(t *testing.T) {
	sink := sinktest.New()
	respond := Respond(sink)

	denied := respond(func(cmd *Command) error {
		return helpers.InvalidArgumentText("x", "Please provide both trigger and response!")
	})
	if err := denied(command("x", "u")); err == nil {
		t.Fatal("Respond swallowed the error")
	}

	failed := respond(func(cmd *Command) error {
		return errors.New("boom")
	})
	failed(command("x", "u"))

	ok := respond(func(cmd *Command) error { return nil })
	ok(command("x", "u"))

	messages := sink.Messages()
	if len(messages) != 2 {
		t.Fatalf("sent %d messages, want 2: %q", len(messages), messages)
	}
	if messages[0] != "❌ Please provide both trigger and response!" {
		t.Errorf("denial = %q", messages[0])
	}
	if !strings.Contains(messages[1], "boom") {
		t.Errorf("generic error = %q", messages[1])
	}
}

func TestRecover(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := Recover(notifier)(func(cmd *Command) error {
		panic("nil map")
	})

	err := handler(command("rank", "u"))
	if err == nil || !strings.Contains(err.Error(), "nil map") {
		t.Fatalf("Recover() error = %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("operator notified %d times", len(notifier.messages))
	}
}

func TestRateLimit(t *testing.T) {
	container := ratelimits.NewBucketContainer()
	authorizer := fakeAuthorizer{owner: "owner"}
	handler := RateLimit(container, authorizer)(func(cmd *Command) error { return nil })

	for i := 0; i < ratelimits.BUCKET_INITIAL_FILL; i++ {
		if err := handler(command("rank", "u")); err != nil {
			t.Fatalf("command %d limited: %v", i, err)
		}
	}
	if err := handler(command("rank", "u")); !helpers.IsKind(err, helpers.KindPermissionDenied) {
		t.Fatalf("drained bucket error = %v", err)
	}
	for i := 0; i < ratelimits.BUCKET_INITIAL_FILL*2; i++ {
		if err := handler(command("rank", "owner")); err != nil {
			t.Fatal("bot owner was rate limited")
		}
	}
}

func TestLogCommandNotifiesOperator(t *testing.T) {
	notifier := &recordingNotifier{}
	cmd := command("givexp", "u")
	cmd.Content = "<@2> 100"

	LogCommand(notifier, false)(func(cmd *Command) error { return nil })(cmd)
	if len(notifier.messages) != 0 {
		t.Fatal("audit line sent with notifications off")
	}

	LogCommand(notifier, true)(func(cmd *Command) error { return nil })(cmd)
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "Arguments: <@2> 100") {
		t.Fatalf("audit lines = %q", notifier.messages)
	}
}

func TestRegistry(t *testing.T) {
	sink := sinktest.New()
	authorizer := fakeAuthorizer{owner: "owner"}
	plugin := &fakePlugin{
		commands:    []string{"rank", "Save"},
		permissions: map[string]Permission{"save": PermissionOwner},
	}

	registry, err := NewRegistry([]Plugin{plugin}, authorizer, nil, Respond(sink))
	if err != nil {
		t.Fatal(err)
	}

	if handled, err := registry.CallBotPlugin(command("rank", "u")); !handled || err != nil {
		t.Fatalf("rank: handled=%v err=%v", handled, err)
	}
	if handled, _ := registry.CallBotPlugin(command("save", "u")); !handled {
		t.Fatal("save was not routed")
	}
	if handled, _ := registry.CallBotPlugin(command("unknown", "u")); handled {
		t.Fatal("unknown command was handled")
	}

	if strings.Join(plugin.calls, ",") != "rank" {
		t.Fatalf("plugin ran %v, the owner-only save must be refused", plugin.calls)
	}
	if len(sink.Messages()) != 1 {
		t.Fatalf("refusal messages = %q", sink.Messages())
	}

	registry.CallExtendedPlugin("  hello  ", &discordgo.Message{}, nil)
	if len(plugin.seen) != 1 || plugin.seen[0] != "hello" {
		t.Fatalf("extended plugin saw %q", plugin.seen)
	}
}

func TestRegistryRejectsDuplicateCommands(t *testing.T) {
	first := &fakePlugin{commands: []string{"rank"}}
	second := &fakePlugin{commands: []string{"RANK"}}

	if _, err := NewRegistry([]Plugin{first, second}, fakeAuthorizer{}, nil); err == nil {
		t.Fatal("NewRegistry() accepted a duplicate command")
	}
}

func TestRegistryIsolatesPanickingPlugins(t *testing.T) {
	panicking := &panicPlugin{}
	after := &fakePlugin{}

	registry, err := NewRegistry([]Plugin{panicking, after}, fakeAuthorizer{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	registry.CallExtendedPlugin("hi", &discordgo.Message{}, nil)
	if len(after.seen) != 1 {
		t.Fatal("a panicking plugin stopped the plugins after it")
	}
}

type panicPlugin struct {
	fakePlugin
}

func (p *panicPlugin) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	panic("plugin bug")
}

func TestRespondRepliesToCommandMessage(t *testing.T) {
	sink := sinktest.New()
	failing := Respond(sink)(func(cmd *Command) error {
		return helpers.InvalidArgumentText("x", "nope")
	})

	cmd := command("x", "u")
	cmd.Message = &discordgo.Message{ID: "m1"}
	failing(cmd)

	replies := sink.Method("SendReply")
	if len(replies) != 1 || replies[0].Args[1] != "m1" || replies[0].Args[2] != "❌ nope" {
		t.Fatalf("replies = %v", replies)
	}
	if len(sink.Method("SendMessage")) != 0 {
		t.Fatal("denial was posted twice")
	}

	// a deleted command message falls back to a plain channel message
	sink = sinktest.New()
	sink.Fail("SendReply", "", helpers.NewError(helpers.KindNotFound, "send reply", errors.New("unknown message")))
	Respond(sink)(func(cmd *Command) error {
		return helpers.InvalidArgumentText("x", "nope")
	})(cmd)
	if messages := sink.Method("SendMessage"); len(messages) != 1 || messages[0].Args[1] != "❌ nope" {
		t.Fatalf("fallback messages = %v", messages)
	}
}
