package levels

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/helpers/sinktest"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
)

func levelsCommand(name, content string) *modules.Command {
	return &modules.Command{
		Name:      name,
		Content:   content,
		Args:      strings.Fields(content),
		GuildID:   "g",
		ChannelID: "c",
		AuthorID:  "u",
	}
}

func TestRankCommand(t *testing.T) {
	sink := sinktest.New()
	engine := NewEngine()
	engine.GrantXP("g", "u", 450)
	plugin := New(engine, sink, true)

	if err := plugin.Action(levelsCommand("rank", "")); err != nil {
		t.Fatal(err)
	}
	if err := plugin.Action(levelsCommand("rank", "<@404>")); err != nil {
		t.Fatal(err)
	}

	messages := sink.Messages()
	if len(messages) != 2 {
		t.Fatalf("messages = %q", messages)
	}
	want := "**<@u>** is level **2** with **450** EXP\nProgress: 50/500 EXP (10.0%) to the next level"
	if messages[0] != want {
		t.Errorf("rank = %q, want %q", messages[0], want)
	}
	if messages[1] != "<@404> has no EXP yet." {
		t.Errorf("rank of unknown user = %q", messages[1])
	}
}

func TestLeaderboardCommandPages(t *testing.T) {
	sink := sinktest.New()
	engine := NewEngine()
	for i := 1; i <= 12; i++ {
		engine.GrantXP("g", fmt.Sprintf("user%02d", i), int64(i*100))
	}
	plugin := New(engine, sink, true)

	if err := plugin.Action(levelsCommand("leaderboard", "2")); err != nil {
		t.Fatal(err)
	}
	page := sink.Messages()[0]
	if !strings.HasPrefix(page, "🏆 **Leaderboard** (page 2/2)") {
		t.Fatalf("title = %q", page)
	}
	if !strings.Contains(page, "`#11` <@user02>") || !strings.Contains(page, "`#12` <@user01>") {
		t.Fatalf("page 2 = %q", page)
	}
	if strings.Contains(page, "<@user12>") {
		t.Fatal("page 2 contains the first place")
	}

	for _, arg := range []string{"0", "3", "x"} {
		err := plugin.Action(levelsCommand("lb", arg))
		if !helpers.IsKind(err, helpers.KindInvalidArgument) {
			t.Errorf("page %q: error = %v", arg, err)
		}
	}
}

func TestLeaderboardCommandEmpty(t *testing.T) {
	sink := sinktest.New()
	if err := New(NewEngine(), sink, true).Action(levelsCommand("lb", "")); err != nil {
		t.Fatal(err)
	}
	if messages := sink.Messages(); len(messages) != 1 || messages[0] != "Nobody earned any EXP on this server yet." {
		t.Fatalf("messages = %q", messages)
	}
}

func TestGiveXPCommand(t *testing.T) {
	sink := sinktest.New()
	engine := NewEngine()
	plugin := New(engine, sink, true)

	if err := plugin.Action(levelsCommand("givexp", "<@!7> 1000")); err != nil {
		t.Fatal(err)
	}
	record, ok := engine.Record("g", "7")
	if !ok || record.XP != 1000 || record.Level != 3 {
		t.Fatalf("Record() = %+v, %v", record, ok)
	}
	if messages := sink.Messages(); len(messages) != 1 || !strings.Contains(messages[0], "0 ➜ 3") {
		t.Fatalf("messages = %q", messages)
	}

	for _, content := range []string{"<@7>", "<@7> lots", "<@7> -5", "<@7> 0"} {
		if err := plugin.Action(levelsCommand("givexp", content)); !helpers.IsKind(err, helpers.KindInvalidArgument) {
			t.Errorf("givexp %q: error = %v", content, err)
		}
	}
}

func TestCommandsNeedGuild(t *testing.T) {
	cmd := levelsCommand("rank", "")
	cmd.GuildID = ""
	if err := New(NewEngine(), sinktest.New(), true).Action(cmd); !helpers.IsKind(err, helpers.KindInvalidArgument) {
		t.Fatalf("error = %v", err)
	}
}

func TestOnMessageAnnouncesLevelUp(t *testing.T) {
	sink := sinktest.New()
	engine := NewEngine(fixedGain(100))
	plugin := New(engine, sink, true)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	plugin.now = func() time.Time { return now }

	msg := &discordgo.Message{ID: "m", ChannelID: "c", GuildID: "g", Author: &discordgo.User{ID: "u"}}
	plugin.OnMessage("hi", msg, nil)
	if messages := sink.Messages(); len(messages) != 1 || !strings.Contains(messages[0], "<@u>") {
		t.Fatalf("announcement = %q", messages)
	}

	quiet := New(NewEngine(fixedGain(100)), sinktest.New(), false)
	quiet.now = plugin.now
	quiet.OnMessage("hi", msg, nil)
	if len(quiet.sink.(*sinktest.Recorder).Calls) != 0 {
		t.Fatal("level up announced with announcements off")
	}

	bot := &discordgo.Message{ID: "m", ChannelID: "c", GuildID: "g", Author: &discordgo.User{ID: "b", Bot: true}}
	plugin.OnMessage("hi", bot, nil)
	if _, ok := engine.Record("g", "b"); ok {
		t.Fatal("bots earned exp")
	}
}

func TestCommandsRejectUnknownUserFormat(t *testing.T) {
	sink := sinktest.New()
	engine := NewEngine()
	plugin := New(engine, sink, true)

	for _, cmd := range []*modules.Command{
		levelsCommand("givexp", "bob 100"),
		levelsCommand("givexp", "<@&12> 100"),
		levelsCommand("rank", "bob"),
	} {
		err := plugin.Action(cmd)
		if !helpers.IsKind(err, helpers.KindInvalidArgument) {
			t.Errorf("%s %q: error = %v", cmd.Name, cmd.Content, err)
		}
	}

	if _, ok := engine.Record("g", "bob"); ok {
		t.Fatal("givexp created a record for a name")
	}
	if standings := engine.Leaderboard("g"); len(standings) != 0 {
		t.Fatalf("Leaderboard() = %+v, want no entries", standings)
	}
	if len(sink.Calls) != 0 {
		t.Fatalf("rejected commands reached discord: %v", sink.Calls)
	}
}
