package main

import (
	"context"
	"testing"

	"github.com/Seklfreak/Pebble/helpers/sinktest"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
)

type countingPlugin struct {
	inits int
}

func (p *countingPlugin) Commands() []string { return []string{"count"} }

func (p *countingPlugin) Init(session *discordgo.Session) { p.inits++ }

func (p *countingPlugin) Action(cmd *modules.Command) error { return nil }

type nobodyAuthorizer struct{}

func (nobodyAuthorizer) IsBotOwner(userID string) bool { return false }

func (nobodyAuthorizer) IsGuildAdmin(guildID, channelID, userID string) bool { return false }

func TestBotOnReadyStartsOnce(t *testing.T) {
	plugin := &countingPlugin{}
	registry, err := modules.NewRegistry([]modules.Plugin{plugin}, nobodyAuthorizer{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	session, err := discordgo.New("Bot test")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bot := &Bot{ctx: ctx, prefix: ",", registry: registry, sink: sinktest.New()}

	ready := &discordgo.Ready{User: &discordgo.User{ID: "1"}}
	for i := 0; i < 3; i++ {
		bot.BotOnReady(session, ready)
	}

	if plugin.inits != 1 {
		t.Fatalf("plugins initialized %d times over three Ready events", plugin.inits)
	}
}
