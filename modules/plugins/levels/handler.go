package levels

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

const leaderboardPageSize = 10

// Levels exposes the level engine to discord: it feeds messages into the
// engine and serves rank, leaderboard and givexp.
type Levels struct {
	engine   *Engine
	sink     helpers.ActionSink
	announce bool
	now      func() time.Time
}

func New(engine *Engine, sink helpers.ActionSink, announce bool) *Levels {
	return &Levels{
		engine:   engine,
		sink:     sink,
		announce: announce,
		now:      time.Now,
	}
}

func (l *Levels) Commands() []string {
	return []string{
		"rank",
		"level",
		"leaderboard",
		"lb",
		"givexp",
	}
}

func (l *Levels) Permission(command string) modules.Permission {
	if command == "givexp" {
		return modules.PermissionAdmin
	}
	return modules.PermissionEveryone
}

func (l *Levels) Init(session *discordgo.Session) {
}

func (l *Levels) Action(cmd *modules.Command) error {
	if cmd.GuildID == "" {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("bot.errors.guild-only"))
	}

	switch cmd.Name {
	case "rank", "level":
		return l.actionRank(cmd)
	case "leaderboard", "lb":
		return l.actionLeaderboard(cmd)
	case "givexp":
		return l.actionGiveXP(cmd)
	}
	return nil
}

func (l *Levels) actionRank(cmd *modules.Command) error {
	userID := cmd.AuthorID
	if len(cmd.Args) > 0 {
		var ok bool
		if userID, ok = helpers.ParseUserID(cmd.Args[0]); !ok {
			return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.levels.rank-usage"))
		}
	}

	info, ok := l.engine.Rank(cmd.GuildID, userID)
	if !ok {
		_, err := l.sink.SendMessage(cmd.ChannelID, helpers.GetTextF("plugins.levels.rank-no-exp", userID))
		return err
	}

	_, err := l.sink.SendMessage(cmd.ChannelID, helpers.GetTextR("plugins.levels.rank", map[string]string{
		"USER":     userID,
		"LEVEL":    strconv.Itoa(info.Level),
		"XP":       humanize.Comma(info.XP),
		"PROGRESS": humanize.Comma(info.XPIntoLevel),
		"NEEDED":   humanize.Comma(info.XPNeeded),
		"PERCENT":  fmt.Sprintf("%.1f", info.Progress*100),
	}))
	return err
}

func (l *Levels) actionLeaderboard(cmd *modules.Command) error {
	page := 1
	if len(cmd.Args) > 0 {
		parsed, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.levels.leaderboard-invalid-page"))
		}
		page = parsed
	}

	standings := l.engine.Leaderboard(cmd.GuildID)
	if len(standings) == 0 {
		_, err := l.sink.SendMessage(cmd.ChannelID, helpers.GetText("plugins.levels.leaderboard-empty"))
		return err
	}

	pages := (len(standings) + leaderboardPageSize - 1) / leaderboardPageSize
	if page < 1 || page > pages {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.levels.leaderboard-invalid-page"))
	}

	start := (page - 1) * leaderboardPageSize
	end := start + leaderboardPageSize
	if end > len(standings) {
		end = len(standings)
	}

	var text strings.Builder
	text.WriteString(helpers.GetTextF("plugins.levels.leaderboard-title", page, pages))
	for _, standing := range standings[start:end] {
		text.WriteString("\n")
		text.WriteString(helpers.GetTextF("plugins.levels.leaderboard-entry",
			standing.Position, standing.UserID, standing.Record.Level, humanize.Comma(standing.Record.XP)))
	}

	_, err := l.sink.SendMessage(cmd.ChannelID, text.String())
	return err
}

func (l *Levels) actionGiveXP(cmd *modules.Command) error {
	if len(cmd.Args) < 2 {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.levels.givexp-usage"))
	}

	userID, ok := helpers.ParseUserID(cmd.Args[0])
	if !ok {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.levels.givexp-usage"))
	}
	amount, err := strconv.ParseInt(cmd.Args[1], 10, 64)
	if err != nil {
		return helpers.InvalidArgumentText(cmd.Name, helpers.GetText("plugins.levels.givexp-invalid-amount"))
	}

	totals, err := l.engine.GrantXP(cmd.GuildID, userID, amount)
	if err != nil {
		return err
	}

	text := helpers.GetTextF("plugins.levels.givexp-success",
		humanize.Comma(amount), userID, humanize.Comma(totals.XP), totals.Level)
	if totals.LeveledUp {
		text += "\n" + helpers.GetTextF("plugins.levels.givexp-levelup", totals.PreviousLevel, totals.Level)
	}
	_, err = l.sink.SendMessage(cmd.ChannelID, text)
	return err
}

// OnMessage awards exp for every guild message of a human
func (l *Levels) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return
	}

	levelUp, ok := l.engine.OnMessage(msg.GuildID, msg.Author.ID, l.now())
	if !ok || !l.announce {
		return
	}

	_, err := l.sink.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.levels.levelup",
		levelUp.UserID, levelUp.Level, humanize.Comma(levelUp.XP)))
	if err != nil {
		cache.GetLogger().WithField("module", "levels").Warnf(
			"failed to announce level up in #%s: %s", msg.ChannelID, err.Error())
	}
}

func (l *Levels) OnMessageDelete(msg *discordgo.MessageDelete, session *discordgo.Session) {
}

func (l *Levels) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (l *Levels) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}
