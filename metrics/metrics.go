package metrics

import (
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/bwmarrin/discordgo"
)

var (
	// MessagesReceived counts all ever received messages
	MessagesReceived = expvar.NewInt("messages_received")

	// GuildCount counts all joined guilds
	GuildCount = expvar.NewInt("guild_count")

	// CommandsExecuted increases after each command execution
	CommandsExecuted = expvar.NewInt("commands_executed")

	// CommandsDenied increases when a command is refused by the pipeline
	CommandsDenied = expvar.NewInt("commands_denied")

	// CoroutineCount counts all running coroutines
	CoroutineCount = expvar.NewInt("coroutine_count")

	// Uptime stores the timestamp of the bot's boot
	Uptime = expvar.NewInt("uptime")

	LevelsExpGranted = expvar.NewInt("levels_exp_granted")
	LevelsLevelUps   = expvar.NewInt("levels_level_ups")

	AutorespondersTriggered = expvar.NewInt("autoresponders_triggered")

	ReactionRolesGranted = expvar.NewInt("reactionroles_granted")
	ReactionRolesRevoked = expvar.NewInt("reactionroles_revoked")
	ReactionRolesFailed  = expvar.NewInt("reactionroles_failed")

	MessagesSniped = expvar.NewInt("messages_sniped")

	AutosaveRuns     = expvar.NewInt("autosave_runs")
	AutosaveFailures = expvar.NewInt("autosave_failures")
	LastSave         = expvar.NewInt("autosave_last_success")
)

// Init starts a http server serving /debug/vars on address
func Init(address string) {
	Uptime.Set(time.Now().Unix())
	if address == "" {
		return
	}

	cache.GetLogger().WithField("module", "metrics").Info("Listening on " + address)
	go func() {
		err := http.ListenAndServe(address, expvar.Handler())
		if err != nil {
			cache.GetLogger().WithField("module", "metrics").Error("metrics server died: ", err.Error())
		}
	}()
}

// OnReady listens for said discord event
func OnReady(session *discordgo.Session, event *discordgo.Ready) {
	go CollectDiscordMetrics(session)
	go CollectRuntimeMetrics()
}

// OnMessageCreate listens for said discord event
func OnMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	MessagesReceived.Add(1)
}

// CollectDiscordMetrics counts Guilds
func CollectDiscordMetrics(session *discordgo.Session) {
	for {
		session.State.RLock()
		GuildCount.Set(int64(len(session.State.Guilds)))
		session.State.RUnlock()

		time.Sleep(15 * time.Second)
	}
}

// CollectRuntimeMetrics counts all running coroutines
func CollectRuntimeMetrics() {
	for {
		CoroutineCount.Set(int64(runtime.NumGoroutine()))

		time.Sleep(15 * time.Second)
	}
}
