package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Seklfreak/Pebble/autosave"
	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/logging"
	"github.com/Seklfreak/Pebble/metrics"
	"github.com/Seklfreak/Pebble/modules"
	"github.com/Seklfreak/Pebble/modules/plugins"
	"github.com/Seklfreak/Pebble/modules/plugins/autoresponder"
	"github.com/Seklfreak/Pebble/modules/plugins/levels"
	"github.com/Seklfreak/Pebble/modules/plugins/reactionroles"
	"github.com/Seklfreak/Pebble/modules/plugins/snipe"
	"github.com/Seklfreak/Pebble/persistence"
	"github.com/Seklfreak/Pebble/ratelimits"
	"github.com/Seklfreak/Pebble/rest"
	"github.com/Seklfreak/Pebble/version"
	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/go-redis/redis"
	"github.com/kz/discordrus"
	"github.com/sirupsen/logrus"
)

// messages kept per channel so deleted ones can still be sniped
const stateMessageLimit = 100

// Entrypoint
func main() {
	log := logrus.New()
	log.Out = os.Stdout
	log.Level = logrus.InfoLevel
	log.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339}
	log.Hooks = make(logrus.LevelHooks)
	cache.SetLogger(log)

	// Read config
	configPath := "config.json"
	if path := os.Getenv("PEBBLE_CONFIG"); path != "" {
		configPath = path
	}
	config, err := helpers.LoadConfig(configPath)
	if err != nil {
		log.WithField("module", "launcher").Fatal(err.Error())
	}

	// Check if the bot is being debugged
	if config.Debug {
		helpers.DEBUG_MODE = true
		log.Level = logrus.DebugLevel
	}

	if config.LogJSONFile != "" {
		fileHook, err := logging.NewFileHook(config.LogJSONFile, logrus.DebugLevel)
		if err != nil {
			log.WithField("module", "launcher").Error("logrus file hook failed, err:", err.Error())
		} else {
			log.Hooks.Add(fileHook)
			defer fileHook.Close()
		}
	}

	if config.LogDiscordWebhook != "" {
		log.Hooks.Add(discordrus.NewHook(
			config.LogDiscordWebhook,
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Logging",
				DisableTimestamp:   false,
				TimestampFormat:    "Jan 2 15:04:05.00000",
				EnableCustomColors: true,
				CustomLevelColors: &discordrus.LevelColors{
					Error: 13631488,
					Panic: 13631488,
					Fatal: 13631488,
				},
			},
		))
	}

	log.WithField("module", "launcher").Info("Booting Pebble...")

	// Read i18n
	helpers.LoadTranslations()

	// Show version
	version.DumpInfo()

	// Start metric server
	metrics.Init(config.MetricsAddress)

	// Call home
	if config.SentryDSN != "" {
		log.WithField("module", "launcher").Info("[SENTRY] Calling home...")
		if err = raven.SetDSN(config.SentryDSN); err != nil {
			log.WithField("module", "launcher").Fatal(err.Error())
		}
		if version.BOT_VERSION != "DEV_SNAPSHOT" {
			raven.SetRelease(version.BOT_VERSION)
		}
	}

	// Open storage and read the last snapshot
	store := openStore(config, log)
	snapshot, err := store.Load()
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		log.WithField("module", "launcher").Fatal("failed to load saved state: ", err.Error())
	}

	// Connect and add event handlers
	discordgo.Logger = discordLogger(log)
	log.WithField("module", "launcher").Info("Connecting Pebble to discord...")
	discord, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		log.WithField("module", "launcher").Fatal(err.Error())
	}

	discord.Lock()
	discord.Debug = false
	discord.LogLevel = discordgo.LogInformational
	discord.StateEnabled = true
	discord.State.MaxMessageCount = stateMessageLimit
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	discord.Unlock()

	sink := helpers.NewSessionSink(discord)
	notifier := &helpers.OperatorNotifier{
		Sink:      sink,
		UserID:    config.OwnerID,
		ChannelID: config.OperatorChannelID,
	}

	// Restore the engines
	levelEngine := levels.NewEngine(
		levels.WithCooldown(config.LevelsCooldown),
		levels.WithGainRange(config.LevelsMinGain, config.LevelsMaxGain),
	)
	levelEngine.Restore(snapshot.Levels)

	autoresponderEngine := autoresponder.NewEngine()
	autoresponderEngine.Restore(snapshot.Autoresponders)

	reactionRoleEngine := reactionroles.NewEngine(sink, selfID(discord),
		reactionroles.WithDMConfirmation(config.ReactionRolesDMConfirmation),
		reactionroles.WithNotifier(notifier),
		reactionroles.WithRoleNamer(roleNamer(discord)),
	)
	reactionRoleEngine.Restore(snapshot.ReactionRoles)

	log.WithField("module", "launcher").Infof("restored %d guilds with levels, %d reaction roles, %d guilds with autoresponders",
		len(snapshot.Levels), len(snapshot.ReactionRoles), len(snapshot.Autoresponders))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := autosave.New(store, func() persistence.Snapshot {
		return persistence.Snapshot{
			Levels:         levelEngine.Snapshot(),
			ReactionRoles:  reactionRoleEngine.Snapshot(),
			Autoresponders: autoresponderEngine.Snapshot(),
		}
	}, notifier,
		autosave.WithInterval(config.AutosaveInterval),
		autosave.WithCheckInterval(config.AutosaveCheck),
	)

	// Run ratelimiter
	bucket := ratelimits.NewBucketContainer()
	bucket.Start(ctx)

	authorizer := &helpers.SessionAuthorizer{Session: discord, OwnerID: config.OwnerID}
	registry, err := modules.NewRegistry(
		[]modules.Plugin{
			levels.New(levelEngine, sink, config.LevelsAnnounce),
			autoresponder.New(autoresponderEngine, sink, config.Prefix),
			reactionroles.New(reactionRoleEngine, sink),
			snipe.New(snipe.NewStore(), sink),
			plugins.NewSave(scheduler, sink),
		},
		authorizer,
		modules.LogCommand(notifier, config.NotifyCommands),
		modules.Respond(sink),
		modules.Recover(notifier),
		modules.RateLimit(bucket, authorizer),
	)
	if err != nil {
		log.WithField("module", "launcher").Fatal(err.Error())
	}

	bot := &Bot{
		ctx:      ctx,
		prefix:   config.Prefix,
		registry: registry,
		sink:     sink,
	}
	discord.AddHandler(bot.BotOnReady)
	discord.AddHandler(bot.BotOnMessageCreate)
	discord.AddHandler(bot.BotOnMessageDelete)
	discord.AddHandler(bot.BotOnReactionAdd)
	discord.AddHandler(bot.BotOnReactionRemove)
	discord.AddHandlerOnce(metrics.OnReady)
	discord.AddHandler(metrics.OnMessageCreate)

	// Connect to discord
	err = discord.Open()
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		log.WithField("module", "launcher").Fatal(err.Error())
	}

	// Start autosave
	autosaveDone := make(chan struct{})
	go func() {
		defer close(autosaveDone)
		scheduler.Run(ctx)
	}()

	// Open REST API
	if config.RestAddress != "" {
		api := &rest.API{
			Levels:         levelEngine,
			ReactionRoles:  reactionRoleEngine,
			Autoresponders: autoresponderEngine,
			LastSave:       scheduler.LastSave,
			Started:        time.Now(),
		}
		server := &http.Server{Addr: config.RestAddress, Handler: api.NewContainer(config.RestAllowedOrigins)}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithField("module", "launcher").Error("REST API died: ", err.Error())
			}
		}()
		defer server.Close()
		log.WithField("module", "launcher").Info("REST API listening on " + config.RestAddress)
	}

	// Make a channel that waits for a os signal
	botRuntimeChannel := make(chan os.Signal, 1)
	signal.Notify(botRuntimeChannel, os.Interrupt, syscall.SIGTERM)

	// Wait until the os wants us to shutdown
	<-botRuntimeChannel

	log.WithField("module", "launcher").Info("Pebble is stopping")
	log.WithField("module", "launcher").Info("Disconnecting bot discord session...")
	discord.Close()

	log.WithField("module", "launcher").Info("Saving state...")
	cancel()
	<-autosaveDone
}

func openStore(config *helpers.BotConfig, log *logrus.Logger) persistence.Store {
	if config.StorageBackend != "redis" {
		log.WithField("module", "launcher").Info("Storing state in " + config.DataDir)
		return persistence.NewFileStore(config.DataDir)
	}

	// Connecting to redis
	log.WithField("module", "launcher").Info("Connecting to redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddress,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err := redisClient.Ping().Err(); err != nil {
		log.WithField("module", "launcher").Fatal("redis not reachable: ", err.Error())
	}
	return persistence.NewRedisStore(redisClient, config.RedisKeyPrefix)
}

func selfID(session *discordgo.Session) func() string {
	return func() string {
		session.State.RLock()
		defer session.State.RUnlock()
		if session.State.User == nil {
			return ""
		}
		return session.State.User.ID
	}
}

func roleNamer(session *discordgo.Session) func(guildID, roleID string) string {
	return func(guildID, roleID string) string {
		if guildID != "" {
			if role, err := session.State.Role(guildID, roleID); err == nil {
				return role.Name
			}
		}
		return "<@&" + roleID + ">"
	}
}

// discordLogger bridges discordgo's logging into logrus
func discordLogger(log *logrus.Logger) func(msgL, caller int, format string, a ...interface{}) {
	return func(msgL, caller int, format string, a ...interface{}) {
		pc, file, line, _ := runtime.Caller(caller)

		files := strings.Split(file, "/")
		file = files[len(files)-1]

		name := runtime.FuncForPC(pc).Name()
		fns := strings.Split(name, ".")
		name = fns[len(fns)-1]

		msg := format
		if strings.Contains(msg, "%") {
			msg = fmt.Sprintf(format, a...)
		}

		switch msgL {
		case discordgo.LogError:
			log.WithField("module", "discordgo").Errorf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogWarning:
			log.WithField("module", "discordgo").Warnf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogInformational:
			log.WithField("module", "discordgo").Infof("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogDebug:
			log.WithField("module", "discordgo").Debugf("%s:%d:%s() %s", file, line, name, msg)
		}
	}
}
