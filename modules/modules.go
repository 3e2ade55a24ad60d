package modules

import (
	"fmt"
	"strings"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Registry routes commands and gateway events to the loaded plugins.
type Registry struct {
	plugins         []Plugin
	extendedPlugins []ExtendedPlugin

	handlers    map[string]Handler
	middlewares []Middleware
	authorizer  Authorizer
}

// NewRegistry builds the command pipeline for every plugin. Each command runs
// through middlewares, then its permission check, then logger, then the plugin.
func NewRegistry(plugins []Plugin, authorizer Authorizer, logger Middleware, middlewares ...Middleware) (*Registry, error) {
	r := &Registry{
		plugins:     plugins,
		handlers:    make(map[string]Handler),
		middlewares: middlewares,
		authorizer:  authorizer,
	}

	for _, plugin := range plugins {
		if extended, ok := plugin.(ExtendedPlugin); ok {
			r.extendedPlugins = append(r.extendedPlugins, extended)
		}

		for _, command := range plugin.Commands() {
			command = strings.ToLower(command)
			if _, ok := r.handlers[command]; ok {
				return nil, errors.Errorf("command %s is registered twice", command)
			}

			permission := PermissionEveryone
			if guarded, ok := plugin.(GuardedPlugin); ok {
				permission = guarded.Permission(command)
			}

			stages := append([]Middleware{}, middlewares...)
			stages = append(stages, Authorize(permission, authorizer))
			if logger != nil {
				stages = append(stages, logger)
			}
			r.handlers[command] = Chain(plugin.Action, stages...)
		}
	}

	return r, nil
}

// Init initializes the plugins
func (r *Registry) Init(session *discordgo.Session) {
	logTemplate := "[PLUG] %s reacts to [ %s]"

	for _, plugin := range r.plugins {
		cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
			logTemplate,
			helpers.Typeof(plugin),
			strings.Join(plugin.Commands(), " ")+" ",
		))

		plugin.Init(session)
	}

	cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
		"Initializer finished. Loaded %d plugins, %d of them extended", len(r.plugins), len(r.extendedPlugins),
	))
}

// Commands lists all registered command names.
func (r *Registry) Commands() []string {
	commands := make([]string, 0, len(r.handlers))
	for command := range r.handlers {
		commands = append(commands, command)
	}
	return commands
}

// CallBotPlugin runs cmd through its pipeline. It returns false if no plugin
// handles the command.
func (r *Registry) CallBotPlugin(cmd *Command) (bool, error) {
	handler, ok := r.handlers[cmd.Name]
	if !ok {
		return false, nil
	}
	return true, handler(cmd)
}

// CallExtendedPlugin hands a message to every extended plugin in order.
// A panicking plugin does not stop the ones after it.
func (r *Registry) CallExtendedPlugin(content string, msg *discordgo.Message, session *discordgo.Session) {
	for _, extendedPlugin := range r.extendedPlugins {
		func() {
			defer helpers.Recover()
			extendedPlugin.OnMessage(strings.TrimSpace(content), msg, session)
		}()
	}
}

func (r *Registry) CallExtendedPluginOnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
	for _, extendedPlugin := range r.extendedPlugins {
		func() {
			defer helpers.Recover()
			extendedPlugin.OnMessageDelete(message, session)
		}()
	}
}

func (r *Registry) CallExtendedPluginOnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	for _, extendedPlugin := range r.extendedPlugins {
		func() {
			defer helpers.Recover()
			extendedPlugin.OnReactionAdd(reaction, session)
		}()
	}
}

func (r *Registry) CallExtendedPluginOnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
	for _, extendedPlugin := range r.extendedPlugins {
		func() {
			defer helpers.Recover()
			extendedPlugin.OnReactionRemove(reaction, session)
		}()
	}
}
