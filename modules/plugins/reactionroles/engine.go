package reactionroles

import (
	"strings"
	"sync"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/metrics"
	"github.com/Seklfreak/Pebble/models"
	"github.com/bradfitz/slice"
)

// Outcome is what handling a reaction event led to.
type Outcome int

const (
	OutcomeIgnored Outcome = iota // reaction of the bot itself
	OutcomeUnbound
	OutcomeGranted
	OutcomeRevoked
	OutcomeDenied // discord refused, reported in the channel
	OutcomeFailed // logged and dropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeUnbound:
		return "unbound"
	case OutcomeGranted:
		return "granted"
	case OutcomeRevoked:
		return "revoked"
	case OutcomeDenied:
		return "denied"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Reaction is a reaction add or remove event.
type Reaction struct {
	GuildID   string
	ChannelID string
	MessageID string
	Emoji     string
	UserID    string
}

type Option func(*Engine)

// WithDMConfirmation sends the member a direct message after a role was granted.
func WithDMConfirmation(enabled bool) Option {
	return func(e *Engine) {
		e.dmConfirmation = enabled
	}
}

// WithRoleNamer sets how roles are named in messages. The default is a role mention.
func WithRoleNamer(namer func(guildID, roleID string) string) Option {
	return func(e *Engine) {
		e.roleName = namer
	}
}

// WithNotifier reports unexpected failures to the operator.
func WithNotifier(notifier helpers.Notifier) Option {
	return func(e *Engine) {
		e.notifier = notifier
	}
}

// Engine owns the (message, emoji) → role bindings and turns reaction
// events into role changes.
type Engine struct {
	sync.RWMutex

	bindings map[string]map[string]models.ReactionRoleBinding

	sink           helpers.ActionSink
	selfID         func() string
	notifier       helpers.Notifier
	dmConfirmation bool
	roleName       func(guildID, roleID string) string
}

func NewEngine(sink helpers.ActionSink, selfID func() string, options ...Option) *Engine {
	engine := &Engine{
		bindings: make(map[string]map[string]models.ReactionRoleBinding),
		sink:     sink,
		selfID:   selfID,
		notifier: helpers.NopNotifier{},
		roleName: func(guildID, roleID string) string {
			return "<@&" + roleID + ">"
		},
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// Bind stores binding, replacing any role bound to the same message and emoji.
func (e *Engine) Bind(binding models.ReactionRoleBinding) error {
	binding.Emoji = helpers.CanonicalEmoji(binding.Emoji)
	if binding.MessageID == "" || binding.Emoji == "" || binding.RoleID == "" {
		return helpers.InvalidArgumentText("bind reaction role", helpers.GetText("plugins.reactionroles.usage"))
	}

	e.Lock()
	defer e.Unlock()

	if _, ok := e.bindings[binding.MessageID]; !ok {
		e.bindings[binding.MessageID] = make(map[string]models.ReactionRoleBinding)
	}
	e.bindings[binding.MessageID][binding.Emoji] = binding
	return nil
}

// Unbind removes the binding and reports whether there was one.
func (e *Engine) Unbind(messageID, emoji string) (models.ReactionRoleBinding, bool) {
	emoji = helpers.CanonicalEmoji(emoji)

	e.Lock()
	defer e.Unlock()

	binding, ok := e.bindings[messageID][emoji]
	if !ok {
		return binding, false
	}
	delete(e.bindings[messageID], emoji)
	if len(e.bindings[messageID]) == 0 {
		delete(e.bindings, messageID)
	}
	return binding, true
}

func (e *Engine) Lookup(messageID, emoji string) (models.ReactionRoleBinding, bool) {
	e.RLock()
	defer e.RUnlock()

	binding, ok := e.bindings[messageID][helpers.CanonicalEmoji(emoji)]
	return binding, ok
}

// List returns the bindings of a guild ordered by message and emoji.
func (e *Engine) List(guildID string) []models.ReactionRoleBinding {
	var list []models.ReactionRoleBinding
	for _, binding := range e.Snapshot() {
		if binding.GuildID == guildID {
			list = append(list, binding)
		}
	}
	return list
}

func (e *Engine) OnReactionAdd(reaction Reaction) Outcome {
	return e.handle(reaction, true)
}

func (e *Engine) OnReactionRemove(reaction Reaction) Outcome {
	return e.handle(reaction, false)
}

func (e *Engine) handle(reaction Reaction, add bool) Outcome {
	if e.selfID != nil && reaction.UserID == e.selfID() {
		return OutcomeIgnored
	}

	binding, ok := e.Lookup(reaction.MessageID, reaction.Emoji)
	if !ok {
		return OutcomeUnbound
	}

	guildID := reaction.GuildID
	if guildID == "" {
		guildID = binding.GuildID
	}

	var err error
	if add {
		err = e.sink.GrantRole(guildID, reaction.UserID, binding.RoleID)
	} else {
		err = e.sink.RevokeRole(guildID, reaction.UserID, binding.RoleID)
	}
	if err != nil {
		return e.failed(reaction, guildID, binding, add, err)
	}

	outcome, text := OutcomeGranted, "plugins.reactionroles.dm-granted"
	if add {
		metrics.ReactionRolesGranted.Add(1)
	} else {
		metrics.ReactionRolesRevoked.Add(1)
		outcome, text = OutcomeRevoked, "plugins.reactionroles.dm-revoked"
	}

	if e.dmConfirmation {
		err = e.sink.SendDirectMessage(reaction.UserID, helpers.GetTextF(text, e.roleName(guildID, binding.RoleID)))
		if err != nil {
			// members with closed DMs
			cache.GetLogger().WithField("module", "reactionroles").Debugf(
				"could not send role confirmation to #%s: %s", reaction.UserID, err.Error())
		}
	}
	return outcome
}

func (e *Engine) failed(reaction Reaction, guildID string, binding models.ReactionRoleBinding, add bool, err error) Outcome {
	metrics.ReactionRolesFailed.Add(1)
	logger := cache.GetLogger().WithField("module", "reactionroles")

	action := "grant"
	if !add {
		action = "revoke"
	}

	switch helpers.KindOf(err) {
	case helpers.KindPermissionDenied:
		textID := "plugins.reactionroles.no-permission-grant"
		if !add {
			textID = "plugins.reactionroles.no-permission-revoke"
		}
		_, sendErr := e.sink.SendMessage(reaction.ChannelID, helpers.GetTextF(textID, e.roleName(guildID, binding.RoleID)))
		if sendErr != nil {
			logger.Warnf("failed to report missing permissions in #%s: %s", reaction.ChannelID, sendErr.Error())
		}
		return OutcomeDenied
	case helpers.KindNotFound:
		logger.Debugf("could not %s role #%s to #%s, it is gone: %s", action, binding.RoleID, reaction.UserID, err.Error())
	default:
		logger.Errorf("could not %s role #%s to #%s on #%s: %s",
			action, binding.RoleID, reaction.UserID, guildID, err.Error())
		if !helpers.IsKind(err, helpers.KindTransient) {
			e.notifier.Notify("Error in reaction role " + action + ": " + err.Error())
		}
	}
	return OutcomeFailed
}

// Snapshot returns all bindings ordered by message and emoji.
func (e *Engine) Snapshot() []models.ReactionRoleBinding {
	e.RLock()
	list := make([]models.ReactionRoleBinding, 0, len(e.bindings))
	for _, emojis := range e.bindings {
		for _, binding := range emojis {
			list = append(list, binding)
		}
	}
	e.RUnlock()

	slice.Sort(list, func(i, j int) bool {
		if list[i].MessageID != list[j].MessageID {
			return list[i].MessageID < list[j].MessageID
		}
		return strings.Compare(list[i].Emoji, list[j].Emoji) < 0
	})
	return list
}

// Restore replaces all bindings. Incomplete entries are skipped.
func (e *Engine) Restore(list []models.ReactionRoleBinding) {
	bindings := make(map[string]map[string]models.ReactionRoleBinding)
	for _, binding := range list {
		binding.Emoji = helpers.CanonicalEmoji(binding.Emoji)
		if binding.MessageID == "" || binding.Emoji == "" || binding.RoleID == "" {
			continue
		}
		if _, ok := bindings[binding.MessageID]; !ok {
			bindings[binding.MessageID] = make(map[string]models.ReactionRoleBinding)
		}
		bindings[binding.MessageID][binding.Emoji] = binding
	}

	e.Lock()
	e.bindings = bindings
	e.Unlock()
}
