package autoresponder

import (
	"strings"
	"sync"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/metrics"
	"github.com/Seklfreak/Pebble/models"
	"github.com/pkg/errors"
	"github.com/renstrom/fuzzysearch/fuzzy"
)

// Engine owns the trigger table of every guild. Rules of a guild are kept in
// registration order, which is also the order Match scans them in.
type Engine struct {
	sync.RWMutex

	guilds map[string][]models.AutoresponderRule
}

// InvalidEmojiError lists every emoji of a reaction rule that failed validation.
type InvalidEmojiError struct {
	Emojis []string
}

func (e *InvalidEmojiError) Error() string {
	return "invalid emoji: " + strings.Join(e.Emojis, " ")
}

func NewEngine() *Engine {
	return &Engine{guilds: make(map[string][]models.AutoresponderRule)}
}

func NormalizeTrigger(trigger string) string {
	return strings.ToLower(strings.TrimSpace(trigger))
}

// AddTextRule adds or replaces the text reply for trigger.
func (e *Engine) AddTextRule(guildID, trigger, reply string) error {
	trigger = NormalizeTrigger(trigger)
	if trigger == "" || strings.TrimSpace(reply) == "" {
		return helpers.InvalidArgumentText("add autoresponder", helpers.GetText("plugins.autoresponder.add-missing"))
	}

	e.upsert(guildID, models.AutoresponderRule{
		Trigger: trigger,
		Kind:    models.RuleKindText,
		Reply:   reply,
	})
	return nil
}

// AddReactionRule adds or replaces the reactions for trigger. Every emoji is
// passed to validate; the rule is only stored if all of them pass.
// validate may call out to discord, so it runs before the lock is taken.
func (e *Engine) AddReactionRule(guildID, trigger string, emojis []string, validate func(emoji string) error) error {
	trigger = NormalizeTrigger(trigger)
	if trigger == "" || len(emojis) == 0 {
		return helpers.InvalidArgumentText("add autoresponder", helpers.GetText("plugins.autoresponder.react-missing"))
	}

	canonical := make([]string, 0, len(emojis))
	for _, emoji := range emojis {
		canonical = append(canonical, helpers.CanonicalEmoji(emoji))
	}

	if validate != nil {
		invalid := &InvalidEmojiError{}
		for _, emoji := range canonical {
			if err := validate(emoji); err != nil {
				cache.GetLogger().WithField("module", "autoresponder").Debugf(
					"emoji %s failed validation: %s", emoji, err.Error())
				invalid.Emojis = append(invalid.Emojis, emoji)
			}
		}
		if len(invalid.Emojis) > 0 {
			return helpers.NewError(helpers.KindInvalidArgument, "add autoresponder", invalid)
		}
	}

	e.upsert(guildID, models.AutoresponderRule{
		Trigger: trigger,
		Kind:    models.RuleKindReaction,
		Emojis:  canonical,
	})
	return nil
}

// upsert replaces an existing rule in place, so it keeps its match priority
func (e *Engine) upsert(guildID string, rule models.AutoresponderRule) {
	e.Lock()
	defer e.Unlock()

	rules := e.guilds[guildID]
	for i := range rules {
		if rules[i].Trigger == rule.Trigger {
			rules[i] = rule
			return
		}
	}
	e.guilds[guildID] = append(rules, rule)
}

// RemoveRule deletes the rule for trigger and reports whether it existed.
func (e *Engine) RemoveRule(guildID, trigger string) bool {
	trigger = NormalizeTrigger(trigger)

	e.Lock()
	defer e.Unlock()

	rules := e.guilds[guildID]
	for i := range rules {
		if rules[i].Trigger == trigger {
			e.guilds[guildID] = append(rules[:i:i], rules[i+1:]...)
			if len(e.guilds[guildID]) == 0 {
				delete(e.guilds, guildID)
			}
			return true
		}
	}
	return false
}

// Rules returns a copy of the guild's rules in match order.
func (e *Engine) Rules(guildID string) []models.AutoresponderRule {
	e.RLock()
	defer e.RUnlock()

	rules := make([]models.AutoresponderRule, 0, len(e.guilds[guildID]))
	for _, rule := range e.guilds[guildID] {
		rules = append(rules, rule.Copy())
	}
	return rules
}

// Suggest returns existing triggers that fuzzily match trigger.
func (e *Engine) Suggest(guildID, trigger string) []string {
	e.RLock()
	triggers := make([]string, 0, len(e.guilds[guildID]))
	for _, rule := range e.guilds[guildID] {
		triggers = append(triggers, rule.Trigger)
	}
	e.RUnlock()

	return fuzzy.FindFold(NormalizeTrigger(trigger), triggers)
}

// Match returns the first rule, in registration order, whose trigger is
// contained in text, ignoring case.
func (e *Engine) Match(guildID, text string) (models.AutoresponderRule, bool) {
	text = strings.ToLower(text)

	e.RLock()
	defer e.RUnlock()

	for _, rule := range e.guilds[guildID] {
		if strings.Contains(text, rule.Trigger) {
			return rule.Copy(), true
		}
	}
	return models.AutoresponderRule{}, false
}

// Dispatch performs rule's action for the message messageID in channelID.
// Reactions that fail are skipped; the first error is returned after all
// reactions were attempted.
func Dispatch(sink helpers.ActionSink, channelID, messageID string, rule models.AutoresponderRule) error {
	metrics.AutorespondersTriggered.Add(1)

	switch rule.Kind {
	case models.RuleKindText:
		_, err := sink.SendMessage(channelID, rule.Reply)
		return err
	case models.RuleKindReaction:
		var firstErr error
		for _, emoji := range rule.Emojis {
			if err := sink.AddReaction(channelID, messageID, emoji); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return errors.Errorf("unknown autoresponder kind %q", rule.Kind)
}

// Snapshot returns a deep copy of all rules keyed by guild id.
func (e *Engine) Snapshot() map[string][]models.AutoresponderRule {
	e.RLock()
	defer e.RUnlock()

	snapshot := make(map[string][]models.AutoresponderRule, len(e.guilds))
	for guildID, rules := range e.guilds {
		copied := make([]models.AutoresponderRule, 0, len(rules))
		for _, rule := range rules {
			copied = append(copied, rule.Copy())
		}
		snapshot[guildID] = copied
	}
	return snapshot
}

// Restore replaces all rules. Triggers are normalized and later duplicates dropped.
func (e *Engine) Restore(data map[string][]models.AutoresponderRule) {
	guilds := make(map[string][]models.AutoresponderRule, len(data))
	for guildID, rules := range data {
		seen := make(map[string]bool, len(rules))
		for _, rule := range rules {
			rule = rule.Copy()
			rule.Trigger = NormalizeTrigger(rule.Trigger)
			if rule.Trigger == "" || seen[rule.Trigger] {
				continue
			}
			seen[rule.Trigger] = true
			guilds[guildID] = append(guilds[guildID], rule)
		}
	}

	e.Lock()
	e.guilds = guilds
	e.Unlock()
}
