// Package persistence moves engine snapshots in and out of durable storage.
// The stored documents are versioned and never share types with the engines.
package persistence

import (
	"time"

	"github.com/Seklfreak/Pebble/models"
	"github.com/pkg/errors"
)

// Snapshot is the full durable state of the bot.
type Snapshot struct {
	Levels         map[string]map[string]models.LevelRecord // guild → user → record
	ReactionRoles  []models.ReactionRoleBinding
	Autoresponders map[string][]models.AutoresponderRule // guild → rules in match order
}

// Empty reports whether the snapshot holds no state at all.
func (s Snapshot) Empty() bool {
	return len(s.Levels) == 0 && len(s.ReactionRoles) == 0 && len(s.Autoresponders) == 0
}

type Store interface {
	// Save replaces the stored state with snapshot.
	Save(snapshot Snapshot) error
	// Load returns the stored state, or an empty snapshot if nothing was saved yet.
	Load() (Snapshot, error)
}

const (
	SchemaVersion = 1

	timestampFormat = time.RFC3339
)

type levelsDocument struct {
	Version int                                      `json:"version" msgpack:"version"`
	Guilds  map[string]map[string]levelRecordDocument `json:"guilds" msgpack:"guilds"`
}

type levelRecordDocument struct {
	XP            int64   `json:"xp" msgpack:"xp"`
	Level         int     `json:"level" msgpack:"level"`
	LastMessageAt *string `json:"last_message_at" msgpack:"last_message_at"`
}

type reactionRolesDocument struct {
	Version  int                                       `json:"version" msgpack:"version"`
	Messages map[string]map[string]reactionRoleDocument `json:"messages" msgpack:"messages"`
}

type reactionRoleDocument struct {
	RoleID    string `json:"role_id" msgpack:"role_id"`
	GuildID   string `json:"guild_id,omitempty" msgpack:"guild_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty" msgpack:"channel_id,omitempty"`
}

type autorespondersDocument struct {
	Version int                                     `json:"version" msgpack:"version"`
	Guilds  map[string][]autoresponderRuleDocument `json:"guilds" msgpack:"guilds"`
}

type autoresponderRuleDocument struct {
	Trigger string   `json:"trigger" msgpack:"trigger"`
	Kind    string   `json:"kind" msgpack:"kind"`
	Reply   string   `json:"reply,omitempty" msgpack:"reply,omitempty"`
	Emojis  []string `json:"emojis,omitempty" msgpack:"emojis,omitempty"`
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	text := t.UTC().Truncate(time.Second).Format(timestampFormat)
	return &text
}

func encodeLevels(levels map[string]map[string]models.LevelRecord) levelsDocument {
	document := levelsDocument{
		Version: SchemaVersion,
		Guilds:  make(map[string]map[string]levelRecordDocument, len(levels)),
	}
	for guildID, users := range levels {
		guild := make(map[string]levelRecordDocument, len(users))
		for userID, record := range users {
			guild[userID] = levelRecordDocument{
				XP:            record.XP,
				Level:         record.Level,
				LastMessageAt: formatTimestamp(record.LastMessageAt),
			}
		}
		document.Guilds[guildID] = guild
	}
	return document
}

func decodeLevels(document levelsDocument) (map[string]map[string]models.LevelRecord, error) {
	levels := make(map[string]map[string]models.LevelRecord, len(document.Guilds))
	for guildID, users := range document.Guilds {
		guild := make(map[string]models.LevelRecord, len(users))
		for userID, stored := range users {
			if stored.XP < 0 {
				return nil, errors.Errorf("negative xp for user %s on guild %s", userID, guildID)
			}
			record := models.LevelRecord{XP: stored.XP, Level: stored.Level}
			if stored.LastMessageAt != nil {
				lastMessageAt, err := parseTimestamp(*stored.LastMessageAt)
				if err != nil {
					return nil, err
				}
				record.LastMessageAt = &lastMessageAt
			}
			guild[userID] = record
		}
		levels[guildID] = guild
	}
	return levels, nil
}

func encodeReactionRoles(bindings []models.ReactionRoleBinding) reactionRolesDocument {
	document := reactionRolesDocument{
		Version:  SchemaVersion,
		Messages: make(map[string]map[string]reactionRoleDocument),
	}
	for _, binding := range bindings {
		if _, ok := document.Messages[binding.MessageID]; !ok {
			document.Messages[binding.MessageID] = make(map[string]reactionRoleDocument)
		}
		document.Messages[binding.MessageID][binding.Emoji] = reactionRoleDocument{
			RoleID:    binding.RoleID,
			GuildID:   binding.GuildID,
			ChannelID: binding.ChannelID,
		}
	}
	return document
}

func decodeReactionRoles(document reactionRolesDocument) []models.ReactionRoleBinding {
	bindings := make([]models.ReactionRoleBinding, 0, len(document.Messages))
	for messageID, emojis := range document.Messages {
		for emoji, stored := range emojis {
			bindings = append(bindings, models.ReactionRoleBinding{
				MessageID: messageID,
				Emoji:     emoji,
				RoleID:    stored.RoleID,
				GuildID:   stored.GuildID,
				ChannelID: stored.ChannelID,
			})
		}
	}
	sortBindings(bindings)
	return bindings
}

func encodeAutoresponders(guilds map[string][]models.AutoresponderRule) autorespondersDocument {
	document := autorespondersDocument{
		Version: SchemaVersion,
		Guilds:  make(map[string][]autoresponderRuleDocument, len(guilds)),
	}
	for guildID, rules := range guilds {
		stored := make([]autoresponderRuleDocument, 0, len(rules))
		for _, rule := range rules {
			stored = append(stored, autoresponderRuleDocument{
				Trigger: rule.Trigger,
				Kind:    string(rule.Kind),
				Reply:   rule.Reply,
				Emojis:  rule.Emojis,
			})
		}
		document.Guilds[guildID] = stored
	}
	return document
}

func decodeAutoresponders(document autorespondersDocument) (map[string][]models.AutoresponderRule, error) {
	guilds := make(map[string][]models.AutoresponderRule, len(document.Guilds))
	for guildID, stored := range document.Guilds {
		rules := make([]models.AutoresponderRule, 0, len(stored))
		for _, rule := range stored {
			kind := models.RuleKind(rule.Kind)
			if kind != models.RuleKindText && kind != models.RuleKindReaction {
				return nil, errors.Errorf("unknown autoresponder kind %q on guild %s", rule.Kind, guildID)
			}
			rules = append(rules, models.AutoresponderRule{
				Trigger: rule.Trigger,
				Kind:    kind,
				Reply:   rule.Reply,
				Emojis:  rule.Emojis,
			})
		}
		guilds[guildID] = rules
	}
	return guilds, nil
}
