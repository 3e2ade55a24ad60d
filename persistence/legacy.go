package persistence

import (
	"strings"
	"time"

	"github.com/Seklfreak/Pebble/models"
	"github.com/bradfitz/slice"
	"github.com/pkg/errors"
)

// Files written before the versioned schema existed have no version key:
//
//	xp_data.json:        {"<guild>": {"<user>": {"xp": 120, "level": 1, "last_msg": "2024-01-01T12:00:00.123456"}}}
//	reaction_roles.json: {"<message>": {"<emoji>": 123456789}}
var legacyTimestampFormats = []string{
	timestampFormat,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

type versionProbe struct {
	Version int `json:"version"`
}

type legacyLevelRecord struct {
	XP      int64   `json:"xp"`
	Level   int     `json:"level"`
	LastMsg *string `json:"last_msg"`
}

// legacyRoleID accepts role ids stored as numbers or strings.
type legacyRoleID string

func (r *legacyRoleID) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		return errors.New("empty role id")
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			return errors.Errorf("invalid role id %s", string(data))
		}
	}
	*r = legacyRoleID(text)
	return nil
}

// parseTimestamp reads RFC 3339 and the naive UTC timestamps older files contain.
func parseTimestamp(text string) (time.Time, error) {
	for _, format := range legacyTimestampFormats {
		parsed, err := time.Parse(format, text)
		if err == nil {
			return parsed.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid timestamp %q", text)
}

func decodeLegacyLevels(data []byte) (map[string]map[string]models.LevelRecord, error) {
	var legacy map[string]map[string]legacyLevelRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	document := levelsDocument{
		Version: SchemaVersion,
		Guilds:  make(map[string]map[string]levelRecordDocument, len(legacy)),
	}
	for guildID, users := range legacy {
		guild := make(map[string]levelRecordDocument, len(users))
		for userID, record := range users {
			guild[userID] = levelRecordDocument{
				XP:            record.XP,
				Level:         record.Level,
				LastMessageAt: record.LastMsg,
			}
		}
		document.Guilds[guildID] = guild
	}
	return decodeLevels(document)
}

func decodeLegacyReactionRoles(data []byte) ([]models.ReactionRoleBinding, error) {
	var legacy map[string]map[string]legacyRoleID
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	var bindings []models.ReactionRoleBinding
	for messageID, emojis := range legacy {
		for emoji, roleID := range emojis {
			bindings = append(bindings, models.ReactionRoleBinding{
				MessageID: messageID,
				Emoji:     emoji,
				RoleID:    string(roleID),
			})
		}
	}
	sortBindings(bindings)
	return bindings, nil
}

func sortBindings(bindings []models.ReactionRoleBinding) {
	slice.Sort(bindings, func(i, j int) bool {
		if bindings[i].MessageID != bindings[j].MessageID {
			return bindings[i].MessageID < bindings[j].MessageID
		}
		return bindings[i].Emoji < bindings[j].Emoji
	})
}
