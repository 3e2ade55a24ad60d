package levels

import (
	"sort"
	"sync"
	"time"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/metrics"
	"github.com/Seklfreak/Pebble/models"
	"github.com/bradfitz/slice"
)

const (
	DefaultCooldown = 60 * time.Second
	DefaultMinGain  = 15
	DefaultMaxGain  = 25
)

// LevelUp is returned by OnMessage when a message pushed a user over a level boundary.
type LevelUp struct {
	GuildID       string
	UserID        string
	PreviousLevel int
	Level         int
	XP            int64
}

// Totals is the result of a manual grant.
type Totals struct {
	XP            int64
	Level         int
	PreviousLevel int
	LeveledUp     bool
}

type RankInfo struct {
	Level             int
	XP                int64
	XPForCurrentLevel int64
	XPForNextLevel    int64
	XPIntoLevel       int64
	XPNeeded          int64
	Progress          float64
}

type Standing struct {
	Position int
	UserID   string
	Record   models.LevelRecord

	sequence uint64
}

type entry struct {
	record   models.LevelRecord
	sequence uint64
}

// Engine owns the exp counters of every (guild, user) pair.
// No method calls out to discord while holding the lock.
type Engine struct {
	sync.RWMutex

	guilds   map[string]map[string]*entry
	sequence uint64

	cooldown time.Duration
	minGain  int64
	maxGain  int64
	gain     func(min, max int64) int64
}

type Option func(e *Engine)

func WithCooldown(cooldown time.Duration) Option {
	return func(e *Engine) {
		if cooldown >= 0 {
			e.cooldown = cooldown
		}
	}
}

func WithGainRange(min, max int64) Option {
	return func(e *Engine) {
		if min > 0 && max >= min {
			e.minGain = min
			e.maxGain = max
		}
	}
}

// WithGainFunc replaces the random exp roll, used by tests.
func WithGainFunc(gain func(min, max int64) int64) Option {
	return func(e *Engine) {
		e.gain = gain
	}
}

func NewEngine(options ...Option) *Engine {
	e := &Engine{
		guilds:   make(map[string]map[string]*entry),
		cooldown: DefaultCooldown,
		minGain:  DefaultMinGain,
		maxGain:  DefaultMaxGain,
		gain:     getRandomExpForMessage,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// must be called with the write lock held
func (e *Engine) getOrCreate(guildID, userID string) *entry {
	users, ok := e.guilds[guildID]
	if !ok {
		users = make(map[string]*entry)
		e.guilds[guildID] = users
	}
	item, ok := users[userID]
	if !ok {
		e.sequence++
		item = &entry{sequence: e.sequence}
		users[userID] = item
	}
	return item
}

// OnMessage awards exp for a message sent at now, unless the user is still on cooldown.
func (e *Engine) OnMessage(guildID, userID string, now time.Time) (LevelUp, bool) {
	e.Lock()
	defer e.Unlock()

	item := e.getOrCreate(guildID, userID)
	if item.record.LastMessageAt != nil && now.Sub(*item.record.LastMessageAt) < e.cooldown {
		return LevelUp{}, false
	}

	gained := e.gain(e.minGain, e.maxGain)
	levelBefore := item.record.Level
	item.record.XP += gained
	item.record.Level = GetLevelFromExp(item.record.XP)
	messageAt := now
	item.record.LastMessageAt = &messageAt

	metrics.LevelsExpGranted.Add(gained)

	if item.record.Level <= levelBefore {
		return LevelUp{}, false
	}
	metrics.LevelsLevelUps.Add(1)
	return LevelUp{
		GuildID:       guildID,
		UserID:        userID,
		PreviousLevel: levelBefore,
		Level:         item.record.Level,
		XP:            item.record.XP,
	}, true
}

// GrantXP adds amount exp right away, ignoring the cooldown.
func (e *Engine) GrantXP(guildID, userID string, amount int64) (Totals, error) {
	if amount <= 0 {
		return Totals{}, helpers.InvalidArgument("grant xp", "amount must be positive, got %d", amount)
	}

	e.Lock()
	defer e.Unlock()

	item := e.getOrCreate(guildID, userID)
	levelBefore := item.record.Level
	item.record.XP += amount
	item.record.Level = GetLevelFromExp(item.record.XP)

	metrics.LevelsExpGranted.Add(amount)

	totals := Totals{
		XP:            item.record.XP,
		Level:         item.record.Level,
		PreviousLevel: levelBefore,
		LeveledUp:     item.record.Level > levelBefore,
	}
	if totals.LeveledUp {
		metrics.LevelsLevelUps.Add(1)
	}
	return totals, nil
}

func (e *Engine) Record(guildID, userID string) (models.LevelRecord, bool) {
	e.RLock()
	defer e.RUnlock()

	item, ok := e.guilds[guildID][userID]
	if !ok {
		return models.LevelRecord{}, false
	}
	return item.record.Copy(), true
}

func (e *Engine) Rank(guildID, userID string) (RankInfo, bool) {
	record, ok := e.Record(guildID, userID)
	if !ok {
		return RankInfo{}, false
	}

	info := RankInfo{
		Level:             record.Level,
		XP:                record.XP,
		XPForCurrentLevel: GetExpForLevel(record.Level),
		XPForNextLevel:    GetExpForLevel(record.Level + 1),
	}
	info.XPIntoLevel = info.XP - info.XPForCurrentLevel
	info.XPNeeded = info.XPForNextLevel - info.XPForCurrentLevel
	info.Progress = float64(info.XPIntoLevel) / float64(info.XPNeeded)
	return info, true
}

// Leaderboard returns the guild's users by exp, highest first. Users with the
// same exp keep the order in which their records were created.
func (e *Engine) Leaderboard(guildID string) []Standing {
	e.RLock()
	standings := make([]Standing, 0, len(e.guilds[guildID]))
	for userID, item := range e.guilds[guildID] {
		standings = append(standings, Standing{
			UserID:   userID,
			Record:   item.record.Copy(),
			sequence: item.sequence,
		})
	}
	e.RUnlock()

	slice.Sort(standings, func(i, j int) bool {
		if standings[i].Record.XP != standings[j].Record.XP {
			return standings[i].Record.XP > standings[j].Record.XP
		}
		return standings[i].sequence < standings[j].sequence
	})
	for i := range standings {
		standings[i].Position = i + 1
	}
	return standings
}

// Snapshot returns a deep copy of all records, keyed by guild id and user id.
func (e *Engine) Snapshot() map[string]map[string]models.LevelRecord {
	e.RLock()
	defer e.RUnlock()

	snapshot := make(map[string]map[string]models.LevelRecord, len(e.guilds))
	for guildID, users := range e.guilds {
		guildSnapshot := make(map[string]models.LevelRecord, len(users))
		for userID, item := range users {
			guildSnapshot[userID] = item.record.Copy()
		}
		snapshot[guildID] = guildSnapshot
	}
	return snapshot
}

// Restore replaces all records. Levels are recomputed from exp, and the
// insertion order used for leaderboard ties follows sorted user ids.
func (e *Engine) Restore(data map[string]map[string]models.LevelRecord) {
	guilds := make(map[string]map[string]*entry, len(data))
	var sequence uint64

	guildIDs := make([]string, 0, len(data))
	for guildID := range data {
		guildIDs = append(guildIDs, guildID)
	}
	sort.Strings(guildIDs)

	for _, guildID := range guildIDs {
		users := data[guildID]
		userIDs := make([]string, 0, len(users))
		for userID := range users {
			userIDs = append(userIDs, userID)
		}
		sort.Strings(userIDs)

		guilds[guildID] = make(map[string]*entry, len(users))
		for _, userID := range userIDs {
			record := users[userID].Copy()
			if record.XP < 0 {
				record.XP = 0
			}
			record.Level = GetLevelFromExp(record.XP)
			sequence++
			guilds[guildID][userID] = &entry{record: record, sequence: sequence}
		}
	}

	e.Lock()
	e.guilds = guilds
	e.sequence = sequence
	e.Unlock()
}
