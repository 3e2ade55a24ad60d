package persistence

import (
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
)

// RedisStore keeps the same documents as FileStore, msgpack encoded, under
// three keys that are always written in one transaction.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (s *RedisStore) levelsKey() string         { return s.prefix + "levels" }
func (s *RedisStore) reactionRolesKey() string  { return s.prefix + "reactionroles" }
func (s *RedisStore) autorespondersKey() string { return s.prefix + "autoresponders" }

func (s *RedisStore) Save(snapshot Snapshot) error {
	levels, err := msgpack.Marshal(encodeLevels(snapshot.Levels))
	if err != nil {
		return helpers.StorageError("save levels", err)
	}
	reactionRoles, err := msgpack.Marshal(encodeReactionRoles(snapshot.ReactionRoles))
	if err != nil {
		return helpers.StorageError("save reaction roles", err)
	}
	autoresponders, err := msgpack.Marshal(encodeAutoresponders(snapshot.Autoresponders))
	if err != nil {
		return helpers.StorageError("save autoresponders", err)
	}

	_, err = s.client.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Set(s.levelsKey(), levels, 0)
		pipe.Set(s.reactionRolesKey(), reactionRoles, 0)
		pipe.Set(s.autorespondersKey(), autoresponders, 0)
		return nil
	})
	if err != nil {
		return helpers.StorageError("save snapshot", err)
	}
	return nil
}

func (s *RedisStore) Load() (snapshot Snapshot, err error) {
	values, err := s.client.MGet(s.levelsKey(), s.reactionRolesKey(), s.autorespondersKey()).Result()
	if err != nil {
		return Snapshot{}, helpers.StorageError("load snapshot", err)
	}
	if len(values) != 3 {
		return Snapshot{}, helpers.StorageError("load snapshot", errors.Errorf("expected 3 values, got %d", len(values)))
	}

	var levels levelsDocument
	if ok, err := decodeRedisValue(values[0], &levels); err != nil {
		return Snapshot{}, helpers.StorageError("load levels", err)
	} else if ok {
		if snapshot.Levels, err = decodeLevels(levels); err != nil {
			return Snapshot{}, helpers.StorageError("load levels", err)
		}
	}

	var reactionRoles reactionRolesDocument
	if ok, err := decodeRedisValue(values[1], &reactionRoles); err != nil {
		return Snapshot{}, helpers.StorageError("load reaction roles", err)
	} else if ok {
		snapshot.ReactionRoles = decodeReactionRoles(reactionRoles)
	}

	var autoresponders autorespondersDocument
	if ok, err := decodeRedisValue(values[2], &autoresponders); err != nil {
		return Snapshot{}, helpers.StorageError("load autoresponders", err)
	} else if ok {
		if snapshot.Autoresponders, err = decodeAutoresponders(autoresponders); err != nil {
			return Snapshot{}, helpers.StorageError("load autoresponders", err)
		}
	}

	return snapshot, nil
}

// decodeRedisValue unpacks one MGET result. Missing keys come back as nil.
func decodeRedisValue(value interface{}, document interface{}) (bool, error) {
	if value == nil {
		return false, nil
	}
	text, ok := value.(string)
	if !ok {
		return false, errors.Errorf("unexpected redis value %T", value)
	}
	if err := msgpack.Unmarshal([]byte(text), document); err != nil {
		return false, errors.Wrap(err, "malformed msgpack document")
	}

	var version int
	switch document := document.(type) {
	case *levelsDocument:
		version = document.Version
	case *reactionRolesDocument:
		version = document.Version
	case *autorespondersDocument:
		version = document.Version
	}
	if version != SchemaVersion {
		return false, errors.Errorf("unsupported schema version %d", version)
	}
	return true, nil
}
