package persistence

import (
	"os"
	"path/filepath"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	LevelsFile         = "xp_data.json"
	ReactionRolesFile  = "reaction_roles.json"
	AutorespondersFile = "autoresponders.json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore keeps every snapshot part in its own JSON file inside a directory.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Save writes all files. Each file is replaced atomically, a reader never
// sees a partially written file.
func (s *FileStore) Save(snapshot Snapshot) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return helpers.StorageError("save snapshot", err)
	}

	parts := []struct {
		name     string
		document interface{}
	}{
		{LevelsFile, encodeLevels(snapshot.Levels)},
		{ReactionRolesFile, encodeReactionRoles(snapshot.ReactionRoles)},
		{AutorespondersFile, encodeAutoresponders(snapshot.Autoresponders)},
	}
	for _, part := range parts {
		data, err := json.MarshalIndent(part.document, "", "  ")
		if err != nil {
			return helpers.StorageError("save "+part.name, err)
		}
		if err = writeFileAtomic(s.Dir, s.path(part.name), data); err != nil {
			return helpers.StorageError("save "+part.name, err)
		}
	}
	return nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}

// Load reads all files. Missing files count as empty, unreadable or
// malformed ones fail the whole load.
func (s *FileStore) Load() (snapshot Snapshot, err error) {
	snapshot.Levels, err = s.loadLevels()
	if err != nil {
		return Snapshot{}, helpers.StorageError("load "+LevelsFile, err)
	}
	snapshot.ReactionRoles, err = s.loadReactionRoles()
	if err != nil {
		return Snapshot{}, helpers.StorageError("load "+ReactionRolesFile, err)
	}
	snapshot.Autoresponders, err = s.loadAutoresponders()
	if err != nil {
		return Snapshot{}, helpers.StorageError("load "+AutorespondersFile, err)
	}
	return snapshot, nil
}

// read returns the file's content and its schema version, 0 for files
// without one. A missing file returns nil data.
func (s *FileStore) read(name string) ([]byte, int, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var probe versionProbe
	if err = json.Unmarshal(data, &probe); err != nil {
		return nil, 0, errors.Wrap(err, "malformed json")
	}
	if probe.Version > SchemaVersion || probe.Version < 0 {
		return nil, 0, errors.Errorf("unsupported schema version %d", probe.Version)
	}
	return data, probe.Version, nil
}

func (s *FileStore) loadLevels() (map[string]map[string]models.LevelRecord, error) {
	data, version, err := s.read(LevelsFile)
	if err != nil || data == nil {
		return nil, err
	}

	if version == 0 {
		cache.GetLogger().WithField("module", "persistence").Infof("importing unversioned %s", LevelsFile)
		return decodeLegacyLevels(data)
	}

	var document levelsDocument
	if err = json.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrap(err, "malformed levels document")
	}
	return decodeLevels(document)
}

func (s *FileStore) loadReactionRoles() ([]models.ReactionRoleBinding, error) {
	data, version, err := s.read(ReactionRolesFile)
	if err != nil || data == nil {
		return nil, err
	}

	if version == 0 {
		cache.GetLogger().WithField("module", "persistence").Infof("importing unversioned %s", ReactionRolesFile)
		return decodeLegacyReactionRoles(data)
	}

	var document reactionRolesDocument
	if err = json.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrap(err, "malformed reaction roles document")
	}
	return decodeReactionRoles(document), nil
}

func (s *FileStore) loadAutoresponders() (map[string][]models.AutoresponderRule, error) {
	data, version, err := s.read(AutorespondersFile)
	if err != nil || data == nil {
		return nil, err
	}
	if version == 0 {
		return nil, errors.New("autoresponders document without version")
	}

	var document autorespondersDocument
	if err = json.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrap(err, "malformed autoresponders document")
	}
	return decodeAutoresponders(document)
}
