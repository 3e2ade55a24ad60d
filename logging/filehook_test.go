package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestFileHookWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pebble.log")
	hook, err := NewFileHook(path, logrus.InfoLevel)
	if err != nil {
		t.Fatal(err)
	}

	log := logrus.New()
	log.Out = discard{}
	log.Level = logrus.DebugLevel
	log.Hooks.Add(hook)

	log.WithField("module", "test").Info("first")
	log.Debug("not written")
	log.WithField("module", "test").Error("second")
	if err = hook.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	var messages []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("line %q is not json: %v", scanner.Text(), err)
		}
		if line["module"] != "test" {
			t.Errorf("line %v lost its fields", line)
		}
		messages = append(messages, line["msg"].(string))
	}
	if len(messages) != 2 || messages[0] != "first" || messages[1] != "second" {
		t.Fatalf("messages = %v", messages)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
