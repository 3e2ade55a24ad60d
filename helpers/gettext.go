package helpers

import (
	_ "embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/Jeffail/gabs"
)

//go:embed assets/i18n.json
var i18nJSON []byte

var (
	translations     *gabs.Container
	translationsOnce sync.Once
)

// LoadTranslations parses the embedded translation file. GetText calls it lazily.
func LoadTranslations() {
	translationsOnce.Do(func() {
		json, err := gabs.ParseJSON(i18nJSON)
		if err != nil {
			panic(err)
		}
		translations = json
	})
}

// GetText returns the text for id, or id itself if there is none.
func GetText(id string) string {
	LoadTranslations()

	if !translations.ExistsP(id) {
		return id
	}

	item := translations.Path(id)

	// If this is an object return __
	if _, ok := item.Data().(map[string]interface{}); ok {
		item = item.Path("__")
	}

	// If this is an array return a random item
	if arr, ok := item.Data().([]interface{}); ok && len(arr) > 0 {
		if text, ok := arr[rand.Intn(len(arr))].(string); ok {
			return text
		}
	}

	if text, ok := item.Data().(string); ok {
		return text
	}
	return id
}

func GetTextF(id string, replacements ...interface{}) string {
	return fmt.Sprintf(GetText(id), replacements...)
}

// GetTextR replaces {KEY} placeholders instead of using Sprintf verbs.
func GetTextR(id string, replacements map[string]string) string {
	text := GetText(id)
	for key, value := range replacements {
		text = strings.Replace(text, "{"+key+"}", value, -1)
	}
	return text
}
