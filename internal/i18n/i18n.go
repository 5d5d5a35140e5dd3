// Package i18n provides text lookup for the bot's supported interface
// languages. Locale tables are JSON files embedded at build time.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// Bundle resolves message keys to localized strings.
type Bundle struct {
	defaultLang string
	messages    map[string]map[string]string
}

// Load parses the embedded locale files. defaultLang is used when a
// user has no stored language or a key is missing in their language.
func Load(defaultLang string) (*Bundle, error) {
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("i18n read dir: %w", err)
	}

	messages := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		lang := strings.TrimSuffix(e.Name(), ".json")
		raw, err := fs.ReadFile(localeFS, "locales/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n read %s: %w", e.Name(), err)
		}
		table := make(map[string]string)
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("i18n parse %s: %w", e.Name(), err)
		}
		messages[lang] = table
	}

	if _, ok := messages[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q has no locale file", defaultLang)
	}
	return &Bundle{defaultLang: defaultLang, messages: messages}, nil
}

// Langs returns the supported language codes, sorted.
func (b *Bundle) Langs() []string {
	out := make([]string, 0, len(b.messages))
	for lang := range b.messages {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// T returns the translation of key in lang, falling back to the
// default language and finally to the key itself.
func (b *Bundle) T(lang, key string) string {
	if table, ok := b.messages[lang]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if table, ok := b.messages[b.defaultLang]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	return key
}

// Tf formats the translation of key with fmt.Sprintf semantics.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// All returns the translation of key in every supported language.
// It is used to match free-text button presses regardless of the
// language the user's keyboard was built with.
func (b *Bundle) All(key string) []string {
	out := make([]string, 0, len(b.messages))
	for _, lang := range b.Langs() {
		if msg, ok := b.messages[lang][key]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// Matches reports whether text equals the translation of key in any
// supported language, ignoring case and surrounding whitespace.
func (b *Bundle) Matches(text, key string) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	for _, msg := range b.All(key) {
		if strings.ToLower(strings.TrimSpace(msg)) == needle {
			return true
		}
	}
	return false
}

// DefaultLang returns the configured fallback language.
func (b *Bundle) DefaultLang() string {
	return b.defaultLang
}
