// Package locale provides display labels in English and Korean.
package locale

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/nibzard/taskboard/internal/filter"
	"github.com/nibzard/taskboard/internal/task"
)

// Supported languages.
const (
	English = "en"
	Korean  = "ko"
)

//go:embed messages/*.toml
var messageFS embed.FS

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
	bundleErr  error
)

func loadBundle() (*i18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		for _, lang := range Languages() {
			if _, err := b.LoadMessageFileFS(messageFS, "messages/"+lang+".toml"); err != nil {
				bundleErr = fmt.Errorf("load %s messages: %w", lang, err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// Languages returns the supported language tags.
func Languages() []string {
	return []string{English, Korean}
}

// Translator localizes message ids for one language, falling back to English.
type Translator struct {
	lang      string
	localizer *i18n.Localizer
}

// New returns a translator for lang. An empty lang means English; an
// unsupported but well-formed tag falls back to English.
func New(lang string) (*Translator, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = English
	}
	if _, err := language.Parse(lang); err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", lang, err)
	}
	b, err := loadBundle()
	if err != nil {
		return nil, err
	}
	return &Translator{lang: lang, localizer: i18n.NewLocalizer(b, lang, English)}, nil
}

// Lang returns the requested language tag.
func (t *Translator) Lang() string {
	return t.lang
}

// T localizes id. A missing message yields id itself.
func (t *Translator) T(id string) string {
	return t.TData(id, nil)
}

// TData localizes id with template data.
func (t *Translator) TData(id string, data map[string]any) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil || msg == "" {
		return id
	}
	return msg
}

// Status returns the lane label for s.
func (t *Translator) Status(s task.Status) string {
	return t.T("status_" + strings.ReplaceAll(string(s), "-", "_"))
}

// Priority returns the label for p.
func (t *Translator) Priority(p task.Priority) string {
	return t.T("priority_" + string(p))
}

// Sort returns the label for k.
func (t *Translator) Sort(k filter.SortKey) string {
	return t.T("sort_" + strings.ReplaceAll(string(k), "-", "_"))
}

// Filter returns the label for a priority or status filter value.
func (t *Translator) Filter(v string) string {
	if v == "" || v == filter.All {
		return t.T("filter_all")
	}
	if p := task.Priority(v); p.Valid() {
		return t.Priority(p)
	}
	return t.Status(task.Status(v))
}
