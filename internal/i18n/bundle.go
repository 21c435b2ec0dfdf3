package i18n

import (
	"strings"
	"sync"
)

// DefaultLocale is the locale whose strings are compiled into the binary.
const DefaultLocale = "en"

// Args are the named placeholder values of a message template.
type Args map[string]string

// Bundles holds the registered message catalogs, keyed by locale. English
// strings are built in; other locales are registered at bootstrap after
// fetching their bundle. Lookups fall back to the default locale, then to
// the key itself.
type Bundles struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string
}

func NewBundles() *Bundles {
	return &Bundles{
		catalogs: map[string]map[string]string{
			DefaultLocale: stringsEN,
		},
	}
}

// Register installs (or replaces) a catalog for a locale.
func (b *Bundles) Register(locale string, catalog map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[locale] = catalog
}

// Catalog returns a copy of the merged catalog for a locale: the default
// strings overlaid with the locale's registered ones.
func (b *Bundles) Catalog(locale string) map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	merged := make(map[string]string, len(b.catalogs[DefaultLocale]))
	for key, msg := range b.catalogs[DefaultLocale] {
		merged[key] = msg
	}
	if locale != DefaultLocale {
		for key, msg := range b.catalogs[locale] {
			merged[key] = msg
		}
	}
	return merged
}

func (b *Bundles) lookup(key, locale string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if c, ok := b.catalogs[locale]; ok {
		if msg, ok := c[key]; ok {
			return msg, true
		}
	}
	if locale != DefaultLocale {
		if msg, ok := b.catalogs[DefaultLocale][key]; ok {
			return msg, true
		}
	}
	return "", false
}

// Tr resolves a message key for a locale and interpolates {name}
// placeholders from args. Unknown keys render as the key itself so a
// missing translation never breaks the caller.
func (b *Bundles) Tr(key, locale string, args ...Args) string {
	msg, ok := b.lookup(key, locale)
	if !ok {
		msg = key
	}
	if len(args) > 0 {
		for name, value := range args[0] {
			msg = strings.ReplaceAll(msg, "{"+name+"}", value)
		}
	}
	return msg
}
