package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/trezcool/tadesk/fs"
)

const localesDir = "locales"

// Dictionary maps each supported language to its translation table.
// It is read-only once loaded and safe for concurrent use.
type Dictionary struct {
	tables map[Code]map[string]string
}

// NewDictionary builds a Dictionary from in-memory tables.
func NewDictionary(tables map[Code]map[string]string) (*Dictionary, error) {
	dict := &Dictionary{tables: make(map[Code]map[string]string, len(Supported))}
	for _, lang := range Supported {
		table, ok := tables[lang]
		if !ok {
			return nil, errors.Errorf("i18n: no translations for %q", lang)
		}
		cp := make(map[string]string, len(table))
		for k, v := range table {
			cp[k] = v
		}
		dict.tables[lang] = cp
	}
	return dict, nil
}

// Load reads one `<code>.yaml` file per supported language from dir.
func Load(fsys fs.FS, dir string) (*Dictionary, error) {
	tables := make(map[Code]map[string]string, len(Supported))
	for _, lang := range Supported {
		fp := path.Join(dir, string(lang)+".yaml")
		data, err := fs.ReadFile(fsys, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", fp)
		}
		table := make(map[string]string)
		if err = yaml.Unmarshal(data, &table); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fp)
		}
		tables[lang] = table
	}
	return NewDictionary(tables)
}

// LoadEmbedded loads the dictionary bundled with the binary.
func LoadEmbedded() (*Dictionary, error) {
	return Load(appfs.FS, localesDir)
}

// Message returns the translation of key and whether one exists.
func (d *Dictionary) Message(lang Code, key string) (string, bool) {
	msg, ok := d.tables[lang][key]
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

// Lookup returns the translation of key, or key itself when there is none.
func (d *Dictionary) Lookup(lang Code, key string) string {
	if msg, ok := d.Message(lang, key); ok {
		return msg
	}
	return key
}

// Format is Lookup followed by fmt.Sprintf when args are given.
// A missing key comes back raw, unformatted.
func (d *Dictionary) Format(lang Code, key string, args ...interface{}) string {
	msg, ok := d.Message(lang, key)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Texts returns a lookup bound to lang.
func (d *Dictionary) Texts(lang Code) func(key string) string {
	return func(key string) string { return d.Lookup(lang, key) }
}

// Keys returns the sorted keys translated in lang.
func (d *Dictionary) Keys(lang Code) []string {
	keys := make([]string, 0, len(d.tables[lang]))
	for k := range d.tables[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Messages returns a copy of the lang table.
func (d *Dictionary) Messages(lang Code) map[string]string {
	table := d.tables[lang]
	cp := make(map[string]string, len(table))
	for k, v := range table {
		cp[k] = v
	}
	return cp
}

// Missing returns the sorted keys translated in another language but not in lang.
func (d *Dictionary) Missing(lang Code) []string {
	seen := make(map[string]struct{})
	missing := make([]string, 0)
	for other, table := range d.tables {
		if other == lang {
			continue
		}
		for k := range table {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if _, ok := d.Message(lang, k); !ok {
				missing = append(missing, k)
			}
		}
	}
	sort.Strings(missing)
	return missing
}
