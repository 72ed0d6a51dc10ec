// Package i18n resolves user-facing labels in the active language.
//
// Translations live in TOML files, one per language code, each with a display
// name and a [labels] table mapping label keys to strings:
//
//	name = "English"
//
//	[labels]
//	analyzeBtn = "Analyze Dependencies"
//
// The built-in languages are embedded in the binary. [Table.LoadDir] overlays
// user-provided files on top of them, so a partial translation only needs the
// keys it changes.
//
// Lookups never fail: a missing key falls back to the default language and
// then to the key itself, keeping the interface usable with partial
// translations.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/depview/pkg/errors"
)

// DefaultLanguage is the language used when nothing else is configured and
// the fallback for keys a translation does not define.
const DefaultLanguage = "en"

// Label keys.
const (
	KeyTitle                   = "title"
	KeySubtitle                = "subtitle"
	KeyURLPlaceholder          = "urlPlaceholder"
	KeyAnalyzeBtn              = "analyzeBtn"
	KeyAnalyzingText           = "analyzingText"
	KeyErrorMessage            = "errorMessage"
	KeySuccessMessage          = "successMessage"
	KeyFailureMessage          = "failureMessage"
	KeyProjectDescription      = "projectDescription"
	KeyDependencyGraph         = "dependencyGraph"
	KeyTotalDeps               = "totalDeps"
	KeyDirectDeps              = "directDeps"
	KeyTransitiveDeps          = "transitiveDeps"
	KeyVulnerabilities         = "vulnerabilities"
	KeyDependencyDetails       = "dependencyDetails"
	KeyReadme                  = "readme"
	KeyNoGraph                 = "noGraph"
	KeyNoDependencies          = "noDependencies"
	KeyUnknown                 = "unknown"
	KeyType                    = "type"
	KeyVersion                 = "version"
	KeyLicense                 = "license"
	KeyVulnerabilitiesDetected = "vulnerabilitiesDetected"
	KeyOutgoing                = "outgoing"
	KeyGraphSaved              = "graphSaved"
	KeyLanguage                = "language"
	KeyTotalFiles              = "totalFiles"
	KeyExternalPackages        = "externalPackages"
	KeyStandardLibraries       = "standardLibraries"
)

//go:embed locales/*.toml
var builtin embed.FS

// Labeler resolves a label key to display text.
type Labeler interface {
	Label(key string) string
}

// Entry maps label keys to localized strings for one language.
type Entry map[string]string

type localeFile struct {
	Name   string `toml:"name"`
	Labels Entry  `toml:"labels"`
}

// Table maps language codes to their entries. A Table is immutable after
// loading and safe for concurrent reads.
type Table struct {
	entries map[string]Entry
	names   map[string]string
}

// Load returns a table holding the built-in languages.
func Load() (*Table, error) {
	t := &Table{entries: map[string]Entry{}, names: map[string]string{}}
	if err := t.loadFS(builtin, "locales"); err != nil {
		return nil, err
	}
	if _, ok := t.entries[DefaultLanguage]; !ok {
		return nil, errors.New(errors.ErrCodeInternal, "built-in locales lack %q", DefaultLanguage)
	}
	return t, nil
}

// MustLoad is like [Load] but panics on error. The built-in locales are
// embedded, so an error here is a build defect.
func MustLoad() *Table {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// LoadDir overlays every <code>.toml file in dir onto the table. Keys present
// in a file replace the existing ones; keys it omits are kept.
func (t *Table) LoadDir(dir string) error {
	return t.loadFS(os.DirFS(dir), ".")
}

func (t *Table) loadFS(fsys fs.FS, root string) error {
	matches, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(root, "*.toml")))
	if err != nil {
		return err
	}
	for _, path := range matches {
		code := strings.TrimSuffix(filepath.Base(path), ".toml")
		if err := errors.ValidateLanguageCode(code); err != nil {
			return fmt.Errorf("locale file %s: %w", path, err)
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read locale %s: %w", path, err)
		}
		var lf localeFile
		if err := toml.Unmarshal(data, &lf); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode locale %s", path)
		}
		t.merge(code, lf)
	}
	return nil
}

func (t *Table) merge(code string, lf localeFile) {
	entry, ok := t.entries[code]
	if !ok {
		entry = Entry{}
		t.entries[code] = entry
	}
	for k, v := range lf.Labels {
		entry[k] = v
	}
	if lf.Name != "" {
		t.names[code] = lf.Name
	} else if _, ok := t.names[code]; !ok {
		t.names[code] = strings.ToUpper(code)
	}
}

// Label returns the text for key in lang, falling back to the default
// language and then to key itself.
func (t *Table) Label(lang, key string) string {
	if s, ok := t.entries[lang][key]; ok && s != "" {
		return s
	}
	if s, ok := t.entries[DefaultLanguage][key]; ok && s != "" {
		return s
	}
	return key
}

// Has reports whether the table holds a translation for code.
func (t *Table) Has(code string) bool {
	_, ok := t.entries[code]
	return ok
}

// Name returns the display name of a language, or its upper-cased code.
func (t *Table) Name(code string) string {
	if n, ok := t.names[code]; ok {
		return n
	}
	return strings.ToUpper(code)
}

// Languages returns the available language codes, sorted.
func (t *Table) Languages() []string {
	codes := make([]string, 0, len(t.entries))
	for code := range t.entries {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Session holds the active language of one user session.
// It implements [Labeler] for that language.
type Session struct {
	table *Table
	mu    sync.RWMutex
	lang  string
}

// NewSession creates a session for lang. Unknown codes fall back to the
// default language.
func NewSession(t *Table, lang string) *Session {
	if !t.Has(lang) {
		lang = DefaultLanguage
	}
	return &Session{table: t, lang: lang}
}

// SetLanguage switches the active language. Text that was already rendered
// is not touched; it changes on the next render pass.
func (s *Session) SetLanguage(code string) error {
	if !s.table.Has(code) {
		return errors.New(errors.ErrCodeInvalidLanguage, "unsupported language %q (available: %s)",
			code, strings.Join(s.table.Languages(), ", "))
	}
	s.mu.Lock()
	s.lang = code
	s.mu.Unlock()
	return nil
}

// Next switches to the language after the active one, wrapping around, and
// returns its code.
func (s *Session) Next() string {
	codes := s.table.Languages()
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(codes, s.lang)
	s.lang = codes[(i+1)%len(codes)]
	return s.lang
}

// Language returns the active language code.
func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// Label resolves key in the active language.
func (s *Session) Label(key string) string {
	return s.table.Label(s.Language(), key)
}

// Table returns the table the session reads from.
func (s *Session) Table() *Table {
	return s.table
}
