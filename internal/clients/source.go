package clients

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Document is one raw client definition together with the file that
// supplied it.
type Document struct {
	Def  Definition
	Path string
}

// LoadIssue records a definition file that was skipped during a load.
type LoadIssue struct {
	Path   string
	Reason string
}

// Source reads client definition files from the built-in directory, an
// optional extra path (file or directory, usually from the environment),
// and the user override directory, in that order. A later definition with
// the same name replaces an earlier one entirely; there is no field-level
// merge.
type Source struct {
	BuiltinDir string
	ExtraPath  string
	UserDir    string
}

// NewSource creates a config source over the given locations. ExtraPath
// and UserDir may be empty.
func NewSource(builtinDir, extraPath, userDir string) *Source {
	return &Source{
		BuiltinDir: builtinDir,
		ExtraPath:  extraPath,
		UserDir:    userDir,
	}
}

// LoadAll reads every definition file and returns the merged set keyed by
// lowercased client name. Malformed files are reported as issues and
// skipped; one bad file never fails the whole load.
func (s *Source) LoadAll() (map[string]Document, []LoadIssue) {
	docs := make(map[string]Document)
	var issues []LoadIssue

	for _, path := range s.definitionFiles() {
		def, err := readDefinition(path)
		if err != nil {
			slog.Warn("skipping client definition", "path", path, "error", err)
			issues = append(issues, LoadIssue{Path: path, Reason: err.Error()})
			continue
		}

		key := strings.ToLower(def.Name)
		if prev, ok := docs[key]; ok {
			slog.Info("client definition overridden",
				"name", def.Name, "previous", prev.Path, "path", path)
		} else {
			slog.Debug("client definition loaded", "name", def.Name, "path", path)
		}
		docs[key] = Document{Def: def, Path: path}
	}

	return docs, issues
}

// definitionFiles returns every candidate file in precedence order:
// built-in dir, extra path, user dir.
func (s *Source) definitionFiles() []string {
	var paths []string
	seen := make(map[string]bool)

	for _, base := range []string{s.BuiltinDir, s.ExtraPath, s.UserDir} {
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true

		info, err := os.Stat(base)
		if err != nil {
			slog.Debug("client definition path does not exist", "path", base)
			continue
		}

		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(base), ".json") {
				paths = append(paths, base)
			}
			continue
		}

		entries, err := os.ReadDir(base)
		if err != nil {
			slog.Warn("reading client definition dir", "path", base, "error", err)
			continue
		}
		var files []string
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
				continue
			}
			files = append(files, filepath.Join(base, entry.Name()))
		}
		sort.Strings(files)
		paths = append(paths, files...)
	}

	return paths
}

func readDefinition(path string) (Definition, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return Definition{}, fmt.Errorf("parsing: %w", err)
	}

	var def Definition
	if err := k.Unmarshal("", &def); err != nil {
		return Definition{}, fmt.Errorf("unmarshaling: %w", err)
	}

	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return Definition{}, fmt.Errorf("missing required field %q", "name")
	}
	if strings.TrimSpace(def.Command) == "" {
		return Definition{}, fmt.Errorf("missing required field %q", "command")
	}
	return def, nil
}
