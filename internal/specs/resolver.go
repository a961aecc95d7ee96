// Package specs resolves parser and runner specifier strings to concrete
// implementations.
//
// Two specifier forms are supported:
//
//	builtin:<name>     compiled-in implementation looked up by name
//	<path>:<symbol>    Go plugin (.so) loaded at resolution time; the
//	                   exported symbol must satisfy the Parser or Runner
//	                   contract for the requested kind
package specs

import (
	"log/slog"
	"path/filepath"
	"plugin"
	"sort"
	"strings"
	"sync"

	"github.com/freema/agentlink/internal/apperror"
	"github.com/freema/agentlink/internal/parser"
	"github.com/freema/agentlink/internal/runner"
)

// Kind selects which contract a specifier must satisfy.
type Kind string

const (
	KindParser Kind = "parser"
	KindRunner Kind = "runner"
)

const (
	// BuiltinPrefix marks a compiled-in implementation reference.
	BuiltinPrefix = "builtin:"
	// DefaultSpec is applied when a client definition omits a parser or
	// runner specifier.
	DefaultSpec = "builtin:default"
)

// Resolver binds specifier strings to instances. Resolution of plugin specs
// is memoized per specifier string; the cache is append-only and safe for
// concurrent readers.
type Resolver struct {
	parserBuiltins map[string]func() parser.Parser
	runnerBuiltins map[string]func() runner.Runner
	cache          sync.Map // cacheKey → resolved instance
}

// NewResolver creates a resolver with the builtin parser and runner tables.
func NewResolver() *Resolver {
	return &Resolver{
		parserBuiltins: map[string]func() parser.Parser{
			"default":     func() parser.Parser { return parser.NewPlain() },
			"json":        func() parser.Parser { return parser.NewJSON() },
			"stream_json": func() parser.Parser { return parser.NewStream() },
		},
		runnerBuiltins: map[string]func() runner.Runner{
			"default": func() runner.Runner { return runner.NewSubprocess() },
		},
	}
}

// Parser resolves a parser specifier. Relative plugin paths are resolved
// against baseDir (the directory of the defining config file).
func (r *Resolver) Parser(spec, baseDir string) (parser.Parser, error) {
	v, err := r.resolve(spec, baseDir, KindParser)
	if err != nil {
		return nil, err
	}
	return v.(parser.Parser), nil
}

// Runner resolves a runner specifier.
func (r *Resolver) Runner(spec, baseDir string) (runner.Runner, error) {
	v, err := r.resolve(spec, baseDir, KindRunner)
	if err != nil {
		return nil, err
	}
	return v.(runner.Runner), nil
}

// BuiltinParsers returns the sorted names of compiled-in parsers.
func (r *Resolver) BuiltinParsers() []string {
	return sortedKeys(r.parserBuiltins)
}

// BuiltinRunners returns the sorted names of compiled-in runners.
func (r *Resolver) BuiltinRunners() []string {
	return sortedKeys(r.runnerBuiltins)
}

func (r *Resolver) resolve(spec, baseDir string, kind Kind) (any, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, apperror.SpecResolution("%s spec cannot be empty", kind)
	}

	key := string(kind) + "\x00" + baseDir + "\x00" + spec
	if v, ok := r.cache.Load(key); ok {
		return v, nil
	}

	v, err := r.load(spec, baseDir, kind)
	if err != nil {
		return nil, err
	}

	actual, _ := r.cache.LoadOrStore(key, v)
	return actual, nil
}

func (r *Resolver) load(spec, baseDir string, kind Kind) (any, error) {
	if name, ok := strings.CutPrefix(spec, BuiltinPrefix); ok {
		return r.loadBuiltin(name, kind)
	}

	// <path>:<symbol> plugin form. Split on the last colon so paths with
	// embedded colons keep working.
	idx := strings.LastIndex(spec, ":")
	if idx <= 0 || idx == len(spec)-1 {
		return nil, apperror.SpecResolution(
			"invalid %s spec %q: use %q or \"path/to/plugin.so:Symbol\"",
			kind, spec, BuiltinPrefix+"<name>")
	}
	return r.loadPlugin(spec[:idx], spec[idx+1:], baseDir, kind)
}

func (r *Resolver) loadBuiltin(name string, kind Kind) (any, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	switch kind {
	case KindParser:
		if factory, ok := r.parserBuiltins[normalized]; ok {
			return factory(), nil
		}
		return nil, apperror.SpecResolution("unknown builtin parser %q, available: %s",
			name, strings.Join(r.BuiltinParsers(), ", "))
	case KindRunner:
		if factory, ok := r.runnerBuiltins[normalized]; ok {
			return factory(), nil
		}
		return nil, apperror.SpecResolution("unknown builtin runner %q, available: %s",
			name, strings.Join(r.BuiltinRunners(), ", "))
	default:
		return nil, apperror.SpecResolution("unknown spec kind %q", kind)
	}
}

func (r *Resolver) loadPlugin(path, symbol string, baseDir string, kind Kind) (any, error) {
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, apperror.SpecResolution("opening plugin %s: %v", path, err)
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, apperror.SpecResolution("symbol %q not found in %s: %v", symbol, path, err)
	}

	v, ok := bind(sym, kind)
	if !ok {
		return nil, apperror.SpecResolution(
			"symbol %q in %s does not satisfy the %s contract", symbol, path, kind)
	}

	slog.Info("loaded plugin implementation",
		"kind", kind, "path", path, "symbol", symbol)
	return v, nil
}

// bind adapts a plugin symbol to the requested contract. Exported package
// vars arrive as pointers, so both the symbol itself and its pointee are
// checked; constructor funcs are invoked.
func bind(sym plugin.Symbol, kind Kind) (any, bool) {
	switch kind {
	case KindParser:
		switch v := sym.(type) {
		case parser.Parser:
			return v, true
		case *parser.Parser:
			if *v != nil {
				return *v, true
			}
		case func() parser.Parser:
			return v(), true
		}
	case KindRunner:
		switch v := sym.(type) {
		case runner.Runner:
			return v, true
		case *runner.Runner:
			if *v != nil {
				return *v, true
			}
		case func() runner.Runner:
			return v(), true
		}
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
