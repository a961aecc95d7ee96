package clients

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/freema/agentlink/internal/apperror"
	"github.com/freema/agentlink/internal/metrics"
	"github.com/freema/agentlink/internal/runner"
	"github.com/freema/agentlink/internal/specs"
)

// LoadReport summarizes one registry load for diagnostics.
type LoadReport struct {
	Loaded   []string          `json:"loaded"`
	Failures map[string]string `json:"failures,omitempty"`
}

// Registry is the process-wide cache of validated client configurations.
// It loads lazily on first access and serves reads from an immutable
// snapshot; Reload builds a fresh snapshot and swaps it atomically, so
// concurrent readers always see a fully consistent view. Construct one per
// process and inject it; tests build isolated instances.
type Registry struct {
	source         *Source
	resolver       *specs.Resolver
	defaultTimeout time.Duration
	maxTimeout     time.Duration

	mu   sync.Mutex // serializes load/reload builds
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	clients  map[string]*Client // keyed by lowercased name
	failures map[string]string  // client name or file → reason
}

// NewRegistry creates a registry over the given source and spec resolver.
// defaultTimeout applies to definitions that omit timeout_seconds;
// maxTimeout caps what a definition may request, zero means no cap.
func NewRegistry(source *Source, resolver *specs.Resolver, defaultTimeout, maxTimeout time.Duration) *Registry {
	return &Registry{
		source:         source,
		resolver:       resolver,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
	}
}

// Get returns the client configuration for name (case-insensitive).
func (r *Registry) Get(name string) (*Client, error) {
	snap := r.ensure()
	c, ok := snap.clients[strings.ToLower(name)]
	if !ok {
		return nil, apperror.NotFound("client %q is not configured, available: %s",
			name, strings.Join(r.List(), ", "))
	}
	return c, nil
}

// List returns the sorted names of all usable clients.
func (r *Registry) List() []string {
	snap := r.ensure()
	names := make([]string, 0, len(snap.clients))
	for _, c := range snap.clients {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Failures returns the load-time diagnostics of the current snapshot:
// definitions that were excluded and why.
func (r *Registry) Failures() map[string]string {
	snap := r.ensure()
	out := make(map[string]string, len(snap.failures))
	for k, v := range snap.failures {
		out[k] = v
	}
	return out
}

// Reload re-scans the config sources and atomically replaces the cache.
// In-flight invocations keep the client they already resolved.
func (r *Registry) Reload() LoadReport {
	r.mu.Lock()
	snap := r.build()
	r.snap.Store(snap)
	r.mu.Unlock()
	return report(snap)
}

// ensure returns the current snapshot, building it on first access.
func (r *Registry) ensure() *snapshot {
	if snap := r.snap.Load(); snap != nil {
		return snap
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if snap := r.snap.Load(); snap != nil {
		return snap
	}
	snap := r.build()
	r.snap.Store(snap)
	return snap
}

func (r *Registry) build() *snapshot {
	docs, issues := r.source.LoadAll()

	snap := &snapshot{
		clients:  make(map[string]*Client, len(docs)),
		failures: make(map[string]string),
	}
	for _, issue := range issues {
		snap.failures[issue.Path] = issue.Reason
	}

	for key, doc := range docs {
		client, err := r.buildClient(doc)
		if err != nil {
			// Isolated: exclude this client, keep loading the rest.
			slog.Warn("excluding client", "name", doc.Def.Name, "path", doc.Path, "error", err)
			snap.failures[doc.Def.Name] = err.Error()
			continue
		}
		snap.clients[key] = client
	}

	metrics.RegistryClients.Set(float64(len(snap.clients)))
	metrics.RegistryLoadFailures.Set(float64(len(snap.failures)))
	slog.Info("client registry loaded",
		"clients", len(snap.clients), "failures", len(snap.failures))
	return snap
}

func (r *Registry) buildClient(doc Document) (*Client, error) {
	def := doc.Def

	argv, err := splitCommand(def.Command)
	if err != nil {
		return nil, apperror.Validation("invalid command: %v", err)
	}
	if len(argv) == 0 {
		return nil, apperror.Validation("command is empty")
	}

	timeout := r.defaultTimeout
	if def.TimeoutSeconds > 0 {
		timeout = time.Duration(def.TimeoutSeconds) * time.Second
	}
	if r.maxTimeout > 0 && timeout > r.maxTimeout {
		slog.Warn("capping client timeout",
			"name", def.Name, "requested", timeout, "max", r.maxTimeout)
		timeout = r.maxTimeout
	}

	parserSpec := strings.TrimSpace(def.Parser)
	if parserSpec == "" {
		parserSpec = specs.DefaultSpec
	}
	runnerSpec := strings.TrimSpace(def.Runner)
	if runnerSpec == "" {
		runnerSpec = specs.DefaultSpec
	}

	// Resolve specs eagerly so a bad specifier fails at load time, not on
	// the first call.
	baseDir := filepath.Dir(doc.Path)
	p, err := r.resolver.Parser(parserSpec, baseDir)
	if err != nil {
		return nil, err
	}
	run, err := r.resolver.Runner(runnerSpec, baseDir)
	if err != nil {
		return nil, err
	}

	roles := make(map[string]RoleConfig, len(def.Roles)+1)
	for name, rc := range def.Roles {
		if rc.PromptPath == "" {
			rc.PromptPath = def.DefaultRolePrompt
		}
		roles[name] = rc
	}
	if _, ok := roles[DefaultRole]; !ok {
		roles[DefaultRole] = RoleConfig{PromptPath: def.DefaultRolePrompt}
	}

	capture, err := buildCapture(def.OutputToFile)
	if err != nil {
		return nil, err
	}

	return &Client{
		Name:           def.Name,
		Command:        argv[0],
		CommandArgs:    argv[1:],
		InternalArgs:   append([]string(nil), def.InternalArgs...),
		AdditionalArgs: append([]string(nil), def.AdditionalArgs...),
		Timeout:        timeout,
		Env:            def.Env,
		WorkingDir:     def.WorkingDir,
		ParserSpec:     parserSpec,
		RunnerSpec:     runnerSpec,
		Parser:         p,
		Runner:         run,
		Capture:        capture,
		Roles:          roles,
		SourcePath:     doc.Path,
	}, nil
}

func buildCapture(cfg *OutputCaptureConfig) (*runner.Capture, error) {
	if cfg == nil {
		return nil, nil
	}
	if !strings.Contains(cfg.FlagTemplate, "{path}") {
		return nil, apperror.Validation(
			"output_to_file.flag_template %q is missing {path}", cfg.FlagTemplate)
	}
	cleanup := true
	if cfg.Cleanup != nil {
		cleanup = *cfg.Cleanup
	}
	return &runner.Capture{FlagTemplate: cfg.FlagTemplate, Cleanup: cleanup}, nil
}

func report(snap *snapshot) LoadReport {
	rep := LoadReport{Loaded: make([]string, 0, len(snap.clients))}
	for _, c := range snap.clients {
		rep.Loaded = append(rep.Loaded, c.Name)
	}
	sort.Strings(rep.Loaded)
	if len(snap.failures) > 0 {
		rep.Failures = make(map[string]string, len(snap.failures))
		for k, v := range snap.failures {
			rep.Failures[k] = v
		}
	}
	return rep
}
