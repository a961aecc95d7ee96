// Package clients holds the CLI client configuration model and the
// process-wide registry that loads, validates and caches it.
package clients

import (
	"sort"
	"strings"
	"time"

	"github.com/freema/agentlink/internal/apperror"
	"github.com/freema/agentlink/internal/parser"
	"github.com/freema/agentlink/internal/runner"
)

// DefaultRole is the role every client is guaranteed to have after load.
const DefaultRole = "default"

// RoleConfig is a named invocation variant of a client: a prompt template
// plus extra arguments for the same underlying command.
type RoleConfig struct {
	PromptPath  string   `koanf:"prompt_path"`
	Args        []string `koanf:"args"`
	Description string   `koanf:"description"`
}

// OutputCaptureConfig is the definition-file shape for CLIs that write
// their result to disk instead of stdout.
type OutputCaptureConfig struct {
	FlagTemplate string `koanf:"flag_template"`
	Cleanup      *bool  `koanf:"cleanup"`
}

// Definition is the raw client document as read from a JSON definition
// file, before defaults and validation are applied.
type Definition struct {
	Name              string                `koanf:"name"`
	Command           string                `koanf:"command"`
	Parser            string                `koanf:"parser"`
	Runner            string                `koanf:"runner"`
	InternalArgs      []string              `koanf:"internal_args"`
	AdditionalArgs    []string              `koanf:"additional_args"`
	TimeoutSeconds    int                   `koanf:"timeout_seconds"`
	Env               map[string]string     `koanf:"env"`
	WorkingDir        string                `koanf:"working_dir"`
	DefaultRolePrompt string                `koanf:"default_role_prompt"`
	OutputToFile      *OutputCaptureConfig  `koanf:"output_to_file"`
	Roles             map[string]RoleConfig `koanf:"roles"`
}

// Client is a validated, immutable client configuration owned by the
// registry for the process lifetime.
type Client struct {
	Name           string
	Command        string   // argv head
	CommandArgs    []string // arguments embedded in the command string
	InternalArgs   []string
	AdditionalArgs []string
	Timeout        time.Duration
	Env            map[string]string
	WorkingDir     string
	ParserSpec     string
	RunnerSpec     string
	Parser         parser.Parser
	Runner         runner.Runner
	Capture        *runner.Capture
	Roles          map[string]RoleConfig
	SourcePath     string // definition file, for diagnostics and relative specs
}

// Role looks up a role by name, falling back to the default role when the
// requested one is absent. An empty name selects the default role.
func (c *Client) Role(name string) (RoleConfig, error) {
	if name == "" {
		name = DefaultRole
	}
	if rc, ok := c.Roles[name]; ok {
		return rc, nil
	}
	if rc, ok := c.Roles[DefaultRole]; ok {
		return rc, nil
	}
	// Load-time validation guarantees a default role, but check anyway.
	return RoleConfig{}, apperror.RoleNotFound(
		"role %q not configured for client %q, available: %s",
		name, c.Name, strings.Join(c.RoleNames(), ", "))
}

// RoleNames returns the sorted role names of this client.
func (c *Client) RoleNames() []string {
	names := make([]string, 0, len(c.Roles))
	for name := range c.Roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComposeArgs builds the positional argument list for a role:
// internal_args, then the role's args, then additional_args, order
// preserved.
func (c *Client) ComposeArgs(role RoleConfig) []string {
	args := make([]string, 0, len(c.InternalArgs)+len(role.Args)+len(c.AdditionalArgs))
	args = append(args, c.InternalArgs...)
	args = append(args, role.Args...)
	args = append(args, c.AdditionalArgs...)
	return args
}
