// Package engine orchestrates one CLI invocation: registry lookup, role
// resolution, argument and prompt composition, subprocess execution and
// output parsing.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/freema/agentlink/internal/apperror"
	"github.com/freema/agentlink/internal/clients"
	"github.com/freema/agentlink/internal/metrics"
	"github.com/freema/agentlink/internal/parser"
	"github.com/freema/agentlink/internal/runner"
	"github.com/freema/agentlink/internal/tracing"
)

// TemplateReader is the prompt-template collaborator. Refs come from role
// configuration and are opaque to the engine.
type TemplateReader interface {
	ReadTemplate(ref string) (string, error)
}

// Outcome is the caller-visible result of one invocation.
type Outcome struct {
	InvocationID string
	Client       string
	Role         string
	Response     *parser.Response
	ExitCode     int
	Duration     time.Duration
}

// Engine is the sole entry point for invoking CLI clients. It holds no
// per-call state; concurrent Invoke calls each spawn their own isolated
// process.
type Engine struct {
	registry  *clients.Registry
	templates TemplateReader
}

// New creates an execution engine over the given registry and template
// reader.
func New(registry *clients.Registry, templates TemplateReader) *Engine {
	return &Engine{registry: registry, templates: templates}
}

// Invoke runs one CLI call. Each step surfaces its own error kind:
// NotFound (client), RoleNotFound, ExecutableNotFound, Timeout. Parsing
// never fails the call; at worst the response is degraded. Failed or
// timed-out invocations are reported once and never retried here, so any
// side effects of the CLI are not silently duplicated.
func (e *Engine) Invoke(ctx context.Context, clientName, roleName, prompt string) (*Outcome, error) {
	invocationID := uuid.NewString()

	ctx, span := tracing.Tracer().Start(ctx, "engine.invoke",
		tracing.WithInvocationAttributes(invocationID, clientName, roleName),
	)
	defer span.End()

	log := slog.With(
		"invocation_id", invocationID,
		"client", clientName,
		"role", roleName,
	)

	client, err := e.registry.Get(clientName)
	if err != nil {
		return nil, e.fail(span, log, clientName, err)
	}

	role, err := client.Role(roleName)
	if err != nil {
		return nil, e.fail(span, log, client.Name, err)
	}

	promptText, err := e.composePrompt(role, prompt)
	if err != nil {
		return nil, e.fail(span, log, client.Name, err)
	}

	// The fully composed execution plan: command args embedded in the
	// definition, then internal, role and additional args in order.
	args := append(append([]string(nil), client.CommandArgs...), client.ComposeArgs(role)...)

	opts := runner.Options{
		Command: client.Command,
		Args:    args,
		Prompt:  promptText,
		Timeout: client.Timeout,
		Env:     client.Env,
		WorkDir: client.WorkingDir,
		Capture: client.Capture,
	}

	log.Info("invoking CLI", "command", client.Command, "args", args, "timeout", client.Timeout)

	metrics.InvocationsInFlight.Inc()
	result, err := client.Runner.Run(ctx, opts)
	metrics.InvocationsInFlight.Dec()

	if result != nil {
		metrics.InvocationDuration.WithLabelValues(client.Name).Observe(result.Duration.Seconds())
		span.SetAttributes(
			attribute.Int("invocation.exit_code", result.ExitCode),
			attribute.Bool("invocation.timed_out", result.TimedOut),
		)
	}
	if err != nil {
		return nil, e.fail(span, log, client.Name, err)
	}

	resp := client.Parser.Parse(result)
	if !resp.FullyParsed {
		metrics.DegradedParses.WithLabelValues(client.Name).Inc()
		log.Warn("parse degraded to raw passthrough", "parser", client.ParserSpec)
	}

	metrics.InvocationsTotal.WithLabelValues(client.Name, "ok").Inc()
	log.Info("invocation completed",
		"exit_code", result.ExitCode,
		"duration", result.Duration,
		"fully_parsed", resp.FullyParsed,
	)

	return &Outcome{
		InvocationID: invocationID,
		Client:       client.Name,
		Role:         roleName,
		Response:     resp,
		ExitCode:     result.ExitCode,
		Duration:     result.Duration,
	}, nil
}

// composePrompt seeds the caller's prompt with the role's template, when
// the role has one.
func (e *Engine) composePrompt(role clients.RoleConfig, prompt string) (string, error) {
	if role.PromptPath == "" {
		return prompt, nil
	}
	tmpl, err := e.templates.ReadTemplate(role.PromptPath)
	if err != nil {
		return "", err
	}
	if prompt == "" {
		return tmpl, nil
	}
	return tmpl + "\n\n" + prompt, nil
}

func (e *Engine) fail(span trace.Span, log *slog.Logger, client string, err error) error {
	kind := apperror.Kind(err)
	metrics.InvocationsTotal.WithLabelValues(client, kind).Inc()
	span.SetStatus(codes.Error, err.Error())
	log.Warn("invocation failed", "kind", kind, "error", err)
	return err
}
