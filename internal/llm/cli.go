package llm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxPromptSize caps the prompt passed to the CLI.
const MaxPromptSize = 200 * 1024

// cliCallTimeout bounds one generation call. Retry policy, if any, belongs
// to the CLI itself; callers treat every failure as recoverable.
const cliCallTimeout = 120 * time.Second

// CLIGenerator runs generation through a local model CLI in non-interactive
// mode. One instance is bound to one model, so the primary and cheap tiers
// are two instances of this type.
type CLIGenerator struct {
	cliPath string
	model   string
}

// NewCLIGenerator creates a generator bound to a model alias. cliPath is
// resolved on PATH when empty.
func NewCLIGenerator(cliPath, model string) (*CLIGenerator, error) {
	if cliPath == "" {
		path, err := exec.LookPath("claude")
		if err != nil {
			return nil, fmt.Errorf("generation CLI not found on PATH: %w", err)
		}
		cliPath = path
	}
	return &CLIGenerator{cliPath: cliPath, model: model}, nil
}

// Generate runs one prompt through the CLI and returns its stdout.
func (g *CLIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	fullPrompt := systemPrompt + "\n\n" + userPrompt
	if len(fullPrompt) > MaxPromptSize {
		return "", fmt.Errorf("prompt exceeds maximum size of %d bytes", MaxPromptSize)
	}

	ctx, cancel := context.WithTimeout(ctx, cliCallTimeout)
	defer cancel()

	args := []string{"--print", "--model", g.model}
	if maxTokens > 0 {
		args = append(args, "--max-tokens", fmt.Sprintf("%d", maxTokens))
	}
	args = append(args, "-p", fullPrompt)

	cmd := exec.CommandContext(ctx, g.cliPath, args...) // #nosec G204 -- cliPath is from config, prompt is internal
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		log.Warn().
			Err(err).
			Str("model", g.model).
			Str("stderr", truncate(stderr.String(), 500)).
			Dur("elapsed", time.Since(start)).
			Msg("Generation call failed")
		return "", fmt.Errorf("generation call (%s): %w", g.model, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// truncate shortens s for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
