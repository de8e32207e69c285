package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// notConfigured reports a service main did not wire.
func notConfigured(name string) error {
	return fmt.Errorf("%s not configured", name)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// parseTitle builds a title from an ID argument and optional name words.
func parseTitle(args []string) (domain.Title, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return domain.Title{}, fmt.Errorf("%w: title id %q", domain.ErrInvalidInput, args[0])
	}
	return domain.Title{ID: id, Name: strings.Join(args[1:], " ")}, nil
}

// parseListName validates a list name argument.
func parseListName(s string) (domain.ListName, error) {
	name := domain.ListName(strings.ReplaceAll(s, "-", "_"))
	if !name.IsValid() {
		return "", fmt.Errorf("%w: unknown list %q", domain.ErrInvalidInput, s)
	}
	return name, nil
}

func formatTitles(titles []domain.Title) string {
	if len(titles) == 0 {
		return "none"
	}
	parts := make([]string, len(titles))
	for i, t := range titles {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// interrupted reports whether err only signals the command context ending.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
