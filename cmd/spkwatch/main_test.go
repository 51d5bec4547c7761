package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/matzehuels/spkwatch/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{context.Canceled, exitCanceled},
		{fmt.Errorf("run: %w", context.Canceled), exitCanceled},
		{errors.New(errors.ErrCodeInvalidPackage, "cross/nope"), exitUsage},
		{errors.Wrap(errors.ErrCodeInvalidConfig, fmt.Errorf("bad"), "jobs"), exitUsage},
		{errors.New(errors.ErrCodeNetwork, "down"), exitError},
		{fmt.Errorf("unknown command"), exitError},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
