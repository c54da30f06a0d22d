package main

import (
	"errors"
	"testing"

	"github.com/themperek/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"cycle", domain.ErrCycle, 3},
		{"unknown step", zerr.With(domain.ErrUnknownStep, "step", "ghost"), 3},
		{"duplicate step", domain.ErrDuplicateStep, 3},
		{"partial failure", errors.Join(domain.ErrPartialFailure, errors.New("step failed")), 2},
		{"stop policy failure", errors.Join(domain.ErrRunFailed, errors.New("step failed")), 1},
		{"lock held", domain.ErrLockHeld, 1},
		{"wrapped cycle", zerr.Wrap(domain.ErrCycle, "failed to load configuration"), 3},
		{"plain error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
