package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/vault"
)

// Link entangles two superposed states. The link is reciprocal and at most
// one-to-one: neither side may already be entangled, and the caller must
// control both.
func (e *Engine) Link(ctx context.Context, caller vault.Principal, idA, idB string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if idA == idB {
		return fmt.Errorf("link: a state cannot entangle with itself")
	}

	a, err := e.loadSuperposed(ctx, idA)
	if err != nil {
		return err
	}
	b, err := e.loadSuperposed(ctx, idB)
	if err != nil {
		return err
	}

	if caller != a.Controller || caller != b.Controller {
		return vault.Errf(vault.ErrCodeNotAuthorized, idA,
			"caller must control both states to link them")
	}

	if a.Entangled() {
		return vault.Errf(vault.ErrCodeAlreadyEntangled, idA,
			"state is already entangled with %s", a.EntangledWith)
	}
	if b.Entangled() {
		return vault.Errf(vault.ErrCodeAlreadyEntangled, idB,
			"state is already entangled with %s", b.EntangledWith)
	}

	if err := e.store.SetLink(ctx, idA, idB); err != nil {
		return fmt.Errorf("link: %w", err)
	}

	e.journalOp(ctx, journal.OpLink, idA, caller, map[string]any{"partner": idB})
	e.journalOp(ctx, journal.OpLink, idB, caller, map[string]any{"partner": idA})

	slog.Info("states entangled", "a", idA, "b", idB)
	return nil
}

// Unlink disentangles two states. The caller must control at least one
// side, and the recorded links must match exactly.
func (e *Engine) Unlink(ctx context.Context, caller vault.Principal, idA, idB string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.store.GetState(ctx, idA)
	if err != nil {
		return err
	}
	b, err := e.store.GetState(ctx, idB)
	if err != nil {
		return err
	}

	if caller != a.Controller && caller != b.Controller {
		return vault.Errf(vault.ErrCodeNotAuthorized, idA,
			"caller must control at least one side to unlink")
	}

	if a.EntangledWith != idB || b.EntangledWith != idA {
		return vault.Errf(vault.ErrCodeNotEntangled, idA,
			"recorded links do not match %s <-> %s", idA, idB)
	}

	if err := e.store.ClearLink(ctx, idA, idB); err != nil {
		return fmt.Errorf("unlink: %w", err)
	}

	e.journalOp(ctx, journal.OpUnlink, idA, caller, map[string]any{"partner": idB})
	e.journalOp(ctx, journal.OpUnlink, idB, caller, map[string]any{"partner": idA})

	slog.Info("states disentangled", "a", idA, "b", idB)
	return nil
}
