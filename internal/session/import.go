package session

import (
	"context"
	"fmt"

	"codeberg.org/snonux/lingopop/internal/batch"
	"codeberg.org/snonux/lingopop/internal/term"
)

// Import looks up terms in the current languages and adds them to the
// library. Every finished record is saved and published as it arrives, so
// an open library screen fills in while the import runs.
func (c *Controller) Import(ctx context.Context, terms []string, cfg batch.Config) ([]*batch.Job, batch.Summary, error) {
	c.mu.Lock()
	if !c.configured {
		c.mu.Unlock()
		return nil, batch.Summary{}, ErrNotConfigured
	}
	cfg.Settings = c.settings
	c.mu.Unlock()

	if cfg.Logger == nil {
		cfg.Logger = c.logger
	}
	return batch.NewImporter(c.gw, importTarget{c}, cfg).Import(ctx, terms)
}

// importTarget feeds imported records through the controller so the store
// keeps a single writer
type importTarget struct {
	c *Controller
}

func (t importTarget) Terms(ctx context.Context) ([]string, error) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	return t.c.lib.Terms(), nil
}

func (t importTarget) Add(ctx context.Context, rec term.Record) error {
	c := t.c

	c.mu.Lock()
	if c.lib.Contains(rec.ID) {
		c.mu.Unlock()
		return nil
	}
	next, _ := c.lib.Toggle(rec)
	if err := c.store.Save(ctx, next); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to save library: %w", err)
	}
	c.lib = next
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}
