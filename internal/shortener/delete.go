package shortener

import "context"

// Deleter removes links and their cached long URLs.
type Deleter struct {
	links       Repository
	tx          Transactor
	invalidator Invalidator
}

// NewDeleter creates a new delete orchestrator.
func NewDeleter(links Repository, tx Transactor, invalidator Invalidator) *Deleter {
	return &Deleter{
		links:       links,
		tx:          tx,
		invalidator: invalidator,
	}
}

// Delete removes the owner's link. If the store reports nothing was
// removed, ErrNotDeleted is returned and the cache is left alone.
func (d *Deleter) Delete(ctx context.Context, code Code, ownerID int64) error {
	err := d.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := ownedLink(ctx, d.links, code, ownerID); err != nil {
			return err
		}

		deleted, err := d.links.Delete(ctx, code)
		if err != nil {
			return err
		}

		if !deleted {
			return ErrNotDeleted
		}

		return nil
	})
	if err != nil {
		return err
	}

	d.invalidator.Invalidate(ctx, code)

	return nil
}
