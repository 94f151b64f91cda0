package shortener

import "context"

// LinkChanges lists the mutable fields of a link. Nil fields are left as is.
type LinkChanges struct {
	FriendlyName *string
	LongURL      *string
}

// Updater applies owner mutations and evicts the cached long URL afterwards.
type Updater struct {
	links       Repository
	tx          Transactor
	invalidator Invalidator
}

// NewUpdater creates a new update orchestrator.
func NewUpdater(links Repository, tx Transactor, invalidator Invalidator) *Updater {
	return &Updater{
		links:       links,
		tx:          tx,
		invalidator: invalidator,
	}
}

// Update changes the link identified by code. The cache entry is deleted
// only after the store transaction commits.
func (u *Updater) Update(ctx context.Context, code Code, changes LinkChanges, ownerID int64) (*ShortLink, error) {
	if changes.FriendlyName == nil && changes.LongURL == nil {
		return nil, ErrNoChanges
	}

	var name, longURL string

	var err error
	if changes.FriendlyName != nil {
		if name, err = NormalizeFriendlyName(*changes.FriendlyName); err != nil {
			return nil, err
		}
	}

	if changes.LongURL != nil {
		if longURL, err = ValidateLongURL(*changes.LongURL); err != nil {
			return nil, err
		}
	}

	var updated *ShortLink

	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		link, err := ownedLink(ctx, u.links, code, ownerID)
		if err != nil {
			return err
		}

		if changes.FriendlyName != nil {
			link.FriendlyName = name
		}

		if changes.LongURL != nil {
			link.LongURL = longURL
		}

		if err := u.links.Update(ctx, link); err != nil {
			return err
		}

		updated = link

		return nil
	})
	if err != nil {
		return nil, err
	}

	u.invalidator.Invalidate(ctx, code)

	return updated, nil
}
