// Package auth decides who may run privileged commands. Admins come from
// static configuration; moderators are mutable at runtime and persisted
// through an external store.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ModeratorStore persists the moderator set between restarts.
type ModeratorStore interface {
	LoadModerators(ctx context.Context) ([]int64, error)
	SaveModerators(ctx context.Context, ids []int64) error
}

type Policy struct {
	admins map[int64]struct{}
	store  ModeratorStore
	log    zerolog.Logger

	mu   sync.Mutex
	mods map[int64]struct{}
}

// NewPolicy loads the persisted moderator set and returns a ready policy.
func NewPolicy(ctx context.Context, admins []int64, store ModeratorStore, log zerolog.Logger) (*Policy, error) {
	ids, err := store.LoadModerators(ctx)
	if err != nil {
		return nil, fmt.Errorf("load moderators: %w", err)
	}

	p := &Policy{
		admins: make(map[int64]struct{}, len(admins)),
		store:  store,
		log:    log,
		mods:   make(map[int64]struct{}, len(ids)),
	}
	for _, id := range admins {
		p.admins[id] = struct{}{}
	}
	for _, id := range ids {
		p.mods[id] = struct{}{}
	}
	return p, nil
}

func (p *Policy) IsAdmin(userID int64) bool {
	_, ok := p.admins[userID]
	return ok
}

func (p *Policy) IsModerator(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.mods[userID]
	return ok
}

// AddModerator persists first and commits to the in-memory set only on
// success, so a storage failure leaves the set unchanged. The whole
// read-modify-write runs under the policy lock.
func (p *Policy) AddModerator(ctx context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.mods[userID]; ok {
		return nil
	}
	if err := p.store.SaveModerators(ctx, append(p.snapshot(), userID)); err != nil {
		return fmt.Errorf("save moderators: %w", err)
	}
	p.mods[userID] = struct{}{}
	p.log.Info().Int64("moderator_id", userID).Msg("moderator added")
	return nil
}

func (p *Policy) RemoveModerator(ctx context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.mods[userID]; !ok {
		return nil
	}
	ids := make([]int64, 0, len(p.mods)-1)
	for id := range p.mods {
		if id != userID {
			ids = append(ids, id)
		}
	}
	if err := p.store.SaveModerators(ctx, ids); err != nil {
		return fmt.Errorf("save moderators: %w", err)
	}
	delete(p.mods, userID)
	p.log.Info().Int64("moderator_id", userID).Msg("moderator removed")
	return nil
}

func (p *Policy) snapshot() []int64 {
	ids := make([]int64, 0, len(p.mods))
	for id := range p.mods {
		ids = append(ids, id)
	}
	return ids
}
