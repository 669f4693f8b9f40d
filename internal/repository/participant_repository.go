package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codearena/judge/internal/domain"
	"github.com/codearena/judge/internal/infrastructure"
)

// participantRepository implements domain.ParticipantRepository on a KV store
type participantRepository struct {
	kv    infrastructure.KVStore
	locks *keyedMutex
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(kv infrastructure.KVStore) domain.ParticipantRepository {
	return &participantRepository{
		kv:    kv,
		locks: newKeyedMutex(),
	}
}

func participantsKey(contestID string) string {
	return fmt.Sprintf("contest:%s:participants", contestID)
}

// Join adds the user to the contest roster. Joining twice is a no-op and
// reports false.
func (r *participantRepository) Join(ctx context.Context, contestID, userID string) (bool, error) {
	key := participantsKey(contestID)
	unlock := r.locks.Lock(key)
	defer unlock()

	roster, err := r.load(ctx, key)
	if err != nil {
		return false, err
	}
	for _, id := range roster {
		if id == userID {
			return false, nil
		}
	}

	roster = append(roster, userID)
	raw, err := json.Marshal(roster)
	if err != nil {
		return false, err
	}
	if err := r.kv.Set(ctx, key, raw); err != nil {
		return false, err
	}
	return true, nil
}

// Count returns how many users joined through the API
func (r *participantRepository) Count(ctx context.Context, contestID string) (int, error) {
	roster, err := r.load(ctx, participantsKey(contestID))
	if err != nil {
		return 0, err
	}
	return len(roster), nil
}

func (r *participantRepository) load(ctx context.Context, key string) ([]string, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, infrastructure.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	var roster []string
	if err := json.Unmarshal(raw, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
