package registry

import (
	"context"
	"encoding/json"
	"time"

	"joker-service/internal/service/game"
	"joker-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	activeSetKey   = "tables:active"
	summaryKeyPfx  = "table:"
	stateKeySuffix = ":state"

	// Entries outlive a crashed replica by at most this long; every
	// snapshot publish refreshes it.
	entryTTL = 120 * time.Second
)

// Registry mirrors live tables into redis so listings and god-mode snapshots
// work across replicas. It implements game.Registrar.
type Registry struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Registry {
	return &Registry{rdb: rdb}
}

func summaryKey(tableID string) string {
	return summaryKeyPfx + tableID
}

func stateKey(tableID string) string {
	return summaryKeyPfx + tableID + stateKeySuffix
}

// Publish upserts the table's summary and full snapshot and refreshes their
// TTL.
func (r *Registry) Publish(ctx context.Context, summary game.TableSummary, state *game.GameState) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	pipe.Set(ctx, summaryKey(summary.ID), summaryJSON, entryTTL)
	pipe.Set(ctx, stateKey(summary.ID), stateJSON, entryTTL)
	pipe.SAdd(ctx, activeSetKey, summary.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// Remove drops a finished or abandoned table from the index.
func (r *Registry) Remove(ctx context.Context, tableID string) error {
	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, summaryKey(tableID), stateKey(tableID))
	pipe.SRem(ctx, activeSetKey, tableID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the summaries of every live table, pruning ids whose entries
// expired.
func (r *Registry) List(ctx context.Context) ([]game.TableSummary, error) {
	ids, err := r.rdb.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]game.TableSummary, 0, len(ids))
	for _, id := range ids {
		raw, err := r.rdb.Get(ctx, summaryKey(id)).Bytes()
		if err == redis.Nil {
			// Replica died without cleanup; drop the stale member.
			if err := r.rdb.SRem(ctx, activeSetKey, id).Err(); err != nil {
				logger.Log.Warn("prune stale table failed", zap.String("tableID", id), zap.Error(err))
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		var summary game.TableSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			logger.Log.Warn("corrupt table summary", zap.String("tableID", id), zap.Error(err))
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetState fetches the last published full snapshot, or nil when the table
// is unknown.
func (r *Registry) GetState(ctx context.Context, tableID string) (*game.GameState, error) {
	raw, err := r.rdb.Get(ctx, stateKey(tableID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state game.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
