package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"housingsweep/internal/model"
	"housingsweep/internal/service/seen"

	"github.com/redis/go-redis/v9"
)

// SeenKeyPrefix prefixes the hash holding one zone's wards
const SeenKeyPrefix = "seen"

// Snapshotter mirrors the seen-plot store into Redis hashes, one per zone,
// keyed seen:<world>:<territory> with one field per ward number
type Snapshotter struct {
	client *redis.Client
}

// NewSnapshotter creates a snapshotter on client
func NewSnapshotter(client *redis.Client) *Snapshotter {
	return &Snapshotter{client: client}
}

func zoneRedisKey(zone model.ZoneKey) string {
	return fmt.Sprintf("%s:%d:%d", SeenKeyPrefix, zone.WorldID, zone.TerritoryID)
}

func parseZoneRedisKey(key string) (model.ZoneKey, error) {
	rest, ok := strings.CutPrefix(key, SeenKeyPrefix+":")
	if !ok {
		return model.ZoneKey{}, fmt.Errorf("unexpected snapshot key %q", key)
	}
	return model.ParseZoneKey(rest)
}

// Save writes zones changed since the last save and deletes the hashes of
// cleared zones. A changed zone's hash is rewritten whole.
func (s *Snapshotter) Save(ctx context.Context, store *seen.Store) (int, error) {
	n, err := store.PersistChanges(func(changed map[model.ZoneKey]seen.ZoneWards, removed []model.ZoneKey) error {
		pipe := s.client.TxPipeline()

		for zone, wards := range changed {
			key := zoneRedisKey(zone)
			pipe.Del(ctx, key)
			if len(wards) == 0 {
				continue
			}

			fields := make(map[string]interface{}, len(wards))
			for ward, plots := range wards {
				data, err := json.Marshal(plots)
				if err != nil {
					return err
				}
				fields[strconv.Itoa(int(ward))] = data
			}
			pipe.HSet(ctx, key, fields)
		}

		for _, zone := range removed {
			pipe.Del(ctx, zoneRedisKey(zone))
		}

		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("save seen snapshot: %w", err)
	}

	if n > 0 {
		log.Printf("Saved %d zones to Redis", n)
	}
	return n, nil
}

// Load reads every zone hash back into store. Entries that fail to parse
// are skipped.
func (s *Snapshotter) Load(ctx context.Context, store *seen.Store) (int, error) {
	var cursor uint64
	var keys []string
	pattern := fmt.Sprintf("%s:*", SeenKeyPrefix)

	for {
		batch, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scan seen snapshot: %w", err)
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	loaded := 0
	for _, key := range keys {
		zone, err := parseZoneRedisKey(key)
		if err != nil {
			log.Printf("Skipping snapshot key: %v", err)
			continue
		}

		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return loaded, fmt.Errorf("read %s: %w", key, err)
		}

		wards := make(seen.ZoneWards, len(fields))
		for field, data := range fields {
			ward, err := strconv.ParseInt(field, 10, 16)
			if err != nil || !model.ValidWardNumber(int16(ward)) {
				continue
			}
			var plots []model.PlotState
			if err := json.Unmarshal([]byte(data), &plots); err != nil {
				continue
			}
			wards[int16(ward)] = plots
		}

		store.Load(zone, wards)
		loaded++
	}

	log.Printf("Loaded %d zones from Redis", loaded)
	return loaded, nil
}
