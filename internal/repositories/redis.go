package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	redisPrefix   = "tunecache:"
	redisSeqKey   = redisPrefix + "seq"
	maxRunHistory = 100
)

func songKey(trackID int64) string { return redisPrefix + "song:" + strconv.FormatInt(trackID, 10) }
func genreKey(genre models.Genre) string { return redisPrefix + "genre:" + string(genre) }
func runsKey(genre models.Genre) string { return redisPrefix + "runs:" + string(genre) }

// RedisOpts configures [NewRedisSongStore].
type RedisOpts struct {
	Addr     string
	Password string
	DB       int
}

// RedisSongStore implements [SongStore] on Redis.
//
// Each song is a JSON string; each genre is a sorted set of track ids scored by first-seen sequence. Batches are
// written in a MULTI/EXEC pipeline.
type RedisSongStore struct {
	client *redis.Client
}

// NewRedisSongStore connects to Redis and verifies the connection.
func NewRedisSongStore(ctx context.Context, opts RedisOpts) (*RedisSongStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisSongStore{client: client}, nil
}

// InsertAll upserts songs. Known tracks keep their sequence and move between genre sets when their genre changes.
func (s *RedisSongStore) InsertAll(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	if err := validateAll(songs); err != nil {
		return err
	}

	keys := make([]string, len(songs))
	for i, song := range songs {
		keys[i] = songKey(song.TrackID)
	}

	existing, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("failed to read existing songs: %w", err)
	}

	previous := make(map[int64]models.Genre)
	for i, v := range existing {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var old models.Song
		if err := json.Unmarshal([]byte(str), &old); err != nil {
			return fmt.Errorf("failed to decode song %d: %w", songs[i].TrackID, err)
		}
		previous[songs[i].TrackID] = old.Genre
	}

	scores, err := s.previousScores(ctx, previous)
	if err != nil {
		return err
	}

	fresh := 0
	seen := make(map[int64]bool)
	for _, song := range songs {
		if _, ok := scores[song.TrackID]; !ok && !seen[song.TrackID] {
			fresh++
		}
		seen[song.TrackID] = true
	}

	next := int64(0)
	if fresh > 0 {
		last, err := s.client.IncrBy(ctx, redisSeqKey, int64(fresh)).Result()
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		next = last - int64(fresh) + 1
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, song := range songs {
			data, err := json.Marshal(song)
			if err != nil {
				return fmt.Errorf("failed to encode song %d: %w", song.TrackID, err)
			}

			score, ok := scores[song.TrackID]
			if !ok {
				score = float64(next)
				scores[song.TrackID] = score
				next++
			}

			member := strconv.FormatInt(song.TrackID, 10)
			if old, ok := previous[song.TrackID]; ok && old != song.Genre {
				pipe.ZRem(ctx, genreKey(old), member)
			}
			pipe.Set(ctx, songKey(song.TrackID), data, 0)
			pipe.ZAdd(ctx, genreKey(song.Genre), redis.Z{Score: score, Member: member})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert songs: %w", err)
	}
	return nil
}

// previousScores looks up the first-seen sequence of tracks that are already cached.
func (s *RedisSongStore) previousScores(ctx context.Context, previous map[int64]models.Genre) (map[int64]float64, error) {
	scores := make(map[int64]float64, len(previous))
	if len(previous) == 0 {
		return scores, nil
	}

	cmds := make(map[int64]*redis.FloatCmd, len(previous))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, genre := range previous {
			cmds[id] = pipe.ZScore(ctx, genreKey(genre), strconv.FormatInt(id, 10))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read sequences: %w", err)
	}

	for id, cmd := range cmds {
		score, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sequence for %d: %w", id, err)
		}
		scores[id] = score
	}
	return scores, nil
}

// GetAllByGenre reads the genre set in score order and loads each song
func (s *RedisSongStore) GetAllByGenre(ctx context.Context, genre models.Genre) ([]models.Song, error) {
	ids, err := s.client.ZRange(ctx, genreKey(genre), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}

	songs := []models.Song{}
	if len(ids) == 0 {
		return songs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisPrefix + "song:" + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load songs: %w", err)
	}

	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var song models.Song
		if err := json.Unmarshal([]byte(str), &song); err != nil {
			return nil, fmt.Errorf("failed to decode song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// Get retrieves a cached song by track id
func (s *RedisSongStore) Get(ctx context.Context, trackID int64) (models.Song, error) {
	data, err := s.client.Get(ctx, songKey(trackID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Song{}, fmt.Errorf("%w: %d", shared.ErrNotFound, trackID)
	}
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to get song: %w", err)
	}

	var song models.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return models.Song{}, fmt.Errorf("failed to decode song: %w", err)
	}
	return song, nil
}

// DeleteGenre removes the genre set and every song in it
func (s *RedisSongStore) DeleteGenre(ctx context.Context, genre models.Genre) (int, error) {
	ids, err := s.client.ZRange(ctx, genreKey(genre), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to query songs: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, redisPrefix+"song:"+id)
		}
		pipe.Del(ctx, genreKey(genre))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete songs: %w", err)
	}
	return len(ids), nil
}

// Count returns the cardinality of the genre set
func (s *RedisSongStore) Count(ctx context.Context, genre models.Genre) (int, error) {
	n, err := s.client.ZCard(ctx, genreKey(genre)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return int(n), nil
}

// RecordRun pushes a run onto the genre's capped history list
func (s *RedisSongStore) RecordRun(ctx context.Context, run models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode sync run: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, runsKey(run.Genre), data)
		pipe.LTrim(ctx, runsKey(run.Genre), 0, maxRunHistory-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// LastRuns returns up to n runs for genre, most recent first
func (s *RedisSongStore) LastRuns(ctx context.Context, genre models.Genre, n int) ([]models.SyncRun, error) {
	if n <= 0 {
		return nil, nil
	}

	values, err := s.client.LRange(ctx, runsKey(genre), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}

	runs := make([]models.SyncRun, 0, len(values))
	for _, v := range values {
		var run models.SyncRun
		if err := json.Unmarshal([]byte(v), &run); err != nil {
			return nil, fmt.Errorf("failed to decode sync run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Close closes the client
func (s *RedisSongStore) Close() error {
	return s.client.Close()
}
