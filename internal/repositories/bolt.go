package repositories

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	bolt "go.etcd.io/bbolt"
)

var (
	songsBucket  = []byte("songs")
	genresBucket = []byte("genres")
	runsBucket   = []byte("runs")
)

// boltRecord is the value stored under a track id in the songs bucket.
type boltRecord struct {
	Seq  uint64      `json:"seq"`
	Song models.Song `json:"song"`
}

// BoltSongStore implements [SongStore] on a bbolt file.
//
// Layout:
//
//	songs/<track id>             -> boltRecord JSON
//	genres/<genre>/<seq>         -> track id
//	runs/<seq>                   -> models.SyncRun JSON
//
// Keys are 8-byte big-endian so cursor order is numeric order.
type BoltSongStore struct {
	db *bolt.DB
}

// NewBoltSongStore opens (or creates) the bbolt file at path.
func NewBoltSongStore(path string) (*BoltSongStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{songsBucket, genresBucket, runsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		genres := tx.Bucket(genresBucket)
		for _, g := range models.Genres() {
			if _, err := genres.CreateBucketIfNotExists([]byte(g)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltSongStore{db: db}, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// InsertAll upserts songs in one bbolt transaction.
func (s *BoltSongStore) InsertAll(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	if err := validateAll(songs); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(songsBucket)
		genres := tx.Bucket(genresBucket)

		for _, song := range songs {
			key := itob(uint64(song.TrackID))

			var rec boltRecord
			if existing := records.Get(key); existing != nil {
				if err := json.Unmarshal(existing, &rec); err != nil {
					return fmt.Errorf("failed to decode song %d: %w", song.TrackID, err)
				}
				if rec.Song.Genre != song.Genre {
					if old := genres.Bucket([]byte(rec.Song.Genre)); old != nil {
						if err := old.Delete(itob(rec.Seq)); err != nil {
							return fmt.Errorf("failed to unindex song %d: %w", song.TrackID, err)
						}
					}
				}
			} else {
				seq, err := records.NextSequence()
				if err != nil {
					return fmt.Errorf("failed to generate sequence: %w", err)
				}
				rec.Seq = seq
			}
			rec.Song = song

			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode song %d: %w", song.TrackID, err)
			}
			if err := records.Put(key, data); err != nil {
				return fmt.Errorf("failed to insert song %d: %w", song.TrackID, err)
			}

			index, err := genres.CreateBucketIfNotExists([]byte(song.Genre))
			if err != nil {
				return err
			}
			if err := index.Put(itob(rec.Seq), key); err != nil {
				return fmt.Errorf("failed to index song %d: %w", song.TrackID, err)
			}
		}
		return nil
	})
}

// GetAllByGenre walks the genre index in sequence order
func (s *BoltSongStore) GetAllByGenre(ctx context.Context, genre models.Genre) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	songs := []models.Song{}
	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(genresBucket).Bucket([]byte(genre))
		if index == nil {
			return nil
		}
		records := tx.Bucket(songsBucket)

		return index.ForEach(func(_, trackKey []byte) error {
			data := records.Get(trackKey)
			if data == nil {
				return nil
			}
			var rec boltRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("failed to decode song: %w", err)
			}
			songs = append(songs, rec.Song)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read songs: %w", err)
	}
	return songs, nil
}

// Get retrieves a cached song by track id
func (s *BoltSongStore) Get(ctx context.Context, trackID int64) (models.Song, error) {
	var rec boltRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(songsBucket).Get(itob(uint64(trackID)))
		if data == nil {
			return fmt.Errorf("%w: %d", shared.ErrNotFound, trackID)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec.Song, err
}

// DeleteGenre removes the genre index and every song it references
func (s *BoltSongStore) DeleteGenre(ctx context.Context, genre models.Genre) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.db.Update(func(tx *bolt.Tx) error {
		genres := tx.Bucket(genresBucket)
		index := genres.Bucket([]byte(genre))
		if index == nil {
			return nil
		}

		records := tx.Bucket(songsBucket)
		err := index.ForEach(func(_, trackKey []byte) error {
			n++
			return records.Delete(trackKey)
		})
		if err != nil {
			return err
		}

		if err := genres.DeleteBucket([]byte(genre)); err != nil {
			return err
		}
		_, err = genres.CreateBucket([]byte(genre))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete songs: %w", err)
	}
	return n, nil
}

// Count returns the number of indexed songs of genre
func (s *BoltSongStore) Count(ctx context.Context, genre models.Genre) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		if index := tx.Bucket(genresBucket).Bucket([]byte(genre)); index != nil {
			n = index.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// RecordRun appends a sync run
func (s *BoltSongStore) RecordRun(ctx context.Context, run models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(runsBucket)
		seq, err := runs.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("failed to encode sync run: %w", err)
		}
		return runs.Put(itob(seq), data)
	})
}

// LastRuns walks the run log backwards
func (s *BoltSongStore) LastRuns(ctx context.Context, genre models.Genre, n int) ([]models.SyncRun, error) {
	var runs []models.SyncRun
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil && len(runs) < n; k, v = c.Prev() {
			var run models.SyncRun
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("failed to decode sync run: %w", err)
			}
			if run.Genre == genre {
				runs = append(runs, run)
			}
		}
		return nil
	})
	return runs, err
}

// Close closes the bbolt file
func (s *BoltSongStore) Close() error {
	return s.db.Close()
}
