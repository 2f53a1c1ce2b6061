package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"composer/types"

	"go.etcd.io/bbolt"
)

var (
	searchBucket  = []byte("search")
	lyricsBucket  = []byte("lyrics")
	historyBucket = []byte("history")
)

const (
	// DefaultSearchTTL is how long cached search results stay fresh
	DefaultSearchTTL = 24 * time.Hour

	historyKeySep  = "\x00"
	historyTimeFmt = "2006-01-02T15:04:05.000000000Z"
)

// LyricsStore persists search results, fetched lyrics and the download history
type LyricsStore interface {
	GetSearch(q types.LyricsQuery) ([]types.LyricsResult, bool, error)
	PutSearch(q types.LyricsQuery, results []types.LyricsResult) error
	GetLyrics(id int) (*types.LyricsResult, bool, error)
	PutLyrics(r types.LyricsResult) error
	AddHistory(rec types.DownloadRecord) error
	GetHistory(limit int) ([]types.DownloadRecord, error)
	Close() error
}

type searchEntry struct {
	FetchedAt time.Time            `json:"fetchedAt"`
	Results   []types.LyricsResult `json:"results"`
}

// BboltStore is a LyricsStore backed by a bbolt file
type BboltStore struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// NewBboltStore opens (or creates) the database at dbPath
func NewBboltStore(dbPath string, ttl time.Duration) (*BboltStore, error) {
	options := &bbolt.Options{Timeout: 1 * time.Second}
	db, err := bbolt.Open(dbPath, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{searchBucket, lyricsBucket, historyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create buckets: %w", err)
	}

	return &BboltStore{db: db, ttl: ttl, now: time.Now}, nil
}

func searchKey(q types.LyricsQuery) []byte {
	parts := []string{
		strings.ToLower(strings.TrimSpace(q.Title)),
		strings.ToLower(strings.TrimSpace(q.Artist)),
		strings.ToLower(strings.TrimSpace(q.Album)),
		strconv.Itoa(int(q.Duration)),
	}
	return []byte(strings.Join(parts, "\x1f"))
}

// GetSearch returns cached results younger than the TTL
func (s *BboltStore) GetSearch(q types.LyricsQuery) ([]types.LyricsResult, bool, error) {
	var entry searchEntry
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(searchBucket).Get(searchKey(q))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &entry); err != nil {
			return fmt.Errorf("error deserializing search entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}

	if s.ttl > 0 && s.now().Sub(entry.FetchedAt) > s.ttl {
		return nil, false, nil
	}
	return entry.Results, true, nil
}

// PutSearch caches the results of a search
func (s *BboltStore) PutSearch(q types.LyricsQuery, results []types.LyricsResult) error {
	value, err := json.Marshal(searchEntry{FetchedAt: s.now(), Results: results})
	if err != nil {
		return fmt.Errorf("error serializing search entry: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(searchBucket).Put(searchKey(q), value)
	})
}

// GetLyrics returns a cached lyrics record
func (s *BboltStore) GetLyrics(id int) (*types.LyricsResult, bool, error) {
	var r types.LyricsResult
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(lyricsBucket).Get([]byte(strconv.Itoa(id)))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &r)
	})
	if err != nil || !found {
		return nil, false, err
	}
	return &r, true, nil
}

// PutLyrics caches a lyrics record by id
func (s *BboltStore) PutLyrics(r types.LyricsResult) error {
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(lyricsBucket).Put([]byte(strconv.Itoa(r.ID)), value)
	})
}

func historyKey(t time.Time, musicPath string) []byte {
	return []byte(t.UTC().Format(historyTimeFmt) + historyKeySep + musicPath)
}

// AddHistory records a download, replacing an older record for the same file
func (s *BboltStore) AddHistory(rec types.DownloadRecord) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = s.now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket)

		suffix := []byte(historyKeySep + rec.MusicPath)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if bytes.HasSuffix(k, suffix) {
				if err := c.Delete(); err != nil {
					return err
				}
				break
			}
		}

		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("error serializing history entry: %w", err)
		}
		return b.Put(historyKey(rec.SavedAt, rec.MusicPath), value)
	})
}

// GetHistory returns up to limit records, newest first
func (s *BboltStore) GetHistory(limit int) ([]types.DownloadRecord, error) {
	var records []types.DownloadRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var rec types.DownloadRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("error deserializing history entry: %w", err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database
func (s *BboltStore) Close() error {
	return s.db.Close()
}

// cachedLRCLibClient serves repeated searches and lookups from a LyricsStore
type cachedLRCLibClient struct {
	LRCLibClient
	store LyricsStore
}

// NewCachedLRCLibClient wraps client so results are cached in store
func NewCachedLRCLibClient(client LRCLibClient, store LyricsStore) LRCLibClient {
	return &cachedLRCLibClient{LRCLibClient: client, store: store}
}

func (c *cachedLRCLibClient) Search(ctx context.Context, q types.LyricsQuery) ([]types.LyricsResult, error) {
	if results, ok, err := c.store.GetSearch(q); err != nil {
		log.Printf("Lyrics cache read failed: %v", err)
	} else if ok {
		return results, nil
	}

	results, err := c.LRCLibClient.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := c.store.PutSearch(q, results); err != nil {
		log.Printf("Lyrics cache write failed: %v", err)
	}
	for _, r := range results {
		if err := c.store.PutLyrics(r); err != nil {
			log.Printf("Lyrics cache write failed: %v", err)
			break
		}
	}
	return results, nil
}

func (c *cachedLRCLibClient) GetByID(ctx context.Context, id int) (*types.LyricsResult, error) {
	if r, ok, err := c.store.GetLyrics(id); err != nil {
		log.Printf("Lyrics cache read failed: %v", err)
	} else if ok {
		return r, nil
	}

	r, err := c.LRCLibClient.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.store.PutLyrics(*r); err != nil {
		log.Printf("Lyrics cache write failed: %v", err)
	}
	return r, nil
}
