// Package persistence is a goleveldb-backed implementation of the
// engine's SaveSink contract, plus a chunk snapshot cache keyed the same
// way the chunk manager keys its in-memory map. Both live in one
// database file: a save slot under a fixed key and one entry per chunk
// ever generated, so a restarted server can skip regenerating terrain it
// has already visited.
package persistence

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/klauspost/compress/zstd"

	"github.com/pthm-cable/terrarium/engine"
)

var recordKey = []byte("save/record")

// ErrNoSavedRecord is returned by Load when the database has never
// received a Save.
var ErrNoSavedRecord = errors.New("persistence: no saved record")

// Store is a goleveldb database holding one save Record and a cache of
// ChunkSnapshot payloads, both gob-encoded and zstd-compressed before
// they hit disk.
type Store struct {
	db  *leveldb.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens (creating if necessary) a Store at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: new zstd decoder: %w", err)
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Close releases the underlying database handle and decoder goroutines.
func (s *Store) Close() error {
	s.dec.Close()
	return s.db.Close()
}

func (s *Store) encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("persistence: gob encode: %w", err)
	}
	return s.enc.EncodeAll(buf.Bytes(), nil), nil
}

func (s *Store) decode(raw []byte, v any) error {
	plain, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("persistence: zstd decode: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(plain)).Decode(v); err != nil {
		return fmt.Errorf("persistence: gob decode: %w", err)
	}
	return nil
}

// Save implements engine.SaveSink.
func (s *Store) Save(rec engine.Record) error {
	blob, err := s.encode(rec)
	if err != nil {
		return err
	}
	return s.db.Put(recordKey, blob, nil)
}

// Load implements engine.SaveSink. It returns ErrNoSavedRecord, not a
// hash-validation error, if no save has ever been written; the caller
// (engine.LoadRecord) is responsible for rejecting a tampered payload
// via its own integrity check.
func (s *Store) Load() (engine.Record, error) {
	raw, err := s.db.Get(recordKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return engine.Record{}, ErrNoSavedRecord
	}
	if err != nil {
		return engine.Record{}, fmt.Errorf("persistence: load record: %w", err)
	}
	var rec engine.Record
	if err := s.decode(raw, &rec); err != nil {
		return engine.Record{}, err
	}
	return rec, nil
}

func chunkKey(cx, cy int) []byte {
	return []byte(fmt.Sprintf("chunk/%d,%d", cx, cy))
}

// PutChunk persists one chunk snapshot, overwriting any prior entry for
// the same coordinate.
func (s *Store) PutChunk(snap engine.ChunkSnapshot) error {
	blob, err := s.encode(snap)
	if err != nil {
		return err
	}
	return s.db.Put(chunkKey(snap.CX, snap.CY), blob, nil)
}

// PutChunks writes a batch of snapshots atomically, the common case when
// flushing a tick's worth of newly generated chunks.
func (s *Store) PutChunks(snaps []engine.ChunkSnapshot) error {
	batch := new(leveldb.Batch)
	for _, snap := range snaps {
		blob, err := s.encode(snap)
		if err != nil {
			return err
		}
		batch.Put(chunkKey(snap.CX, snap.CY), blob)
	}
	return s.db.Write(batch, nil)
}

// GetChunk returns a previously persisted snapshot for (cx, cy). The
// second return value is false if no snapshot has ever been stored for
// that coordinate, which is not an error: it just means the chunk is
// generated fresh instead of restored.
func (s *Store) GetChunk(cx, cy int) (engine.ChunkSnapshot, bool, error) {
	raw, err := s.db.Get(chunkKey(cx, cy), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return engine.ChunkSnapshot{}, false, nil
	}
	if err != nil {
		return engine.ChunkSnapshot{}, false, fmt.Errorf("persistence: load chunk %d,%d: %w", cx, cy, err)
	}
	var snap engine.ChunkSnapshot
	if err := s.decode(raw, &snap); err != nil {
		return engine.ChunkSnapshot{}, false, err
	}
	return snap, true, nil
}
