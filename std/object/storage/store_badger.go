package storage

import (
	"encoding/binary"
	"errors"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
)

var handleSeqKey = []byte("seq/handle")

const packetPrefix = 'p'

// BadgerStore keeps packets on disk so a restarted entity can drain
// packets received before the restart.
type BadgerStore struct {
	db    *badger.DB
	seq   *badger.Sequence
	count atomic.Int64
}

// NewBadgerStore opens a store in dir. An empty dir keeps the store in memory.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	seq, err := db.GetSequence(handleSeqKey, 128)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BadgerStore{db: db, seq: seq}
	if err := s.recount(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *BadgerStore) Close() error {
	return errors.Join(s.seq.Release(), s.db.Close())
}

func (s *BadgerStore) Add(wire []byte) (Handle, error) {
	// sequence starts at 0, handles start at 1
	n, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	h := Handle(n + 1)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(packetKey(h), wire)
	})
	if err != nil {
		return 0, err
	}
	s.count.Add(1)
	return h, nil
}

func (s *BadgerStore) Get(h Handle) (wire []byte, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(packetKey(h))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		wire, err = item.ValueCopy(nil)
		return err
	})
	return
}

func (s *BadgerStore) Release(h Handle) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := packetKey(h)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err == nil {
		s.count.Add(-1)
	}
	return err
}

func (s *BadgerStore) Len() int {
	return int(s.count.Load())
}

// Pending lists the handles of stored packets in the order they were added.
func (s *BadgerStore) Pending() (handles []Handle, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // keys only
		prefix := []byte{packetPrefix}
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			handles = append(handles, Handle(binary.BigEndian.Uint64(key[1:])))
		}
		return nil
	})
	return
}

func (s *BadgerStore) recount() error {
	handles, err := s.Pending()
	if err != nil {
		return err
	}
	s.count.Store(int64(len(handles)))
	return nil
}

func packetKey(h Handle) []byte {
	key := make([]byte, 9)
	key[0] = packetPrefix
	binary.BigEndian.PutUint64(key[1:], uint64(h))
	return key
}
