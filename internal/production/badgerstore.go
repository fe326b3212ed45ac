package production

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/comalice/counterx/internal/primitives"
)

var slotPrefix = []byte("slot/")

// StoreConfig holds configuration for a BadgerStore.
type StoreConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful for testing.
	InMemory bool

	// SlotSize is the byte length of a freshly allocated slot.
	// Default: primitives.RecordSize.
	SlotSize int

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// BadgerStore plays the host: it owns named storage slots, each one key in
// BadgerDB holding the slot bytes. Slots are allocated zero-filled on first
// use.
type BadgerStore struct {
	db       *badger.DB
	slotSize int

	mu    sync.Mutex
	slots map[string]*BadgerSlot
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadgerStore opens the database described by cfg.
// The caller must Close the store.
func OpenBadgerStore(cfg StoreConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}
	if cfg.SlotSize <= 0 {
		cfg.SlotSize = primitives.RecordSize
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{
		db:       db,
		slotSize: cfg.SlotSize,
		slots:    map[string]*BadgerSlot{},
	}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Slot returns the slot named name. Repeated calls return the same *BadgerSlot,
// so borrow exclusivity holds across callers in this process.
func (s *BadgerStore) Slot(name string) *BadgerSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[name]; ok {
		return slot
	}
	slot := &BadgerSlot{store: s, name: name, key: slotKey(name)}
	s.slots[name] = slot
	return slot
}

// Allocate creates the slot zero-filled if it does not exist yet.
func (s *BadgerStore) Allocate(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(slotKey(name))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(slotKey(name), make([]byte, s.slotSize))
	})
}

// Read returns a copy of the slot bytes, zero-filled if never written.
func (s *BadgerStore) Read(name string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = s.load(txn, slotKey(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", name, err)
	}
	return out, nil
}

// Names lists every slot that has been written, sorted.
func (s *BadgerStore) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = slotPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(bytes.TrimPrefix(it.Item().KeyCopy(nil), slotPrefix)))
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

func (s *BadgerStore) load(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return make([]byte, s.slotSize), nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func slotKey(name string) []byte {
	return append(append([]byte(nil), slotPrefix...), name...)
}

// BadgerSlot is a primitives.Slot backed by one BadgerDB key. A borrow is a
// read-write transaction: commit writes the view back, and a concurrent writer
// to the same key makes the commit fail with ErrStorageWrite.
type BadgerSlot struct {
	store *BadgerStore
	name  string
	key   []byte
	held  atomic.Bool

	// valid only while held
	txn  *badger.Txn
	view []byte
}

// Name returns the slot name.
func (s *BadgerSlot) Name() string {
	return s.name
}

func (s *BadgerSlot) Acquire() ([]byte, error) {
	if !s.held.CompareAndSwap(false, true) {
		return nil, primitives.ErrSlotBorrowed
	}
	txn := s.store.db.NewTransaction(true)
	view, err := s.store.load(txn, s.key)
	if err != nil {
		txn.Discard()
		s.held.Store(false)
		return nil, fmt.Errorf("load slot %q: %w", s.name, err)
	}
	s.txn, s.view = txn, view
	return view, nil
}

func (s *BadgerSlot) Release(commit bool) error {
	if !s.held.Load() {
		return errors.New("release of slot not borrowed")
	}
	txn, view := s.txn, s.view
	s.txn, s.view = nil, nil
	defer s.held.Store(false)
	defer txn.Discard()

	if !commit {
		return nil
	}
	if err := txn.Set(s.key, view); err != nil {
		return fmt.Errorf("%w: slot %q: %w", primitives.ErrStorageWrite, s.name, err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("%w: slot %q: %w", primitives.ErrStorageWrite, s.name, err)
	}
	return nil
}
