package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	durableNamespaceConstant          = "directories:durable:"
	expiringNamespaceConstant         = "directories:expiring:"
	durableBackendNameConstant        = "durable"
	expiringBackendNameConstant       = "expiring"
	entryNotFoundMessageConstant      = "cache entry not found"
	cacheUnavailableMessageConstant   = "cache unavailable"
	databaseRequiredMessageConstant   = "cache database must be provided"
	entryReadErrorTemplateConstant    = "failed to read cache entry %s: %w"
	entryDecodeErrorTemplateConstant  = "failed to decode cache entry %s: %w"
	entryEncodeErrorTemplateConstant  = "failed to encode cache entry %s: %w"
	entryWriteErrorTemplateConstant   = "failed to write cache entry %s: %w"
	entryDeleteErrorTemplateConstant  = "failed to delete cache entry %s: %w"
	unavailableErrorTemplateConstant  = "%w: %w"
	unavailableNoCauseMessageConstant = "no database"
)

var (
	// ErrEntryNotFound indicates the requested cache entry does not exist or has expired.
	ErrEntryNotFound = errors.New(entryNotFoundMessageConstant)
	// ErrUnavailable indicates the cache database could not be opened for this process.
	ErrUnavailable = errors.New(cacheUnavailableMessageConstant)
	// ErrDatabaseRequired indicates a Badger store was constructed without a database.
	ErrDatabaseRequired = errors.New(databaseRequiredMessageConstant)
)

// Backend identifies a cache store implementation.
type Backend int

// Cache backends.
const (
	BackendDurable Backend = iota
	BackendExpiring
)

// String returns the backend label.
func (backend Backend) String() string {
	if backend == BackendExpiring {
		return expiringBackendNameConstant
	}
	return durableBackendNameConstant
}

// Store persists directory lists under string keys.
type Store interface {
	Get(executionContext context.Context, key string) ([]string, error)
	Set(executionContext context.Context, key string, directories []string) error
	Delete(executionContext context.Context, key string) error
}

// BadgerStore is a Store backed by a Badger database namespace.
type BadgerStore struct {
	database   *badger.DB
	namespace  string
	timeToLive time.Duration
}

// NewDurableStore returns a store whose entries never expire.
func NewDurableStore(database *badger.DB) (*BadgerStore, error) {
	if database == nil {
		return nil, ErrDatabaseRequired
	}
	return &BadgerStore{database: database, namespace: durableNamespaceConstant}, nil
}

// NewExpiringStore returns a store whose entries expire after the provided duration.
func NewExpiringStore(database *badger.DB, timeToLive time.Duration) (*BadgerStore, error) {
	if database == nil {
		return nil, ErrDatabaseRequired
	}
	return &BadgerStore{database: database, namespace: expiringNamespaceConstant, timeToLive: timeToLive}, nil
}

// NewStore builds the store for the requested backend.
func NewStore(database *badger.DB, backend Backend, timeToLive time.Duration) (*BadgerStore, error) {
	if backend == BackendExpiring {
		return NewExpiringStore(database, timeToLive)
	}
	return NewDurableStore(database)
}

// Get returns the cached directory list.
func (store *BadgerStore) Get(_ context.Context, key string) ([]string, error) {
	var directories []string
	viewError := store.database.View(func(transaction *badger.Txn) error {
		item, getError := transaction.Get(store.storageKey(key))
		if getError != nil {
			if errors.Is(getError, badger.ErrKeyNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf(entryReadErrorTemplateConstant, key, getError)
		}
		return item.Value(func(value []byte) error {
			if decodeError := json.Unmarshal(value, &directories); decodeError != nil {
				return fmt.Errorf(entryDecodeErrorTemplateConstant, key, decodeError)
			}
			return nil
		})
	})
	if viewError != nil {
		return nil, viewError
	}
	return directories, nil
}

// Set replaces the cached directory list.
func (store *BadgerStore) Set(_ context.Context, key string, directories []string) error {
	if directories == nil {
		directories = []string{}
	}
	encoded, encodeError := json.Marshal(directories)
	if encodeError != nil {
		return fmt.Errorf(entryEncodeErrorTemplateConstant, key, encodeError)
	}

	updateError := store.database.Update(func(transaction *badger.Txn) error {
		entry := badger.NewEntry(store.storageKey(key), encoded)
		if store.timeToLive > 0 {
			entry = entry.WithTTL(store.timeToLive)
		}
		return transaction.SetEntry(entry)
	})
	if updateError != nil {
		return fmt.Errorf(entryWriteErrorTemplateConstant, key, updateError)
	}
	return nil
}

// Delete removes the cached directory list, reporting ErrEntryNotFound when nothing was stored.
func (store *BadgerStore) Delete(_ context.Context, key string) error {
	return store.database.Update(func(transaction *badger.Txn) error {
		storageKey := store.storageKey(key)
		if _, getError := transaction.Get(storageKey); getError != nil {
			if errors.Is(getError, badger.ErrKeyNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf(entryReadErrorTemplateConstant, key, getError)
		}
		if deleteError := transaction.Delete(storageKey); deleteError != nil {
			return fmt.Errorf(entryDeleteErrorTemplateConstant, key, deleteError)
		}
		return nil
	})
}

// ExpiresAt returns the Unix expiry of an entry, zero for entries without a TTL.
func (store *BadgerStore) ExpiresAt(key string) (uint64, error) {
	var expiresAt uint64
	viewError := store.database.View(func(transaction *badger.Txn) error {
		item, getError := transaction.Get(store.storageKey(key))
		if getError != nil {
			if errors.Is(getError, badger.ErrKeyNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf(entryReadErrorTemplateConstant, key, getError)
		}
		expiresAt = item.ExpiresAt()
		return nil
	})
	return expiresAt, viewError
}

func (store *BadgerStore) storageKey(key string) []byte {
	return []byte(store.namespace + key)
}

// UnavailableStore stands in when the database cannot be opened: reads miss and writes fail.
type UnavailableStore struct {
	cause error
}

// NewUnavailableStore returns a store reporting the provided cause on every operation.
func NewUnavailableStore(cause error) UnavailableStore {
	if cause == nil {
		cause = errors.New(unavailableNoCauseMessageConstant)
	}
	return UnavailableStore{cause: cause}
}

// Get always fails with ErrUnavailable.
func (store UnavailableStore) Get(context.Context, string) ([]string, error) {
	return nil, store.err()
}

// Set always fails with ErrUnavailable.
func (store UnavailableStore) Set(context.Context, string, []string) error {
	return store.err()
}

// Delete always fails with ErrUnavailable.
func (store UnavailableStore) Delete(context.Context, string) error {
	return store.err()
}

func (store UnavailableStore) err() error {
	return fmt.Errorf(unavailableErrorTemplateConstant, ErrUnavailable, store.cause)
}
