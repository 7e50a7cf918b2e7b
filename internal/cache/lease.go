package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	leaseNamespaceConstant            = "lease:"
	leaseAcquireErrorTemplateConstant = "failed to acquire lease %s: %w"
	leaseReleaseErrorTemplateConstant = "failed to release lease %s: %w"
)

// LeaseManager takes short-lived named leases owned by a random identifier.
type LeaseManager struct {
	database *badger.DB
	owner    string
}

// NewLeaseManager constructs a LeaseManager with a fresh owner identifier.
func NewLeaseManager(database *badger.DB) (*LeaseManager, error) {
	if database == nil {
		return nil, ErrDatabaseRequired
	}
	return &LeaseManager{database: database, owner: uuid.NewString()}, nil
}

// Owner returns the identifier written into held leases.
func (manager *LeaseManager) Owner() string {
	return manager.owner
}

// TryAcquire takes or renews the named lease. It reports false when another owner holds it.
func (manager *LeaseManager) TryAcquire(name string, timeToLive time.Duration) (bool, error) {
	acquired := false
	updateError := manager.database.Update(func(transaction *badger.Txn) error {
		leaseKey := []byte(leaseNamespaceConstant + name)
		currentOwner, ownerError := readOwner(transaction, leaseKey)
		if ownerError != nil {
			return ownerError
		}
		if len(currentOwner) > 0 && currentOwner != manager.owner {
			return nil
		}
		entry := badger.NewEntry(leaseKey, []byte(manager.owner)).WithTTL(timeToLive)
		if setError := transaction.SetEntry(entry); setError != nil {
			return setError
		}
		acquired = true
		return nil
	})
	if updateError != nil {
		if errors.Is(updateError, badger.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf(leaseAcquireErrorTemplateConstant, name, updateError)
	}
	return acquired, nil
}

// Release drops the named lease when this manager owns it.
func (manager *LeaseManager) Release(name string) error {
	updateError := manager.database.Update(func(transaction *badger.Txn) error {
		leaseKey := []byte(leaseNamespaceConstant + name)
		currentOwner, ownerError := readOwner(transaction, leaseKey)
		if ownerError != nil {
			return ownerError
		}
		if currentOwner != manager.owner {
			return nil
		}
		return transaction.Delete(leaseKey)
	})
	if updateError != nil {
		return fmt.Errorf(leaseReleaseErrorTemplateConstant, name, updateError)
	}
	return nil
}

func readOwner(transaction *badger.Txn, leaseKey []byte) (string, error) {
	item, getError := transaction.Get(leaseKey)
	if getError != nil {
		if errors.Is(getError, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", getError
	}
	ownerValue, copyError := item.ValueCopy(nil)
	if copyError != nil {
		return "", copyError
	}
	return string(ownerValue), nil
}
