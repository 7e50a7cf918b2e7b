package cache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	databaseDirectoryRequiredMessageConstant = "cache directory must be provided"
	databaseOpenErrorTemplateConstant        = "failed to open cache database at %s: %w"
	databaseCloseErrorTemplateConstant       = "failed to close cache database: %w"
	badgerLoggerNameConstant                 = "badger"
)

// ErrDatabaseDirectoryRequired indicates a persistent database was requested without a directory.
var ErrDatabaseDirectoryRequired = errors.New(databaseDirectoryRequiredMessageConstant)

// DatabaseConfiguration describes where the Badger database lives.
type DatabaseConfiguration struct {
	Directory string
	InMemory  bool
}

func (configuration DatabaseConfiguration) options() badger.Options {
	if configuration.InMemory {
		return badger.DefaultOptions("").WithInMemory(true)
	}
	return badger.DefaultOptions(configuration.Directory)
}

// OpenDatabase opens the Badger database, routing Badger logs through zap.
func OpenDatabase(configuration DatabaseConfiguration, logger *zap.Logger) (*badger.DB, error) {
	if !configuration.InMemory && len(strings.TrimSpace(configuration.Directory)) == 0 {
		return nil, ErrDatabaseDirectoryRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	options := configuration.options().WithLogger(newBadgerLogger(logger.Named(badgerLoggerNameConstant)))
	database, openError := badger.Open(options)
	if openError != nil {
		return nil, fmt.Errorf(databaseOpenErrorTemplateConstant, configuration.Directory, openError)
	}
	return database, nil
}

// CloseDatabase closes the database, ignoring nil handles.
func CloseDatabase(database *badger.DB) error {
	if database == nil {
		return nil
	}
	if closeError := database.Close(); closeError != nil {
		return fmt.Errorf(databaseCloseErrorTemplateConstant, closeError)
	}
	return nil
}
