package backend

import (
	"errors"
	"fmt"

	"boutique/internal/config"
)

// BackendTypes lists the backends DATA_BACKEND may select.
var BackendTypes = []BackendType{SQLiteBackend, MongoBackend, MemoryBackend}

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("backend: nil app config")
	}

	bc := Config{
		Type:          BackendType(appConfig.DataBackend),
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		MongoURI:      appConfig.MongoURI,
		MongoDatabase: appConfig.MongoDatabase,
		SeedFile:      appConfig.MemorySeedFile,
	}
	return bc, bc.Validate()
}

// Validate reports the first setting the selected backend is missing.
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend needs SQLITE_DB_PATH")
		}
	case MongoBackend:
		if c.MongoURI == "" {
			return errors.New("mongo backend needs MONGO_URI")
		}
		if c.MongoDatabase == "" {
			return errors.New("mongo backend needs MONGO_DATABASE")
		}
	case MemoryBackend:
		// seed file is optional
	default:
		return fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, BackendTypes)
	}
	return nil
}
