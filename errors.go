package conf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ConfigurationError.
type ErrorKind string

const (
	// UnknownProviderKind means no factory is registered for a store's kind.
	UnknownProviderKind ErrorKind = "unknown_provider_kind"
	// InvalidStore means the factory rejected the store descriptor.
	InvalidStore ErrorKind = "invalid_store"
)

var (
	// ErrUnknownProviderKind matches ConfigurationErrors of kind UnknownProviderKind.
	ErrUnknownProviderKind = errors.New("conf: unknown provider kind")
	// ErrInvalidStore matches ConfigurationErrors of kind InvalidStore.
	ErrInvalidStore = errors.New("conf: invalid store")
	// ErrEmptyKind indicates a registration without a kind name.
	ErrEmptyKind = errors.New("conf: provider kind must not be empty")
	// ErrNilFactory indicates a registration without a factory.
	ErrNilFactory = errors.New("conf: provider factory is nil")
	// ErrDuplicateKind indicates a kind was registered twice.
	ErrDuplicateKind = errors.New("conf: provider kind already registered")
)

// ConfigurationError reports a store that could not be turned into a
// provider. It is always returned to the caller of AddStore, InsertStore or
// ReplaceStore and the chain is left unchanged.
type ConfigurationError struct {
	Kind     ErrorKind
	Provider string
	Store    string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("conf: %s provider=%q", e.Kind, e.Provider)
	if e.Store != "" {
		msg += fmt.Sprintf(" store=%q", e.Store)
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel that corresponds to the error kind, so
// errors.Is(err, ErrInvalidStore) holds even when Err is the factory's own
// error.
func (e *ConfigurationError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case UnknownProviderKind:
		return target == ErrUnknownProviderKind
	case InvalidStore:
		return target == ErrInvalidStore
	default:
		return false
	}
}

func wrapStoreError(kind, store string, err error) error {
	if err == nil {
		return nil
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		if cfgErr.Provider == "" {
			cfgErr.Provider = kind
		}
		if cfgErr.Store == "" {
			cfgErr.Store = store
		}
		return cfgErr
	}

	return &ConfigurationError{
		Kind:     InvalidStore,
		Provider: kind,
		Store:    store,
		Err:      err,
	}
}
