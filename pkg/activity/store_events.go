package activity

import (
	"fmt"
	"strings"
	"time"
)

const (
	// VerbStoreAdded is emitted when a store is inserted into a chain.
	VerbStoreAdded = "conf.store.added"
	// VerbStoreReplaced is emitted when a store replaces another in place.
	VerbStoreReplaced = "conf.store.replaced"
	// ObjectTypeStore is the object type of every store event.
	ObjectTypeStore = "conf.store"
)

// StoreEventInput describes a chain mutation.
type StoreEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Provider   string
	Name       string
	Position   int
	Length     int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStoreAddedEvent constructs the event for a store insertion.
func BuildStoreAddedEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbStoreAdded, input)
}

// BuildStoreReplacedEvent constructs the event for an in-place replacement.
func BuildStoreReplacedEvent(input StoreEventInput) Event {
	return buildStoreEvent(VerbStoreReplaced, input)
}

func buildStoreEvent(verb string, input StoreEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["provider"] = strings.TrimSpace(input.Provider)
	metadata["position"] = input.Position
	metadata["length"] = input.Length
	if name := strings.TrimSpace(input.Name); name != "" {
		metadata["name"] = name
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeStore,
		ObjectID:   storeObjectID(input),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func storeObjectID(input StoreEventInput) string {
	if name := strings.TrimSpace(input.Name); name != "" {
		return name
	}
	if provider := strings.TrimSpace(input.Provider); provider != "" {
		return fmt.Sprintf("%s#%d", provider, input.Position)
	}
	return fmt.Sprintf("store#%d", input.Position)
}
