// Package conf resolves configuration values against an ordered chain of
// stores and reports which store supplied each value.
//
// A Store is a descriptor: a provider kind plus kind-specific settings. A
// Registry turns descriptors into Providers, each exposing the current data
// snapshot and provenance metadata. A Chain keeps providers in lookup order
// (index 0 first) and resolves dotted keys such as "db.primary.host" with
// first-match-wins semantics:
//
//	registry := conf.NewRegistry()
//	_ = providers.Register(registry)
//
//	chain := conf.New(registry)
//	_ = chain.AddStore(providers.MemoryStore("defaults", map[string]any{"port": 8080}))
//	_ = chain.AddStore(providers.EnvStore("env", "APP_"))
//
//	resolved, err := chain.GetWithMeta("port")
//
// Only an absent key lets the lookup fall through to the next provider; an
// explicit nil, false, 0 or "" is a resolved value.
//
// ReplaceStore is deliberately lenient: a position that is not an integer or
// that falls outside the chain is ignored and reported as not applied rather
// than as an error.
package conf
