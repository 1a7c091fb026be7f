package conf

const (
	// Recommended priorities for the common layering pattern. Higher numbers win.
	ScopePriorityDefaults = 100
	ScopePriorityFile     = 200
	ScopePriorityEnv      = 300
	ScopePriorityArgv     = 400
)

// StandardChain assembles the canonical argv → env → file → defaults chain.
// Stores with an empty Provider are skipped so callers can omit layers.
func StandardChain(registry *Registry, argv, env, file, defaults Store, opts ...Option) (*Chain, error) {
	candidates := []Layer{
		NewLayer(NewScope("argv", ScopePriorityArgv, WithScopeLabel("Command Line")), argv),
		NewLayer(NewScope("env", ScopePriorityEnv, WithScopeLabel("Environment")), env),
		NewLayer(NewScope("file", ScopePriorityFile, WithScopeLabel("Configuration File")), file),
		NewLayer(NewScope("defaults", ScopePriorityDefaults, WithScopeLabel("Defaults")), defaults),
	}
	layers := make([]Layer, 0, len(candidates))
	for _, layer := range candidates {
		if layer.Store.Provider == "" {
			continue
		}
		layers = append(layers, layer)
	}
	stack, err := NewStack(layers...)
	if err != nil {
		return nil, err
	}
	return stack.Build(registry, opts...)
}
