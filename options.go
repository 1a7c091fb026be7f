package conf

import "github.com/goliatone/go-conf/pkg/activity"

// Option configures a Chain.
type Option func(*chainConfig)

type chainConfig struct {
	logger          ResolutionLogger
	activityHooks   activity.Hooks
	activityChannel string
}

func applyOptions(opts []Option) chainConfig {
	cfg := chainConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithResolutionLogger records every Get/GetWithMeta call on logger.
func WithResolutionLogger(logger ResolutionLogger) Option {
	return func(cfg *chainConfig) {
		cfg.logger = logger
	}
}

// WithActivityHooks notifies hooks whenever a store is added or replaced.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *chainConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *chainConfig) {
		cfg.activityChannel = channel
	}
}

func (c *Chain) resolutionLogger() ResolutionLogger {
	if c != nil && c.cfg.logger != nil {
		return c.cfg.logger
	}
	return noopResolutionLogger{}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
