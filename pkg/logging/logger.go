package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger. Local environments get human-readable
// console output; everything else gets production JSON.
func New(env string) (*zap.Logger, error) {
	if env == "local" {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	}
	return zap.NewProduction()
}
