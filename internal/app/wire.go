//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/l1jgo/origin/internal/config"
	"go.uber.org/zap"
)

// InitializeRuntime builds a fully wired runtime.
func InitializeRuntime(cfg *config.Config, log *zap.Logger, level zap.AtomicLevel, session SessionID) (*Runtime, error) {
	wire.Build(RuntimeSet)
	return nil, nil // Wire will replace this
}
