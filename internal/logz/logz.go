// Package logz wraps go.uber.org/zap with the single constructor this
// repository's commands use, instead of scattering zap.New calls around.
package logz

import (
	"go.uber.org/zap"
)

// New builds a production logger unless debug is set, in which case it
// favors human-readable, colorized development output.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything, used by tests and by
// library callers that don't want to configure logging themselves.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
