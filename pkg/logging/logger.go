package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger for the given environment.
// "production" gets JSON output at info level; everything else gets the
// human-readable development config at debug level.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to build production logger: %w", err)
		}
		return logger, nil
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to build development logger: %w", err)
	}
	return logger, nil
}
