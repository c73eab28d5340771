package jenkins

import (
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// logAdapter routes retryablehttp logs to zerolog. Request attempts are noisy,
// so info messages go out at debug level.
type logAdapter struct{}

func (logAdapter) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (logAdapter) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (logAdapter) Debug(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (logAdapter) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

var _ retryablehttp.LeveledLogger = logAdapter{}
