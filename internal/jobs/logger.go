package jobs

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type zerologAdapter struct {
	l zerolog.Logger
}

// Logger routes asynq's internal logging through zerolog.
func Logger(l zerolog.Logger) asynq.Logger {
	return zerologAdapter{l: l.With().Str("subsystem", "asynq").Logger()}
}

func (a zerologAdapter) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
