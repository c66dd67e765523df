package logger

import "go.uber.org/zap"

type Field = zap.Field

var (
	String = zap.String
	Int    = zap.Int
	Int64  = zap.Int64
	Float  = zap.Float64
	Bool   = zap.Bool
	Err    = zap.Error
	Any    = zap.Any
)

// Nop returns a logger that discards everything. Used in tests.
func Nop() ILogger {
	return logger{zap: zap.NewNop()}
}
