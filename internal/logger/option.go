package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// floorCore drops entries below its own level, regardless of the wrapped core.
type floorCore struct {
	zapcore.Core

	// floor is the lowest level passed through.
	floor zapcore.Level
}

// Enabled reports whether l reaches the floor.
func (c *floorCore) Enabled(l zapcore.Level) bool {
	return c.floor.Enabled(l)
}

// Check adds the core to ce when the entry reaches the floor.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *floorCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the floor on the derived core.
//
//nolint:ireturn,nolintlint // zapcore.Core is the contract.
func (c *floorCore) With(fields []zapcore.Field) zapcore.Core {
	return &floorCore{Core: c.Core.With(fields), floor: c.floor}
}

// WithLevel returns an option that raises the minimum level of a derived logger.
//
//nolint:ireturn,nolintlint // zap.Option is the contract.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &floorCore{Core: core, floor: lvl}
	})
}

// Quiet returns ctx carrying a copy of its logger that drops entries below lvl.
func Quiet(ctx context.Context, lvl zapcore.Level) context.Context {
	return ToContext(ctx, FromContext(ctx).WithOptions(WithLevel(lvl)))
}
