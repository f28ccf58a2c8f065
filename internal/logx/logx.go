package logx

import (
	"context"

	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	tabKey contextKey = iota
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return pslog.Ctx(ctx)
}

// WithTab annotates the logger with the tab id if present.
func WithTab(ctx context.Context, tabID schema.TabID) pslog.Logger {
	log := Ctx(ctx)
	if tabID != "" {
		if current, ok := ctxValue(ctx).(schema.TabID); ok && current == tabID {
			return log
		}
		log = log.With("tab", tabID)
	}
	return log
}

// WithLanguage annotates the logger with a language tag when available.
func WithLanguage(log pslog.Logger, lang schema.Language) pslog.Logger {
	if lang != "" {
		log = log.With("language", lang)
	}
	return log
}

// WithMode annotates the logger with a preview mode when available.
func WithMode(log pslog.Logger, mode schema.PreviewMode) pslog.Logger {
	if mode != "" {
		log = log.With("mode", mode)
	}
	return log
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey, tabID)
}

// ContextWithTabLogger attaches the logger and tab marker to the context.
func ContextWithTabLogger(ctx context.Context, log pslog.Logger, tabID schema.TabID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithTab(ctx, tabID)
}

// CopyContextFields copies the tab marker from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if tab, ok := src.Value(tabKey).(schema.TabID); ok && tab != "" {
		dst = ContextWithTab(dst, tab)
	}
	return dst
}

func ctxValue(ctx context.Context) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(tabKey)
}
