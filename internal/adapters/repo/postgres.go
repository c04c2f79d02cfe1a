// Package repo реализует репозитории на основе pgxpool. Стихотворения и
// каналы обслуживают отдельные адаптеры поверх общего пула: наборы методов
// domain.PoemRepo и domain.ChannelRepo пересекаются по именам (List, Delete)
// и на одном получателе не уживаются.
package repo

import (
	"context"
	"time"
)

func connCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if _, ok := parent.Deadline(); ok {
		return parent, func() {}
	}
	return context.WithTimeout(parent, 5*time.Second)
}
