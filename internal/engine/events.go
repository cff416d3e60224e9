package engine

import (
	"github.com/avigneault/groundwork/internal/catalog"
	"github.com/avigneault/groundwork/internal/model"
)

// Events receives progress callbacks as a run advances. Calls arrive from
// the reconciling goroutine, one ItemStarted/ItemFinished pair per item in
// execution order.
type Events interface {
	ItemStarted(item catalog.CompiledItem)
	ItemFinished(result model.ItemResult)
}

// NopEvents discards every callback.
type NopEvents struct{}

func (NopEvents) ItemStarted(catalog.CompiledItem) {}

func (NopEvents) ItemFinished(model.ItemResult) {}
