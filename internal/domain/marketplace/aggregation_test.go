package marketplace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queueItem(sku string, delta int64, price string) SyncQueueItem {
	return SyncQueueItem{
		ID:              uuid.New(),
		InventoryItemID: uuid.New(),
		SKU:             sku,
		QuantityDelta:   delta,
		Price:           decimal.RequireFromString(price),
	}
}

func TestAggregateQueue_SumsDeltasOntoRemoteQuantity(t *testing.T) {
	remote := map[string]RemoteListing{
		"LEGO-75192": {SKU: "LEGO-75192", ASIN: "B075SDMMMV", Quantity: 2, Price: decimal.RequireFromString("649.99")},
	}
	items := []SyncQueueItem{
		queueItem("LEGO-75192", 1, "649.99"),
		queueItem("lego-75192 ", 1, "649.99"),
	}

	result := AggregateQueue(items, remote)
	require.Len(t, result.Items, 1)
	require.Empty(t, result.Conflicts)

	aggregated := result.Items[0]
	assert.Equal(t, "LEGO-75192", aggregated.SKU)
	assert.Equal(t, "B075SDMMMV", aggregated.ASIN)
	assert.Equal(t, int64(4), aggregated.Quantity, "existing 2 + queued 1 + 1")
	assert.False(t, aggregated.IsNewSKU)
	assert.Len(t, aggregated.QueueItemIDs, 2)
	assert.Len(t, aggregated.InventoryItemIDs, 2)
}

func TestAggregateQueue_PriceConflictWithinGroup(t *testing.T) {
	items := []SyncQueueItem{
		queueItem("LEGO-10294", 1, "10"),
		queueItem("LEGO-10294", 1, "12"),
	}

	result := AggregateQueue(items, nil)
	assert.Empty(t, result.Items, "conflicting SKU must be excluded from output")
	require.Len(t, result.Conflicts, 1)
	assert.True(t, result.HasConflicts())

	conflict := result.Conflicts[0]
	assert.Equal(t, "LEGO-10294", conflict.SKU)
	assert.Len(t, conflict.QueuedPrices, 2)
	assert.Nil(t, conflict.RemotePrice)
}

func TestAggregateQueue_PriceConflictWithRemote(t *testing.T) {
	remote := map[string]RemoteListing{
		"LEGO-10294": {SKU: "LEGO-10294", Quantity: 5, Price: decimal.RequireFromString("229.99")},
	}
	items := []SyncQueueItem{
		queueItem("LEGO-10294", 2, "199.99"),
	}

	result := AggregateQueue(items, remote)
	assert.Empty(t, result.Items)
	require.Len(t, result.Conflicts, 1)
	require.NotNil(t, result.Conflicts[0].RemotePrice)
	assert.True(t, result.Conflicts[0].RemotePrice.Equal(decimal.RequireFromString("229.99")))
}

func TestAggregateQueue_NewSKU(t *testing.T) {
	items := []SyncQueueItem{
		queueItem("LEGO-21337", 3, "89.99"),
	}

	result := AggregateQueue(items, map[string]RemoteListing{})
	require.Len(t, result.Items, 1)
	aggregated := result.Items[0]
	assert.True(t, aggregated.IsNewSKU)
	assert.Equal(t, int64(3), aggregated.Quantity, "new SKU starts from zero remote quantity")
	assert.Empty(t, aggregated.ASIN)
}

func TestAggregateQueue_MixedConflictAndClean(t *testing.T) {
	remote := map[string]RemoteListing{
		"CLEAN": {SKU: "CLEAN", Quantity: 1, Price: decimal.RequireFromString("50")},
	}
	items := []SyncQueueItem{
		queueItem("CLEAN", 1, "50"),
		queueItem("DIRTY", 1, "10"),
		queueItem("DIRTY", 1, "11"),
	}

	result := AggregateQueue(items, remote)
	require.Len(t, result.Items, 1)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "CLEAN", result.Items[0].SKU)
	assert.Equal(t, "DIRTY", result.Conflicts[0].SKU)
}

func TestAggregateQueue_NegativeTotalClampedToZero(t *testing.T) {
	remote := map[string]RemoteListing{
		"LEGO-75192": {SKU: "LEGO-75192", Quantity: 1, Price: decimal.RequireFromString("10")},
	}
	items := []SyncQueueItem{
		queueItem("LEGO-75192", -5, "10"),
	}

	result := AggregateQueue(items, remote)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(0), result.Items[0].Quantity)
}

func TestAggregateQueue_SkipsEmptySKU(t *testing.T) {
	items := []SyncQueueItem{
		queueItem("  ", 1, "10"),
	}
	result := AggregateQueue(items, nil)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Conflicts)
}

func TestAggregateQueue_DeterministicOrder(t *testing.T) {
	items := []SyncQueueItem{
		queueItem("B", 1, "1"),
		queueItem("A", 1, "1"),
		queueItem("C", 1, "1"),
	}
	result := AggregateQueue(items, nil)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "A", result.Items[0].SKU)
	assert.Equal(t, "B", result.Items[1].SKU)
	assert.Equal(t, "C", result.Items[2].SKU)
}
