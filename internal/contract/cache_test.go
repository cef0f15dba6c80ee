package contract

import (
	"sync"
	"testing"
	"time"

	"venuebridge/internal/schema"
	"venuebridge/pkg/conn"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	c, err := conn.New(conn.Option{
		Driver:     conn.DriverSQLite,
		ConnString: "file:" + t.Name() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	store, err := NewStore(c.DB())
	require.NoError(t, err)
	return store, c.DB()
}

func TestCacheResolvesSymbols(t *testing.T) {
	c := NewCache(nil)
	assert.Equal(t, "rb1710", c.SymbolFor("RB1710"))
	assert.Equal(t, "RB1710", c.InstrumentFor("rb1710"))

	_, ok := c.ContractFor("rb1710")
	assert.False(t, ok)

	ct := c.PutContract(schema.VenueContract{
		Symbol:    "rb1710",
		Exchange:  "SHFE",
		Size:      decimal.NewFromInt(10),
		PriceTick: decimal.NewFromInt(1),
	})
	assert.Equal(t, "RB1710", ct.InstrumentID)

	got, ok := c.ContractFor(c.SymbolFor("RB1710"))
	require.True(t, ok)
	assert.Equal(t, "SHFE", got.Exchange)
	assert.True(t, got.Size.Equal(decimal.NewFromInt(10)))
	assert.Len(t, c.Contracts(), 1)
}

func TestCacheMergesContractExtra(t *testing.T) {
	c := NewCache(nil)
	_, ok := c.PutContractExtra(schema.VenueContractExtra{
		Symbol:          "ag1712",
		Exchange:        "SHFE",
		LongMarginRatio: decimal.RequireFromString("0.08"),
	})
	assert.False(t, ok)

	_, ok = c.ContractFor("ag1712")
	assert.False(t, ok, "margin ratios alone make no contract")
	assert.Empty(t, c.Contracts())
	assert.Equal(t, "AG1712", c.InstrumentFor("ag1712"))

	c.PutContract(schema.VenueContract{Symbol: "ag1712", Exchange: "SHFE", Name: "silver"})

	got, ok := c.ContractFor("ag1712")
	require.True(t, ok)
	assert.Equal(t, "silver", got.Name)
	assert.True(t, got.LongMarginRatio.Equal(decimal.RequireFromString("0.08")))

	got, ok = c.PutContractExtra(schema.VenueContractExtra{
		Symbol:           "ag1712",
		LongMarginRatio:  decimal.RequireFromString("0.1"),
		ShortMarginRatio: decimal.RequireFromString("0.12"),
	})
	require.True(t, ok)
	assert.Equal(t, "silver", got.Name)
	assert.True(t, got.ShortMarginRatio.Equal(decimal.RequireFromString("0.12")))
}

func TestCacheCommission(t *testing.T) {
	c := NewCache(nil)
	_, ok := c.Commission("RB1710")
	assert.False(t, ok)

	c.PutCommission(schema.VenueCommission{
		Symbol:           "rb1710",
		OpenRatioByMoney: decimal.RequireFromString("0.0001"),
	})
	info, ok := c.Commission("RB1710")
	require.True(t, ok)
	assert.True(t, info.Complete())
	assert.True(t, info.OpenRatioByMoney.Equal(decimal.RequireFromString("0.0001")))
}

func TestCachePersistsAndReloads(t *testing.T) {
	store, _ := newTestStore(t)

	c := NewCache(store)
	c.PutContract(schema.VenueContract{
		Symbol:    "rb1710",
		Exchange:  "SHFE",
		Size:      decimal.NewFromInt(10),
		PriceTick: decimal.NewFromInt(1),
	})
	c.PutContractExtra(schema.VenueContractExtra{
		Symbol:           "rb1710",
		ShortMarginRatio: decimal.RequireFromString("0.09"),
	})
	c.Close()

	reloaded := NewCache(store)
	defer reloaded.Close()
	require.NoError(t, reloaded.Load(t.Context()))

	got, ok := reloaded.ContractFor("rb1710")
	require.True(t, ok)
	assert.Equal(t, "RB1710", got.InstrumentID)
	assert.Equal(t, "rb1710", reloaded.SymbolFor("RB1710"))
	assert.True(t, got.Size.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.ShortMarginRatio.Equal(decimal.RequireFromString("0.09")))
}

func TestCachePutDoesNotWaitForStore(t *testing.T) {
	store, db := newTestStore(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:block", func(*gorm.DB) {
		once.Do(func() { close(entered) })
		<-release
	}))

	c := NewCache(store)
	c.PutContract(schema.VenueContract{Symbol: "rb1710", Exchange: "SHFE", Size: decimal.NewFromInt(10)})

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("contract never reached the store")
	}

	// the writer is stuck in the store, puts still return
	c.PutContractExtra(schema.VenueContractExtra{Symbol: "rb1710", LongMarginRatio: decimal.RequireFromString("0.07")})
	c.PutContract(schema.VenueContract{Symbol: "ag1712", Exchange: "SHFE"})
	got, ok := c.ContractFor("rb1710")
	require.True(t, ok)
	assert.True(t, got.LongMarginRatio.Equal(decimal.RequireFromString("0.07")))

	close(release)
	c.Close()
	c.Close()

	reloaded := NewCache(store)
	defer reloaded.Close()
	require.NoError(t, reloaded.Load(t.Context()))
	assert.Len(t, reloaded.Contracts(), 2)
	got, ok = reloaded.ContractFor("rb1710")
	require.True(t, ok)
	assert.True(t, got.LongMarginRatio.Equal(decimal.RequireFromString("0.07")))
}

func TestCacheWithoutStoreCloses(t *testing.T) {
	c := NewCache(nil)
	c.PutContract(schema.VenueContract{Symbol: "rb1710"})
	c.Close()
	_, ok := c.ContractFor("rb1710")
	assert.True(t, ok)
}
