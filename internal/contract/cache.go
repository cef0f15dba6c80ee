package contract

import (
	"context"
	"strings"
	"sync"
	"time"

	"venuebridge/internal/model"
	"venuebridge/internal/schema"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const _saveTimeout = 5 * time.Second

// Cache resolves between internal instrument ids and venue symbols, and holds
// contract and commission master data reported by the venue. Contracts are
// written to the store in the background so callers never wait on it.
type Cache struct {
	store *Store

	mu          sync.RWMutex
	contracts   map[string]model.Contract // by symbol
	symbols     map[string]string         // instrument id -> symbol
	commissions map[string]model.CommissionInfo
	// margin ratios reported before their contract
	pendingExtras map[string]schema.VenueContractExtra

	saveMu     sync.Mutex
	unsaved    map[string]model.Contract // latest per symbol
	saveClosed bool
	saveWake   chan struct{}
	saveDone   chan struct{}
}

// NewCache creates an empty cache. store may be nil. With a store, Close must
// be called to flush pending writes.
func NewCache(store *Store) *Cache {
	c := &Cache{
		store:         store,
		contracts:     make(map[string]model.Contract),
		symbols:       make(map[string]string),
		commissions:   make(map[string]model.CommissionInfo),
		pendingExtras: make(map[string]schema.VenueContractExtra),
		unsaved:       make(map[string]model.Contract),
		saveWake:      make(chan struct{}, 1),
		saveDone:      make(chan struct{}),
	}
	if store != nil {
		go c.saveLoop()
	}
	return c
}

// Load fills the cache from the store.
func (c *Cache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	contracts, err := c.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load contracts")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ct := range contracts {
		c.contracts[ct.Symbol] = ct
		c.symbols[ct.InstrumentID] = ct.Symbol
	}
	logs.Infof("contract cache loaded %d contracts", len(contracts))
	return nil
}

// SymbolFor returns the venue symbol of an instrument. Unknown instruments
// fall back to the lower-cased id.
func (c *Cache) SymbolFor(instrumentID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.symbols[instrumentID]; ok {
		return s
	}
	return strings.ToLower(instrumentID)
}

// InstrumentFor returns the instrument id of a venue symbol. Unknown symbols
// fall back to the upper-cased symbol.
func (c *Cache) InstrumentFor(symbol string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ct, ok := c.contracts[symbol]; ok {
		return ct.InstrumentID
	}
	return strings.ToUpper(symbol)
}

func (c *Cache) ContractFor(symbol string) (model.Contract, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ct, ok := c.contracts[symbol]
	return ct, ok
}

func (c *Cache) Contracts() []model.Contract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Contract, 0, len(c.contracts))
	for _, ct := range c.contracts {
		out = append(out, ct)
	}
	return out
}

// PutContract stores a venue contract, keeping previously reported margin
// ratios and merging any that arrived before it.
func (c *Cache) PutContract(vc schema.VenueContract) model.Contract {
	c.mu.Lock()
	ct := c.contracts[vc.Symbol]
	ct.InstrumentID = strings.ToUpper(vc.Symbol)
	ct.Symbol = vc.Symbol
	ct.Exchange = vc.Exchange
	ct.Name = vc.Name
	ct.ProductClass = vc.ProductClass
	ct.Size = vc.Size
	ct.PriceTick = vc.PriceTick
	if extra, ok := c.pendingExtras[vc.Symbol]; ok {
		ct.LongMarginRatio = extra.LongMarginRatio
		ct.ShortMarginRatio = extra.ShortMarginRatio
		delete(c.pendingExtras, vc.Symbol)
	}
	c.contracts[vc.Symbol] = ct
	c.symbols[ct.InstrumentID] = vc.Symbol
	c.mu.Unlock()

	c.persist(ct)
	return ct
}

// PutContractExtra merges margin ratios into a known contract. Without one the
// ratios are held for PutContract and false is returned.
func (c *Cache) PutContractExtra(extra schema.VenueContractExtra) (model.Contract, bool) {
	c.mu.Lock()
	ct, ok := c.contracts[extra.Symbol]
	if !ok {
		c.pendingExtras[extra.Symbol] = extra
		c.mu.Unlock()
		return model.Contract{}, false
	}
	ct.LongMarginRatio = extra.LongMarginRatio
	ct.ShortMarginRatio = extra.ShortMarginRatio
	c.contracts[extra.Symbol] = ct
	c.mu.Unlock()

	c.persist(ct)
	return ct, true
}

// PutCommission stores the commission rule for the instrument behind a symbol.
func (c *Cache) PutCommission(vc schema.VenueCommission) model.CommissionInfo {
	id := c.InstrumentFor(vc.Symbol)
	info := model.NewCommissionInfo(model.CommissionInfo{
		InstrumentID:            id,
		OpenRatioByMoney:        vc.OpenRatioByMoney,
		OpenRatioByVolume:       vc.OpenRatioByVolume,
		CloseRatioByMoney:       vc.CloseRatioByMoney,
		CloseRatioByVolume:      vc.CloseRatioByVolume,
		CloseTodayRatioByMoney:  vc.CloseTodayRatioByMoney,
		CloseTodayRatioByVolume: vc.CloseTodayRatioByVolume,
	})

	c.mu.Lock()
	c.commissions[id] = info
	c.mu.Unlock()
	return info
}

func (c *Cache) Commission(instrumentID string) (model.CommissionInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.commissions[instrumentID]
	return info, ok
}

// persist queues a contract for the writer. A queued contract not yet saved
// is replaced by a newer one of the same symbol.
func (c *Cache) persist(ct model.Contract) {
	if c.store == nil {
		return
	}
	c.saveMu.Lock()
	if c.saveClosed {
		c.saveMu.Unlock()
		logs.Warnf("contract %s not saved, cache closed", ct.Symbol)
		return
	}
	c.unsaved[ct.Symbol] = ct
	c.saveMu.Unlock()

	select {
	case c.saveWake <- struct{}{}:
	default:
	}
}

func (c *Cache) saveLoop() {
	defer close(c.saveDone)
	for {
		batch, closed := c.takeUnsaved()
		for _, ct := range batch {
			ctx, cancel := context.WithTimeout(context.Background(), _saveTimeout)
			if err := c.store.Save(ctx, ct); err != nil {
				logs.Errorf("save contract %s, err: %+v", ct.Symbol, err)
			}
			cancel()
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-c.saveWake
	}
}

func (c *Cache) takeUnsaved() ([]model.Contract, bool) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if len(c.unsaved) == 0 {
		return nil, c.saveClosed
	}
	batch := make([]model.Contract, 0, len(c.unsaved))
	for symbol, ct := range c.unsaved {
		batch = append(batch, ct)
		delete(c.unsaved, symbol)
	}
	return batch, c.saveClosed
}

// Close flushes queued contracts to the store and stops the writer. Later
// puts still update the cache but are no longer saved.
func (c *Cache) Close() {
	if c.store == nil {
		return
	}
	c.saveMu.Lock()
	if !c.saveClosed {
		c.saveClosed = true
		select {
		case c.saveWake <- struct{}{}:
		default:
		}
	}
	c.saveMu.Unlock()
	<-c.saveDone
}

// Multiplier returns the contract size of an instrument, one when unknown.
func (c *Cache) Multiplier(instrumentID string) decimal.Decimal {
	ct, ok := c.ContractFor(c.SymbolFor(instrumentID))
	if !ok {
		return decimal.NewFromInt(1)
	}
	return ct.Multiplier()
}
