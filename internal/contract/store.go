package contract

import (
	"context"
	"time"

	"venuebridge/internal/model"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// contractRecord is the persisted form of model.Contract. Decimals are stored
// as text to keep full precision on every driver.
type contractRecord struct {
	Symbol           string `gorm:"primaryKey;size:64"`
	InstrumentID     string `gorm:"index;size:64"`
	Exchange         string `gorm:"size:32"`
	Name             string `gorm:"size:128"`
	ProductClass     string `gorm:"size:32"`
	Size             string `gorm:"type:text"`
	PriceTick        string `gorm:"type:text"`
	LongMarginRatio  string `gorm:"type:text"`
	ShortMarginRatio string `gorm:"type:text"`
	UpdatedAt        time.Time
}

func (contractRecord) TableName() string {
	return "contracts"
}

// Store persists contract master data so a restart can resolve instruments
// before the venue re-sends its contract list.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the contract table and returns a store.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("contract store: nil db")
	}
	if err := db.AutoMigrate(&contractRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate contracts")
	}
	return &Store{db: db}, nil
}

// Save upserts a contract keyed by symbol.
func (s *Store) Save(ctx context.Context, ct model.Contract) error {
	rec := contractRecord{
		Symbol:           ct.Symbol,
		InstrumentID:     ct.InstrumentID,
		Exchange:         ct.Exchange,
		Name:             ct.Name,
		ProductClass:     ct.ProductClass,
		Size:             ct.Size.String(),
		PriceTick:        ct.PriceTick.String(),
		LongMarginRatio:  ct.LongMarginRatio.String(),
		ShortMarginRatio: ct.ShortMarginRatio.String(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return errors.Wrapf(err, "upsert contract %s", ct.Symbol)
	}
	return nil
}

// Load returns every stored contract.
func (s *Store) Load(ctx context.Context) ([]model.Contract, error) {
	var recs []contractRecord
	if err := s.db.WithContext(ctx).Order("symbol").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "query contracts")
	}
	out := make([]model.Contract, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.Contract{
			InstrumentID:     rec.InstrumentID,
			Symbol:           rec.Symbol,
			Exchange:         rec.Exchange,
			Name:             rec.Name,
			ProductClass:     rec.ProductClass,
			Size:             parseDecimal(rec.Size),
			PriceTick:        parseDecimal(rec.PriceTick),
			LongMarginRatio:  parseDecimal(rec.LongMarginRatio),
			ShortMarginRatio: parseDecimal(rec.ShortMarginRatio),
		})
	}
	return out, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
