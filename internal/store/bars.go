package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"PatternScreener/internal/model"
)

// EquityBar is one daily bar row in the history table.
type EquityBar struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:20;not null;uniqueIndex:idx_equity_symbol_date"`
	Date      time.Time `gorm:"not null;uniqueIndex:idx_equity_symbol_date"`
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CreatedAt time.Time
}

func (EquityBar) TableName() string { return "equity" }

// BarStore persists bar history in Postgres.
type BarStore struct {
	db *gorm.DB
}

// OpenBarStore connects to Postgres and migrates the equity table.
func OpenBarStore(dsn string) (*BarStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s := NewBarStore(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	log.Println("[INFO] postgres bar store opened")
	return s, nil
}

// NewBarStore wraps an existing gorm handle.
func NewBarStore(db *gorm.DB) *BarStore {
	return &BarStore{db: db}
}

// Migrate creates or updates the equity table.
func (s *BarStore) Migrate() error {
	if err := s.db.AutoMigrate(&EquityBar{}); err != nil {
		return fmt.Errorf("migrate equity: %w", err)
	}
	return nil
}

// SaveBars inserts bars, ignoring dates already stored for the symbol.
func (s *BarStore) SaveBars(ctx context.Context, symbol string, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := toRows(symbol, bars)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 500).Error
}

// LoadBars returns the symbol's bars in [from, to], oldest first.
func (s *BarStore) LoadBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	var rows []EquityBar
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND date BETWEEN ? AND ?", symbol, from, to).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	return toBars(rows), nil
}

// Close releases the underlying connection pool.
func (s *BarStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	log.Println("[INFO] closing postgres bar store")
	return sqlDB.Close()
}

func toRows(symbol string, bars []model.Bar) []EquityBar {
	rows := make([]EquityBar, len(bars))
	for i, b := range bars {
		rows[i] = EquityBar{
			Symbol: symbol,
			Date:   b.Time.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return rows
}

func toBars(rows []EquityBar) []model.Bar {
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = model.Bar{
			Time:   r.Date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars
}
