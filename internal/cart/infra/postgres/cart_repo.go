package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type cartLine struct {
	CartKey   string          `gorm:"primaryKey;size:64"`
	LineID    string          `gorm:"primaryKey;size:64"`
	Position  int             `gorm:"not null"`
	ProductID string          `gorm:"size:128;not null"`
	Name      string          `gorm:"size:255"`
	Unit      string          `gorm:"size:64"`
	UnitPrice decimal.Decimal `gorm:"type:numeric;not null"`
	Quantity  int             `gorm:"not null"`
	ImageRefs []string        `gorm:"serializer:json"`
	UpdatedAt time.Time
}

func (cartLine) TableName() string { return "cart_lines" }

// Open connects to postgres with gorm's own logging silenced.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// CartRepo stores cart lines in the cart_lines table, one row per line.
type CartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) *CartRepo {
	return &CartRepo{db: db}
}

// Migrate creates or updates the cart_lines table.
func (r *CartRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&cartLine{})
}

func (r *CartRepo) Load(ctx context.Context, key string) ([]domain.Line, error) {
	var rows []cartLine
	err := r.db.WithContext(ctx).
		Where("cart_key = ?", key).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}

	lines := make([]domain.Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fromRow(row))
	}
	return lines, nil
}

// Save replaces every line of the cart in one transaction.
func (r *CartRepo) Save(ctx context.Context, key string, lines []domain.Line) error {
	rows := toRows(key, lines, time.Now().UTC())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_key = ?", key).Delete(&cartLine{}).Error; err != nil {
			return fmt.Errorf("clear cart %s: %w", key, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert cart %s: %w", key, err)
		}
		return nil
	})
}

func toRows(key string, lines []domain.Line, now time.Time) []cartLine {
	rows := make([]cartLine, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, cartLine{
			CartKey:   key,
			LineID:    l.ID,
			Position:  i,
			ProductID: l.ProductID,
			Name:      l.Name,
			Unit:      l.Unit,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			ImageRefs: l.ImageRefs,
			UpdatedAt: now,
		})
	}
	return rows
}

func fromRow(row cartLine) domain.Line {
	return domain.Line{
		ID:        row.LineID,
		ProductID: row.ProductID,
		UnitPrice: row.UnitPrice,
		Quantity:  row.Quantity,
		Name:      row.Name,
		Unit:      row.Unit,
		ImageRefs: row.ImageRefs,
	}
}
