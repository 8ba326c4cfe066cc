package indexer

import (
	"context"
	"time"

	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StatusAwaiting = "awaiting"
	StatusSettled  = "settled"

	DefaultLimit = 50
	MaxLimit     = 500
)

// BetRecord is one row of the long-form bet log. The history ring only
// keeps 48 rounds per player; this table keeps all of them.
type BetRecord struct {
	ID           uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	Player       string    `json:"player" gorm:"uniqueIndex:idx_player_round;type:varchar(64);not null"`
	RoundID      string    `json:"round_id" gorm:"uniqueIndex:idx_player_round;type:varchar(40);not null"`
	Authority    string    `json:"authority" gorm:"index;type:varchar(64);not null"`
	GameType     string    `json:"game_type" gorm:"type:varchar(32);not null"`
	Status       string    `json:"status" gorm:"type:varchar(16);not null"`
	BetAmount    uint64    `json:"bet_amount"`
	Guess        uint32    `json:"guess"`
	Result       uint32    `json:"result"`
	Won          bool      `json:"won"`
	Payout       uint64    `json:"payout"`
	EscrowChange uint64    `json:"escrow_change"`
	PlacedSlot   uint64    `json:"placed_slot"`
	PlacedAt     int64     `json:"placed_at"`
	SettledSlot  uint64    `json:"settled_slot"`
	SettledAt    int64     `json:"settled_at"`
	CreatedAt    time.Time `json:"-" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"-" gorm:"autoUpdateTime"`
}

func (BetRecord) TableName() string {
	return "bet_records"
}

// Indexer persists engine notifications. It never fails the engine: a
// write error is logged and the event is dropped.
type Indexer struct {
	db *gorm.DB
}

func Open(dsn string) (*Indexer, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open indexer database")
	}
	if err := db.AutoMigrate(&BetRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate indexer schema")
	}
	return &Indexer{db: db}, nil
}

func (i *Indexer) Close() error {
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (i *Indexer) BroadcastBetPlaced(ctx context.Context, ev models.BetPlaced) {
	rec := BetRecord{
		Player:     ev.Player,
		RoundID:    ev.RoundID.String(),
		Authority:  ev.Authority,
		GameType:   ev.GameType.String(),
		Status:     StatusAwaiting,
		BetAmount:  ev.BetAmount,
		Guess:      ev.Guess,
		PlacedSlot: ev.Slot,
		PlacedAt:   ev.Timestamp,
	}
	// A settlement may have been indexed first when the oracle is fast.
	err := i.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player"}, {Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bet_amount", "guess", "placed_slot", "placed_at"}),
	}).Create(&rec).Error
	if err != nil {
		logger.Error(ctx).Err(err).Str("player", ev.Player).Str("round_id", rec.RoundID).Msg("failed to index placed bet")
	}
}

func (i *Indexer) BroadcastBetSettled(ctx context.Context, ev models.BetSettled) {
	rec := BetRecord{
		Player:       ev.Player,
		RoundID:      ev.RoundID.String(),
		Authority:    ev.Authority,
		GameType:     ev.GameType.String(),
		Status:       StatusSettled,
		BetAmount:    ev.BetAmount,
		Guess:        ev.Guess,
		Result:       ev.Result,
		Won:          ev.Won,
		Payout:       ev.Payout,
		EscrowChange: ev.EscrowChange,
		SettledSlot:  ev.Slot,
		SettledAt:    ev.Timestamp,
	}
	err := i.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player"}, {Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "result", "won", "payout", "escrow_change", "settled_slot", "settled_at", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		logger.Error(ctx).Err(err).Str("player", ev.Player).Str("round_id", rec.RoundID).Msg("failed to index settled bet")
	}
}

// RecentBets returns the authority's bets, newest first.
func (i *Indexer) RecentBets(ctx context.Context, authority string, limit int) ([]BetRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var out []BetRecord
	err := i.db.WithContext(ctx).
		Where("authority = ?", authority).
		Order("placed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "query bets")
	}
	return out, nil
}

type Stats struct {
	Bets    int64  `json:"bets"`
	Settled int64  `json:"settled"`
	Wins    int64  `json:"wins"`
	Wagered uint64 `json:"wagered"`
	Paid    uint64 `json:"paid"`
}

// PlayerStats aggregates the authority's indexed bets.
func (i *Indexer) PlayerStats(ctx context.Context, authority string) (*Stats, error) {
	var s Stats
	err := i.db.WithContext(ctx).Model(&BetRecord{}).
		Select("COUNT(*) AS bets, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS settled, "+
			"COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0) AS wins, "+
			"COALESCE(SUM(bet_amount), 0) AS wagered, "+
			"COALESCE(SUM(payout), 0) AS paid", StatusSettled).
		Where("authority = ?", authority).
		Scan(&s).Error
	if err != nil {
		return nil, errors.Wrap(err, "aggregate bets")
	}
	return &s, nil
}
