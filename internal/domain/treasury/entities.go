package treasury

import "time"

// SingletonID is the primary key of the only treasury row.
const SingletonID = 1

// Treasury stores the process-wide protocol fee configuration and balance.
type Treasury struct {
	ID         uint64    `gorm:"column:id;primaryKey"`
	FeeRateBps uint64    `gorm:"column:fee_rate_bps;not null"`
	FeeBalance string    `gorm:"column:fee_balance;type:varchar(78);not null;default:'0'"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Treasury) TableName() string { return "treasury" }
