package bid

import "time"

type Status string

const (
	StatusPlaced    Status = "placed"
	StatusOutbid    Status = "outbid"
	StatusCancelled Status = "cancelled"
	StatusAccepted  Status = "accepted"
	StatusRefunded  Status = "refunded"
)

// Bid is the history row written for every placed bid. At most one row per
// loan is in StatusPlaced at a time.
type Bid struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	LoanID    uint64    `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Lender    string    `gorm:"column:lender;type:char(42);not null;index" json:"lender"`
	RateBps   uint64    `gorm:"column:rate_bps;not null" json:"rate_bps"`
	Amount    string    `gorm:"column:amount;type:varchar(78);not null" json:"amount"`
	Status    Status    `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Bid) TableName() string { return "loan_bids" }
