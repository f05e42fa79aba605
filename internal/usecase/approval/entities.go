package approval

import (
	"time"
)

type ApprovalDTO struct {
	Contract   string    `json:"contract"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
}

type SettingsDTO struct {
	Owner          string   `json:"owner"`
	ProtocolFeeBps uint64   `json:"protocol_fee_bps"`
	MaxFeeBps      uint64   `json:"max_fee_bps"`
	Allowed        []string `json:"allowed_assets"`
}
