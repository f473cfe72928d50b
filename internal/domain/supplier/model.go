package supplier

import (
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/validation"
)

const (
	TypeTickets   = "tickets"
	TypeHotels    = "hotels"
	TypePackages  = "packages"
	TypeTransport = "transport"
	TypeOther     = "other"

	SyncMethodCSV     = "csv"
	SyncMethodAPI     = "api"
	SyncMethodWebhook = "webhook"
	SyncMethodManual  = "manual"
)

// Well-known supplier slugs.
const (
	SlugHelloTickets = "hellotickets"
	SlugP1Travel     = "p1-travel"
)

// Supplier is a ticket-resale partner or data source.
type Supplier struct {
	ID       string            `json:"id"`
	Name     string            `json:"name" validate:"required,max=120"`
	Slug     string            `json:"slug" validate:"required,max=80"`
	Type     string            `json:"type" validate:"required,oneof=tickets hotels packages transport other"`
	IsActive bool              `json:"is_active"`
	Sync     SyncConfig        `json:"sync"`
	Priority int               `json:"priority" validate:"gte=0,lte=100"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type SyncConfig struct {
	Enabled    bool       `json:"enabled"`
	Method     string     `json:"method" validate:"omitempty,oneof=csv api webhook manual"`
	Schedule   string     `json:"schedule,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

func (s Supplier) Validate() error {
	return validation.Struct(s)
}

// Change is the outcome of a mapping upsert. Callers persist only when it is
// not ChangeNone.
type Change int

const (
	ChangeNone Change = iota
	ChangeUpdated
	ChangeAppended
)

func (c Change) Changed() bool {
	return c != ChangeNone
}

func (c Change) String() string {
	switch c {
	case ChangeUpdated:
		return "updated"
	case ChangeAppended:
		return "appended"
	default:
		return "none"
	}
}
