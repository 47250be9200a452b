package availability

import (
	"context"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// Store reads the weekly template.
type Store interface {
	// ListTemplate returns every template row of the doctor ordered by day then time.
	ListTemplate(ctx context.Context, doctorID int64) ([]Slot, error)
	// ListDay returns the doctor's rows for one weekday in ascending time order.
	ListDay(ctx context.Context, doctorID int64, day time.Weekday) ([]Slot, error)
	GetSlot(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (*Slot, error)
}
