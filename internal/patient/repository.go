package patient

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Patient, error)
	FindByPhoneDOB(ctx context.Context, phone string, dob time.Time) (*Patient, error)
	Create(ctx context.Context, p *Patient) (int64, error)
}
