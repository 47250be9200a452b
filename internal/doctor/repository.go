package doctor

import "context"

// Roster is the read side of the doctors table.
type Roster interface {
	// ListDoctors returns every doctor in fetch order.
	ListDoctors(ctx context.Context) ([]Doctor, error)
	GetDoctorByID(ctx context.Context, id int64) (*Doctor, error)

	// ListDepartments returns the distinct lowercase department names.
	ListDepartments(ctx context.Context) ([]string, error)
	ListByDepartment(ctx context.Context, department string) ([]Doctor, error)
}
