package portal

import "context"

type MedicalInfoRepository interface {
	GetByPatient(ctx context.Context, patientID string) (*MedicalInfo, error)
	// List returns one page of medical info ordered by last then first
	// name, with the total number of rows.
	List(ctx context.Context, limit, offset int) ([]*MedicalInfo, int, error)
}
