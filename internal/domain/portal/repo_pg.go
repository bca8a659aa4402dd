package portal

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ehr/portal/internal/platform/db"
)

type medicalInfoRepoPG struct{ q db.Querier }

func NewMedicalInfoRepoPG(q db.Querier) MedicalInfoRepository {
	return &medicalInfoRepoPG{q: q}
}

const medicalInfoCols = `m.patient_id, i.username, m.first_name, m.last_name, m.blood_type,
	m.height_cm::float8, m.weight_kg::float8, m.has_had_surgery, m.additional_notes`

func scanMedicalInfo(row pgx.Row) (*MedicalInfo, error) {
	var m MedicalInfo
	err := row.Scan(&m.PatientID, &m.Username, &m.FirstName, &m.LastName, &m.BloodType,
		&m.HeightCm, &m.WeightKg, &m.HasHadSurgery, &m.AdditionalNotes)
	return &m, err
}

func (r *medicalInfoRepoPG) GetByPatient(ctx context.Context, patientID string) (*MedicalInfo, error) {
	var out *MedicalInfo
	err := r.q.QueryRow(ctx, `
		SELECT `+medicalInfoCols+`
		FROM medical_info m JOIN identity i ON i.id = m.patient_id
		WHERE m.patient_id = $1`,
		[]interface{}{patientID},
		func(row pgx.Row) error {
			m, err := scanMedicalInfo(row)
			out = m
			return err
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *medicalInfoRepoPG) List(ctx context.Context, limit, offset int) ([]*MedicalInfo, int, error) {
	var total int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM medical_info`, nil,
		func(row pgx.Row) error { return row.Scan(&total) })
	if err != nil {
		return nil, 0, err
	}

	var out []*MedicalInfo
	err = r.q.Query(ctx, `
		SELECT `+medicalInfoCols+`
		FROM medical_info m JOIN identity i ON i.id = m.patient_id
		ORDER BY m.last_name, m.first_name, m.patient_id
		LIMIT $1 OFFSET $2`,
		[]interface{}{limit, offset},
		func(rows pgx.Rows) error {
			m, err := scanMedicalInfo(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
			return nil
		})
	return out, total, err
}
