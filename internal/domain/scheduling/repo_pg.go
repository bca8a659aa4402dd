package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ehr/portal/internal/platform/db"
)

type appointmentRepoPG struct{ q db.Querier }

func NewAppointmentRepoPG(q db.Querier) AppointmentRepository {
	return &appointmentRepoPG{q: q}
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.q.QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, scheduled_at, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		[]interface{}{a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason},
		func(row pgx.Row) error { return row.Scan(&a.CreatedAt) })
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	var out []*Appointment
	err := r.q.Query(ctx, `
		SELECT a.id, a.patient_id, p.username, a.doctor_id, d.username,
			a.scheduled_at, a.reason, a.created_at
		FROM appointment a
		JOIN identity p ON p.id = a.patient_id
		JOIN identity d ON d.id = a.doctor_id
		WHERE a.doctor_id = $1
		ORDER BY a.scheduled_at ASC, a.id`,
		[]interface{}{doctorID},
		func(rows pgx.Rows) error {
			var a Appointment
			if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName,
				&a.ScheduledAt, &a.Reason, &a.CreatedAt); err != nil {
				return err
			}
			out = append(out, &a)
			return nil
		})
	return out, err
}
