package medication

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ehr/portal/internal/platform/db"
)

type prescriptionRepoPG struct{ q db.Querier }

func NewPrescriptionRepoPG(q db.Querier) PrescriptionRepository {
	return &prescriptionRepoPG{q: q}
}

const prescriptionCols = `p.id, p.patient_id, pi.username, p.doctor_id, di.username,
	p.medication, p.dosage, p.refill_reason, p.needs_refill, p.refill_approved,
	p.refill_requested_at, p.refill_responded_at, p.created_at`

const prescriptionFrom = `FROM prescription p
	JOIN identity pi ON pi.id = p.patient_id
	JOIN identity di ON di.id = p.doctor_id`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.PatientName, &p.DoctorID, &p.DoctorName,
		&p.Medication, &p.Dosage, &p.RefillReason, &p.NeedsRefill, &p.RefillApproved,
		&p.RefillRequestedAt, &p.RefillRespondedAt, &p.CreatedAt)
	return &p, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	return r.q.QueryRow(ctx, `
		INSERT INTO prescription (id, patient_id, doctor_id, medication, dosage)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		[]interface{}{p.ID, p.PatientID, p.DoctorID, p.Medication, p.Dosage},
		func(row pgx.Row) error { return row.Scan(&p.CreatedAt) })
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var out *Prescription
	err := r.q.QueryRow(ctx, `SELECT `+prescriptionCols+` `+prescriptionFrom+` WHERE p.id = $1`,
		[]interface{}{id},
		func(row pgx.Row) error {
			p, err := scanPrescription(row)
			out = p
			return err
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *prescriptionRepoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Prescription, error) {
	var out []*Prescription
	err := r.q.Query(ctx, sql, args, func(rows pgx.Rows) error {
		p, err := scanPrescription(rows)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error) {
	return r.list(ctx, `SELECT `+prescriptionCols+` `+prescriptionFrom+`
		WHERE p.patient_id = $1
		ORDER BY p.created_at DESC, p.id`, patientID)
}

func (r *prescriptionRepoPG) ListPendingByDoctor(ctx context.Context, doctorID string) ([]*Prescription, error) {
	return r.list(ctx, `SELECT `+prescriptionCols+` `+prescriptionFrom+`
		WHERE p.doctor_id = $1 AND p.needs_refill AND p.refill_approved IS NULL
		ORDER BY p.refill_requested_at ASC, p.id`, doctorID)
}

func (r *prescriptionRepoPG) RequestRefill(ctx context.Context, id uuid.UUID, patientID, reason string) (int64, error) {
	return r.q.Exec(ctx, `
		UPDATE prescription
		SET needs_refill = TRUE, refill_approved = NULL, refill_reason = $3,
			refill_requested_at = NOW(), refill_responded_at = NULL
		WHERE id = $1 AND patient_id = $2`,
		id, patientID, reason)
}

func (r *prescriptionRepoPG) RespondRefill(ctx context.Context, id uuid.UUID, doctorID string, approve bool) (int64, error) {
	return r.q.Exec(ctx, `
		UPDATE prescription
		SET refill_approved = $3, needs_refill = FALSE, refill_responded_at = NOW()
		WHERE id = $1 AND doctor_id = $2 AND needs_refill AND refill_approved IS NULL`,
		id, doctorID, approve)
}
