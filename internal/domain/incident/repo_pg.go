package incident

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ehr/portal/internal/platform/db"
)

type repoPG struct{ q db.Querier }

func NewRepoPG(q db.Querier) Repository {
	return &repoPG{q: q}
}

const incidentCols = `i.id, i.patient_id, p.username, i.occurred_at, i.content,
	i.is_resolved, i.responded_by, i.responded_at, i.created_at`

func (r *repoPG) Create(ctx context.Context, i *Incident) error {
	i.ID = uuid.New()
	return r.q.QueryRow(ctx, `
		INSERT INTO incident (id, patient_id, occurred_at, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		[]interface{}{i.ID, i.PatientID, i.OccurredAt, i.Content},
		func(row pgx.Row) error { return row.Scan(&i.CreatedAt) })
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM incident WHERE id = $1)`,
		[]interface{}{id},
		func(row pgx.Row) error { return row.Scan(&ok) })
	return ok, err
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Incident, error) {
	var out []*Incident
	err := r.q.Query(ctx, sql, args, func(rows pgx.Rows) error {
		var i Incident
		if err := rows.Scan(&i.ID, &i.PatientID, &i.PatientName, &i.OccurredAt, &i.Content,
			&i.IsResolved, &i.RespondedBy, &i.RespondedAt, &i.CreatedAt); err != nil {
			return err
		}
		out = append(out, &i)
		return nil
	})
	return out, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Incident, error) {
	return r.list(ctx, `SELECT `+incidentCols+`
		FROM incident i JOIN identity p ON p.id = i.patient_id
		WHERE i.patient_id = $1
		ORDER BY i.created_at DESC, i.id`, patientID)
}

func (r *repoPG) ListPending(ctx context.Context) ([]*Incident, error) {
	return r.list(ctx, `SELECT `+incidentCols+`
		FROM incident i JOIN identity p ON p.id = i.patient_id
		WHERE i.is_resolved IS NULL
		ORDER BY i.created_at ASC, i.id`)
}

func (r *repoPG) Respond(ctx context.Context, id uuid.UUID, clinicianID string, resolved bool) (int64, error) {
	return r.q.Exec(ctx, `
		UPDATE incident
		SET is_resolved = $2, responded_by = $3, responded_at = NOW()
		WHERE id = $1 AND is_resolved IS NULL`,
		id, resolved, clinicianID)
}
