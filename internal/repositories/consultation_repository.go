package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"clinic-service/internal/models"
	"clinic-service/internal/queue"
)

type consultationRow struct {
	DoctorID  string    `db:"doctor_id"`
	Visits    []byte    `db:"visits"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row consultationRow) document() (models.ConsultationDocument, error) {
	doc := models.ConsultationDocument{
		DoctorID:  row.DoctorID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Visits, &doc.Visits); err != nil {
		return models.ConsultationDocument{}, fmt.Errorf("decode visits for doctor %s: %w", row.DoctorID, err)
	}
	if doc.Visits == nil {
		doc.Visits = []models.Visit{}
	}
	return doc, nil
}

// ConsultationRepo stores one JSONB document of visits per doctor.
type ConsultationRepo struct {
	db *sqlx.DB
}

// NewConsultationRepo constructs ConsultationRepo.
func NewConsultationRepo(db *sqlx.DB) *ConsultationRepo {
	return &ConsultationRepo{db: db}
}

// Load returns queue.ErrConsultationNotFound when the doctor has no document yet.
func (r *ConsultationRepo) Load(ctx context.Context, doctorID string) (models.ConsultationDocument, error) {
	var row consultationRow
	err := r.db.GetContext(ctx, &row,
		`SELECT doctor_id, visits, created_at, updated_at FROM consultations WHERE doctor_id=$1`, doctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConsultationDocument{}, queue.ErrConsultationNotFound
	}
	if err != nil {
		return models.ConsultationDocument{}, err
	}
	return row.document()
}

// Save replaces the doctor's visit list, creating the document on first use.
func (r *ConsultationRepo) Save(ctx context.Context, doc models.ConsultationDocument) (models.ConsultationDocument, error) {
	visits := doc.Visits
	if visits == nil {
		visits = []models.Visit{}
	}
	payload, err := json.Marshal(visits)
	if err != nil {
		return models.ConsultationDocument{}, fmt.Errorf("encode visits: %w", err)
	}

	var row consultationRow
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO consultations (doctor_id, visits, created_at, updated_at)
        VALUES ($1, $2::jsonb, COALESCE($3::timestamptz, NOW()), NOW())
        ON CONFLICT (doctor_id) DO UPDATE SET visits = EXCLUDED.visits, updated_at = NOW()
        RETURNING doctor_id, visits, created_at, updated_at`,
		doc.DoctorID, payload, createdAtArg(doc)).
		StructScan(&row)
	if err != nil {
		return models.ConsultationDocument{}, err
	}
	return row.document()
}

// createdAtArg is NULL for a document that has not been stamped, letting the
// database default apply. Existing rows keep their created_at on conflict.
func createdAtArg(doc models.ConsultationDocument) sql.NullTime {
	return sql.NullTime{Time: doc.CreatedAt.UTC(), Valid: !doc.CreatedAt.IsZero()}
}

// FindByPatient returns every document containing a visit by patientID.
func (r *ConsultationRepo) FindByPatient(ctx context.Context, patientID string) ([]models.ConsultationDocument, error) {
	filter, err := json.Marshal([]map[string]string{{"patient_id": patientID}})
	if err != nil {
		return nil, err
	}
	return r.selectDocuments(ctx,
		`SELECT doctor_id, visits, created_at, updated_at FROM consultations
        WHERE visits @> $1::jsonb
        ORDER BY updated_at DESC`, filter)
}

// List returns the doctor's document, or every document when doctorID is empty.
func (r *ConsultationRepo) List(ctx context.Context, doctorID string) ([]models.ConsultationDocument, error) {
	if doctorID == "" {
		return r.selectDocuments(ctx, `SELECT doctor_id, visits, created_at, updated_at FROM consultations ORDER BY doctor_id`)
	}
	return r.selectDocuments(ctx,
		`SELECT doctor_id, visits, created_at, updated_at FROM consultations WHERE doctor_id=$1`, doctorID)
}

func (r *ConsultationRepo) selectDocuments(ctx context.Context, query string, args ...any) ([]models.ConsultationDocument, error) {
	var rows []consultationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	docs := make([]models.ConsultationDocument, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
