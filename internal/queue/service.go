package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"clinic-service/internal/apperr"
	"clinic-service/internal/directory"
	"clinic-service/internal/lockmap"
	"clinic-service/internal/models"
	"clinic-service/internal/observability"
)

var tracer = otel.Tracer("clinic-service/queue")

// ErrConsultationNotFound is returned by a Store for a doctor without a document.
var ErrConsultationNotFound = errors.New("consultation document not found")

// Store persists one consultation document per doctor.
type Store interface {
	// Load returns ErrConsultationNotFound when the doctor has no document.
	Load(ctx context.Context, doctorID string) (models.ConsultationDocument, error)
	Save(ctx context.Context, doc models.ConsultationDocument) (models.ConsultationDocument, error)
	FindByPatient(ctx context.Context, patientID string) ([]models.ConsultationDocument, error)
	// List returns every document when doctorID is empty.
	List(ctx context.Context, doctorID string) ([]models.ConsultationDocument, error)
}

// Directory resolves external doctor and patient identities.
type Directory interface {
	ResolveDoctorByLicense(ctx context.Context, licenseNumber string) (string, error)
	ResolvePatientByContact(ctx context.Context, contact string) (models.Patient, error)
	GetDoctorProfile(ctx context.Context, doctorID string) (models.DoctorProfile, error)
}

// BookingRequest identifies the doctor by license number and the patient by contact.
type BookingRequest struct {
	DoctorLicense   string                  `json:"doctor_license_number" validate:"required"`
	PatientContact  string                  `json:"patient_contact" validate:"required,min=10"`
	PatientName     string                  `json:"patient_name"`
	Reason          string                  `json:"reason" validate:"required"`
	Type            models.ConsultationType `json:"consultation_type" validate:"omitempty,oneof=general follow-up emergency video-call"`
	PreferredDate   string                  `json:"preferred_date"`
	PreferredTime   string                  `json:"preferred_time"`
	ScheduledTime   string                  `json:"scheduled_time"`
	AdditionalNotes string                  `json:"additional_notes"`
}

// StatusUpdate moves one patient's visit with a doctor to a new status.
type StatusUpdate struct {
	DoctorID  string             `json:"doctor_id" validate:"required"`
	PatientID string             `json:"patient_id" validate:"required"`
	Status    models.VisitStatus `json:"status" validate:"required,oneof=waiting in-progress completed cancelled"`
	Notes     string             `json:"doctor_notes"`
}

// Service runs the consultation queue state machine.
type Service struct {
	store     Store
	directory Directory
	locks     *lockmap.Map
	validate  *validator.Validate
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used for booking and transition timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a queue Service.
func NewService(store Store, dir Directory, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: dir,
		locks:     lockmap.New(),
		validate:  validator.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book appends a waiting visit to the doctor's queue.
func (s *Service) Book(ctx context.Context, req BookingRequest) (models.Visit, error) {
	ctx, span := tracer.Start(ctx, "queue.book", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	visit, doctorID, err := s.book(ctx, req)
	observability.IncQueueOperation("book", resultOf(err))
	if err != nil {
		span.RecordError(err)
		return models.Visit{}, err
	}
	span.SetAttributes(attribute.String("queue.doctor_id", doctorID))

	zap.S().Infow("consultation booked",
		"doctor_id", doctorID,
		"patient_id", visit.PatientID,
		"type", visit.Type,
	)
	s.publish(ctx, "booked", doctorID, visit)
	return visit, nil
}

func (s *Service) book(ctx context.Context, req BookingRequest) (models.Visit, string, error) {
	req.DoctorLicense = strings.TrimSpace(req.DoctorLicense)
	req.PatientContact = strings.TrimSpace(req.PatientContact)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return models.Visit{}, "", apperr.Validation("%s", validationMessage(err))
	}
	if req.Type == "" {
		req.Type = models.ConsultationGeneral
	}
	preferredDate, err := parseBookingTime("preferred_date", req.PreferredDate)
	if err != nil {
		return models.Visit{}, "", err
	}
	scheduledTime, err := parseBookingTime("scheduled_time", req.ScheduledTime)
	if err != nil {
		return models.Visit{}, "", err
	}

	doctorID, err := s.directory.ResolveDoctorByLicense(ctx, req.DoctorLicense)
	if err != nil {
		return models.Visit{}, "", directoryError(err, "resolve doctor")
	}
	patient, err := s.directory.ResolvePatientByContact(ctx, req.PatientContact)
	if err != nil {
		return models.Visit{}, "", directoryError(err, "resolve patient")
	}

	unlock := s.locks.Lock(doctorID)
	defer unlock()

	doc, err := s.loadOrCreate(ctx, doctorID)
	if err != nil {
		return models.Visit{}, doctorID, err
	}
	if activeVisit(doc.Visits, patient.ID) >= 0 {
		return models.Visit{}, doctorID, apperr.Conflict("patient already has a pending consultation with this doctor")
	}

	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		name = patient.Name
	}
	visit := models.Visit{
		PatientID:       patient.ID,
		PatientName:     name,
		PatientContact:  req.PatientContact,
		Reason:          req.Reason,
		Type:            req.Type,
		Status:          models.VisitWaiting,
		BookedAt:        s.now().UTC(),
		PreferredDate:   preferredDate,
		PreferredTime:   req.PreferredTime,
		ScheduledTime:   scheduledTime,
		AdditionalNotes: req.AdditionalNotes,
	}
	doc.Visits = append(doc.Visits, visit)

	if _, err := s.store.Save(ctx, doc); err != nil {
		return models.Visit{}, doctorID, apperr.Persistence("save consultation", err)
	}
	return visit, doctorID, nil
}

// ListForDoctor returns the doctor's visits with derived per-status counts.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) (models.DoctorQueue, error) {
	if doctorID == "" {
		return models.DoctorQueue{}, apperr.Validation("doctor id is required")
	}
	doc, err := s.load(ctx, doctorID)
	if err != nil {
		return models.DoctorQueue{}, err
	}
	return models.DoctorQueue{DoctorID: doctorID, Patients: doc.Visits, Stats: statsOf(doc.Visits)}, nil
}

// VisitsByStatus returns the doctor's visits currently in status.
func (s *Service) VisitsByStatus(ctx context.Context, doctorID string, status models.VisitStatus) ([]models.Visit, error) {
	if doctorID == "" {
		return nil, apperr.Validation("doctor id is required")
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown status %q", status)
	}
	doc, err := s.load(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return visitsWithStatus(doc.Visits, status), nil
}

// UpdateStatus applies a state machine transition to the patient's visit.
func (s *Service) UpdateStatus(ctx context.Context, upd StatusUpdate) (models.Visit, error) {
	ctx, span := tracer.Start(ctx, "queue.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("queue.doctor_id", upd.DoctorID),
		attribute.String("queue.status", string(upd.Status)),
	)

	if err := s.validate.StructCtx(ctx, upd); err != nil {
		observability.IncQueueOperation("update_status", "invalid")
		return models.Visit{}, apperr.Validation("%s", validationMessage(err))
	}

	visit, err := s.mutate(ctx, upd.DoctorID, upd.PatientID, func(v *models.Visit, now time.Time) error {
		return applyTransition(v, upd.Status, upd.Notes, now)
	})
	observability.IncQueueOperation("update_status", resultOf(err))
	if err != nil {
		span.RecordError(err)
		return models.Visit{}, err
	}

	zap.S().Infow("consultation status updated",
		"doctor_id", upd.DoctorID,
		"patient_id", upd.PatientID,
		"status", visit.Status,
	)
	s.publish(ctx, "status_updated", upd.DoctorID, visit)
	return visit, nil
}

// Cancel cancels the patient's active visit. The visit stays in the document.
func (s *Service) Cancel(ctx context.Context, doctorID, patientID string) (models.Visit, error) {
	if doctorID == "" || patientID == "" {
		observability.IncQueueOperation("cancel", "invalid")
		return models.Visit{}, apperr.Validation("doctor id and patient id are required")
	}
	visit, err := s.mutate(ctx, doctorID, patientID, func(v *models.Visit, now time.Time) error {
		return applyTransition(v, models.VisitCancelled, "", now)
	})
	observability.IncQueueOperation("cancel", resultOf(err))
	if err != nil {
		return models.Visit{}, err
	}
	zap.S().Infow("consultation cancelled", "doctor_id", doctorID, "patient_id", patientID)
	s.publish(ctx, "cancelled", doctorID, visit)
	return visit, nil
}

// NextInQueue returns the earliest booked waiting visit, or nil when nobody is waiting.
func (s *Service) NextInQueue(ctx context.Context, doctorID string) (*models.Visit, error) {
	if doctorID == "" {
		return nil, apperr.Validation("doctor id is required")
	}
	doc, err := s.load(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	next, ok := nextWaiting(doc.Visits)
	if !ok {
		return nil, nil
	}
	return &next, nil
}

// HistoryForPatient groups the patient's visits by doctor, with each doctor's profile.
func (s *Service) HistoryForPatient(ctx context.Context, patientID string) ([]models.PatientHistory, error) {
	if patientID == "" {
		return nil, apperr.Validation("patient id is required")
	}
	docs, err := s.store.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Persistence("load patient history", err)
	}

	history := make([]models.PatientHistory, 0, len(docs))
	for _, doc := range docs {
		visits := visitsOfPatient(doc.Visits, patientID)
		if len(visits) == 0 {
			continue
		}
		profile, err := s.directory.GetDoctorProfile(ctx, doc.DoctorID)
		if err != nil {
			if !errors.Is(err, directory.ErrDoctorNotFound) {
				return nil, directoryError(err, "load doctor profile")
			}
			zap.S().Warnw("doctor profile missing for history", "doctor_id", doc.DoctorID)
			profile = models.DoctorProfile{ID: doc.DoctorID}
		}
		history = append(history, models.PatientHistory{Doctor: profile, Consultations: visits})
	}
	return history, nil
}

// StatsByStatus aggregates per-status counts for one doctor, or every doctor when doctorID is empty.
func (s *Service) StatsByStatus(ctx context.Context, doctorID string) (models.QueueStats, error) {
	docs, err := s.store.List(ctx, doctorID)
	if err != nil {
		return models.QueueStats{}, apperr.Persistence("list consultations", err)
	}
	var total models.QueueStats
	for _, doc := range docs {
		total = addStats(total, statsOf(doc.Visits))
	}
	return total, nil
}

func (s *Service) mutate(ctx context.Context, doctorID, patientID string, fn func(*models.Visit, time.Time) error) (models.Visit, error) {
	unlock := s.locks.Lock(doctorID)
	defer unlock()

	doc, err := s.store.Load(ctx, doctorID)
	if errors.Is(err, ErrConsultationNotFound) {
		return models.Visit{}, apperr.NotFound("no consultations for doctor %s", doctorID)
	}
	if err != nil {
		return models.Visit{}, apperr.Persistence("load consultation", err)
	}

	i := visitForUpdate(doc.Visits, patientID)
	if i < 0 {
		return models.Visit{}, apperr.NotFound("no consultation for patient %s", patientID)
	}
	if err := fn(&doc.Visits[i], s.now().UTC()); err != nil {
		return models.Visit{}, err
	}
	if _, err := s.store.Save(ctx, doc); err != nil {
		return models.Visit{}, apperr.Persistence("save consultation", err)
	}
	return doc.Visits[i], nil
}

// load returns an empty document when the doctor has none yet.
func (s *Service) load(ctx context.Context, doctorID string) (models.ConsultationDocument, error) {
	doc, err := s.store.Load(ctx, doctorID)
	if errors.Is(err, ErrConsultationNotFound) {
		return models.ConsultationDocument{DoctorID: doctorID, Visits: []models.Visit{}}, nil
	}
	if err != nil {
		return models.ConsultationDocument{}, apperr.Persistence("load consultation", err)
	}
	return doc, nil
}

func (s *Service) loadOrCreate(ctx context.Context, doctorID string) (models.ConsultationDocument, error) {
	doc, err := s.load(ctx, doctorID)
	if err != nil {
		return doc, err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now().UTC()
	}
	return doc, nil
}

func (s *Service) publish(ctx context.Context, name, doctorID string, visit models.Visit) {
	_ = observability.PublishEvent(ctx, "consultation."+name, observability.EventEnvelope{
		EventType: "consultation_events",
		EventName: name,
		Payload: map[string]interface{}{
			"doctor_id":  doctorID,
			"patient_id": visit.PatientID,
			"status":     visit.Status,
			"type":       visit.Type,
		},
	})
}

// bookingTimeLayouts are tried in order; date pickers send the bare date.
var bookingTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseBookingTime returns nil for an empty value.
func parseBookingTime(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range bookingTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation("%s must be a date (2006-01-02) or an RFC3339 timestamp", field)
}

func directoryError(err error, op string) error {
	if errors.Is(err, directory.ErrDoctorNotFound) || errors.Is(err, directory.ErrPatientNotFound) {
		return apperr.NotFound("%s", err.Error())
	}
	return apperr.Persistence(op, err)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrValidation):
		return "invalid"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	}
	return "failed"
}
