package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-service/internal/models"
	"clinic-service/internal/queue"
	"clinic-service/internal/telemetry"
)

// ConsultationService is the consultation queue as seen by HTTP handlers.
type ConsultationService interface {
	Book(ctx context.Context, req queue.BookingRequest) (models.Visit, error)
	ListForDoctor(ctx context.Context, doctorID string) (models.DoctorQueue, error)
	VisitsByStatus(ctx context.Context, doctorID string, status models.VisitStatus) ([]models.Visit, error)
	UpdateStatus(ctx context.Context, upd queue.StatusUpdate) (models.Visit, error)
	Cancel(ctx context.Context, doctorID, patientID string) (models.Visit, error)
	NextInQueue(ctx context.Context, doctorID string) (*models.Visit, error)
	HistoryForPatient(ctx context.Context, patientID string) ([]models.PatientHistory, error)
	StatsByStatus(ctx context.Context, doctorID string) (models.QueueStats, error)
}

// ConsultationHandler manages the consultation queue endpoints.
type ConsultationHandler struct {
	queue ConsultationService
	audit *telemetry.AuditEmitter
}

// NewConsultationHandler builds a ConsultationHandler. audit may be nil.
func NewConsultationHandler(queue ConsultationService, audit *telemetry.AuditEmitter) *ConsultationHandler {
	return &ConsultationHandler{queue: queue, audit: audit}
}

// Book adds the patient to the doctor's queue.
func (h *ConsultationHandler) Book(c *gin.Context) {
	var req queue.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visit, err := h.queue.Book(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.emitAudit(c, "consultation.booked", "consultation booked", map[string]string{
		"doctor_license_number": req.DoctorLicense,
		"patient_id":            visit.PatientID,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "consultation booked", "consultation": visit})
}

// ListForDoctor returns the doctor's queue with per-status counts.
func (h *ConsultationHandler) ListForDoctor(c *gin.Context) {
	q, err := h.queue.ListForDoctor(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ListByStatus returns the doctor's visits in one status.
func (h *ConsultationHandler) ListByStatus(c *gin.Context) {
	visits, err := h.queue.VisitsByStatus(c.Request.Context(), c.Param("doctorId"), models.VisitStatus(c.Param("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultations": visits})
}

// UpdateStatus moves a patient's visit through the triage state machine.
func (h *ConsultationHandler) UpdateStatus(c *gin.Context) {
	var req queue.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visit, err := h.queue.UpdateStatus(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.emitAudit(c, "consultation.status_updated", "consultation status updated", map[string]string{
		"doctor_id":  req.DoctorID,
		"patient_id": req.PatientID,
		"status":     string(visit.Status),
	})
	c.JSON(http.StatusOK, gin.H{"consultation": visit})
}

// Cancel cancels the patient's active visit with the doctor.
func (h *ConsultationHandler) Cancel(c *gin.Context) {
	doctorID, patientID := c.Param("doctorId"), c.Param("patientId")
	visit, err := h.queue.Cancel(c.Request.Context(), doctorID, patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.emitAudit(c, "consultation.cancelled", "consultation cancelled", map[string]string{
		"doctor_id":  doctorID,
		"patient_id": patientID,
	})
	c.JSON(http.StatusOK, gin.H{"consultation": visit})
}

// Next returns the next waiting patient, or null when the queue is empty.
func (h *ConsultationHandler) Next(c *gin.Context) {
	next, err := h.queue.NextInQueue(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next": next})
}

// PatientHistory returns every visit of the patient grouped by doctor.
func (h *ConsultationHandler) PatientHistory(c *gin.Context) {
	history, err := h.queue.HistoryForPatient(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Stats aggregates per-status counts, for one doctor when ?doctorId= is given.
func (h *ConsultationHandler) Stats(c *gin.Context) {
	stats, err := h.queue.StatsByStatus(c.Request.Context(), c.Query("doctorId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ConsultationHandler) emitAudit(c *gin.Context, action, text string, fields map[string]string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), telemetry.AuditRecord{
		Action:    action,
		Text:      text,
		RequestID: requestIDFromContext(c),
		ActorID:   actorIDFromContext(c),
		Fields:    fields,
	})
}
