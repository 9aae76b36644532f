package models

import "time"

// VisitStatus is the triage state of a patient visit.
type VisitStatus string

const (
	VisitWaiting    VisitStatus = "waiting"
	VisitInProgress VisitStatus = "in-progress"
	VisitCompleted  VisitStatus = "completed"
	VisitCancelled  VisitStatus = "cancelled"
)

// Valid reports whether s is a known visit status.
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitWaiting, VisitInProgress, VisitCompleted, VisitCancelled:
		return true
	}
	return false
}

// Active reports whether the visit still occupies the patient's slot with the doctor.
func (s VisitStatus) Active() bool {
	return s == VisitWaiting || s == VisitInProgress
}

// ConsultationType categorises the reason for a visit.
type ConsultationType string

const (
	ConsultationGeneral   ConsultationType = "general"
	ConsultationFollowUp  ConsultationType = "follow-up"
	ConsultationEmergency ConsultationType = "emergency"
	ConsultationVideoCall ConsultationType = "video-call"
)

// Valid reports whether t is a known consultation type.
func (t ConsultationType) Valid() bool {
	switch t {
	case ConsultationGeneral, ConsultationFollowUp, ConsultationEmergency, ConsultationVideoCall:
		return true
	}
	return false
}

// Visit is one patient's booking in a doctor's queue.
type Visit struct {
	PatientID       string           `json:"patient_id"`
	PatientName     string           `json:"patient_name"`
	PatientContact  string           `json:"patient_contact"`
	Reason          string           `json:"reason"`
	Type            ConsultationType `json:"consultation_type"`
	Status          VisitStatus      `json:"status"`
	BookedAt        time.Time        `json:"booked_at"`
	PreferredDate   *time.Time       `json:"preferred_date,omitempty"`
	PreferredTime   string           `json:"preferred_time,omitempty"`
	ScheduledTime   *time.Time       `json:"scheduled_time,omitempty"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	AdditionalNotes string           `json:"additional_notes,omitempty"`
}

// ConsultationDocument holds every visit booked with one doctor. Visits are only appended.
type ConsultationDocument struct {
	DoctorID  string    `json:"doctor_id"`
	Visits    []Visit   `json:"patients"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueueStats are derived per-status counts.
type QueueStats struct {
	Waiting    int `json:"waiting"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// DoctorQueue is the read model returned for a doctor's queue.
type DoctorQueue struct {
	DoctorID string     `json:"doctor_id"`
	Patients []Visit    `json:"patients"`
	Stats    QueueStats `json:"stats"`
}

// PatientHistory pairs a doctor's public profile with the patient's visits to that doctor.
type PatientHistory struct {
	Doctor        DoctorProfile `json:"doctor"`
	Consultations []Visit       `json:"consultations"`
}
