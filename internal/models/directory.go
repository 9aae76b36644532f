package models

// DoctorProfile holds the public fields of a doctor record.
type DoctorProfile struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization"`
	Experience      int     `json:"experience"`
	Rating          float64 `json:"rating"`
	Contact         string  `json:"contact"`
	Email           string  `json:"email"`
	Location        string  `json:"location"`
	ConsultationFee string  `json:"consultation_fee"`
	Availability    string  `json:"availability"`
}

// Patient is the subset of a user record needed to book a visit.
type Patient struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}
