package models

// AdminDashboard aggregates platform-wide counters for the admin view.
type AdminDashboard struct {
	TotalPatients         int `json:"total_patients"`
	TotalDoctors          int `json:"total_doctors"`
	TotalAdmins           int `json:"total_admins"`
	TotalAppointments     int `json:"total_appointments"`
	TotalClinics          int `json:"total_clinics"`
	TotalMedicalHistories int `json:"total_medical_histories"`
	PendingAppointments   int `json:"pending_appointments"`
	ConfirmedAppointments int `json:"confirmed_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
}

type DoctorDashboard struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalAppointments int     `json:"total_appointments"`
	AverageRating     float64 `json:"average_rating"`
	TotalReviews      int     `json:"total_reviews"`
}

type EmergencyPatient struct {
	PatientID         int64  `json:"patient_id"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
	PatientName       string `json:"patient_name"`
	PhoneNumber       string `json:"phone_number"`
}
