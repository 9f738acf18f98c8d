package services

import (
	"log"

	"healthlink/internal/authz"
	"healthlink/internal/models"
	"healthlink/internal/repositories"
)

type AnalyticsService interface {
	GetAdminDashboard() (*models.AdminDashboard, error)
}

type analyticsService struct {
	users        repositories.UserRepository
	appointments repositories.AppointmentRepository
	facilities   repositories.FacilityRepository
	records      repositories.MedicalRecordRepository
}

func NewAnalyticsService(
	users repositories.UserRepository,
	appointments repositories.AppointmentRepository,
	facilities repositories.FacilityRepository,
	records repositories.MedicalRecordRepository,
) AnalyticsService {
	return &analyticsService{
		users:        users,
		appointments: appointments,
		facilities:   facilities,
		records:      records,
	}
}

// GetAdminDashboard collects platform counters. Counter failures are
// logged and reported as zero so the dashboard still renders.
func (s *analyticsService) GetAdminDashboard() (*models.AdminDashboard, error) {
	d := &models.AdminDashboard{}

	d.TotalPatients = s.count(func() (int, error) { return s.users.CountByRole(authz.RolePatient) }, "patients")
	d.TotalDoctors = s.count(func() (int, error) { return s.users.CountByRole(authz.RoleDoctor) }, "doctors")
	d.TotalAdmins = s.count(func() (int, error) { return s.users.CountByRole(authz.RoleAdmin) }, "admins")
	d.TotalAppointments = s.count(s.appointments.Count, "appointments")
	d.TotalClinics = s.count(s.facilities.Count, "clinics")
	d.TotalMedicalHistories = s.count(s.records.Count, "medical histories")
	d.PendingAppointments = s.count(func() (int, error) {
		return s.appointments.CountByStatus(models.AppointmentInProgress)
	}, "pending appointments")
	d.CompletedAppointments = s.count(func() (int, error) {
		return s.appointments.CountByStatus(models.AppointmentCompleted)
	}, "completed appointments")
	d.ConfirmedAppointments = d.PendingAppointments

	return d, nil
}

func (s *analyticsService) count(fn func() (int, error), what string) int {
	n, err := fn()
	if err != nil {
		log.Printf("[analytics] count %s failed: %v", what, err)
		return 0
	}
	return n
}
