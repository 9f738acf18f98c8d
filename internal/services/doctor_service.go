package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"healthlink/internal/authz"
	"healthlink/internal/models"
	"healthlink/internal/repositories"
	"healthlink/internal/utils"
)

type DoctorService interface {
	GetProfile(userID int64) (*models.DoctorProfile, error)
	CreateProfile(profile *models.DoctorProfile) error
	UpdateProfile(profile *models.DoctorProfile) error
	Search(specialty, query string, limit, offset int) ([]*models.User, error)
	GetDashboard(doctorID int64) (*models.DoctorDashboard, error)
	CreateEmergencyPatient(doctorID int64, patientName, phoneNumber string) (*models.EmergencyPatient, *models.Appointment, error)
}

type doctorService struct {
	doctors      repositories.DoctorRepository
	users        repositories.UserRepository
	appointments AppointmentService
	appts        repositories.AppointmentRepository
	payments     repositories.PaymentRepository
	authService  AuthService
	emailService EmailService
}

func NewDoctorService(
	doctors repositories.DoctorRepository,
	users repositories.UserRepository,
	appointments AppointmentService,
	appts repositories.AppointmentRepository,
	payments repositories.PaymentRepository,
	authService AuthService,
	emailService EmailService,
) DoctorService {
	return &doctorService{
		doctors:      doctors,
		users:        users,
		appointments: appointments,
		appts:        appts,
		payments:     payments,
		authService:  authService,
		emailService: emailService,
	}
}

func (s *doctorService) GetProfile(userID int64) (*models.DoctorProfile, error) {
	return s.doctors.GetProfile(userID)
}

func (s *doctorService) CreateProfile(profile *models.DoctorProfile) error {
	return s.doctors.CreateProfile(profile)
}

func (s *doctorService) UpdateProfile(profile *models.DoctorProfile) error {
	return s.doctors.UpdateProfile(profile)
}

func (s *doctorService) Search(specialty, query string, limit, offset int) ([]*models.User, error) {
	return s.doctors.Search(specialty, query, limit, offset)
}

func (s *doctorService) GetDashboard(doctorID int64) (*models.DoctorDashboard, error) {
	d := &models.DoctorDashboard{}

	revenue, err := s.payments.SumByDoctorAndStatus(doctorID, models.PaymentVerified)
	if err != nil {
		return nil, err
	}
	captured, err := s.payments.SumByDoctorAndStatus(doctorID, models.PaymentCaptured)
	if err != nil {
		return nil, err
	}
	d.TotalRevenue = revenue + captured

	if d.TotalAppointments, err = s.appts.CountByDoctor(doctorID); err != nil {
		return nil, err
	}

	profile, err := s.doctors.GetProfile(doctorID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		d.AverageRating = profile.AverageRating
		d.TotalReviews = profile.TotalReviews
	}
	return d, nil
}

// CreateEmergencyPatient provisions a walk-in account plus an immediate
// emergency appointment with the requesting doctor. The generated
// address lives under a reserved subdomain so it can never collide with
// a real patient.
func (s *doctorService) CreateEmergencyPatient(doctorID int64, patientName, phoneNumber string) (*models.EmergencyPatient, *models.Appointment, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return nil, nil, fmt.Errorf("emergency patient: %w", err)
	}
	email := fmt.Sprintf("emergency-%s@emergency.healthlink.local", hex.EncodeToString(suffix))

	tempPassword, err := utils.TempPassword(12)
	if err != nil {
		return nil, nil, err
	}
	hash, err := s.authService.HashPassword(tempPassword)
	if err != nil {
		return nil, nil, err
	}

	u := &models.User{
		Role:            authz.RolePatient,
		Email:           email,
		PasswordHash:    hash,
		FullName:        patientName,
		Phone:           phoneNumber,
		ApprovalStatus:  authz.ApprovalApproved,
		IsActive:        true,
		IsEmailVerified: true,
	}
	if err := s.users.Create(u); err != nil {
		return nil, nil, err
	}

	a, err := s.appointments.Book(u.ID, &models.CreateAppointmentRequest{
		DoctorID:    doctorID,
		StartTime:   time.Now(),
		IsEmergency: true,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.emailService.SendEmergencyWelcome(email, tempPassword); err != nil {
		log.Printf("[doctors][emergency] welcome email failed for userID=%d: err=%v", u.ID, err)
	}

	return &models.EmergencyPatient{
		PatientID:         u.ID,
		Email:             email,
		TemporaryPassword: tempPassword,
		PatientName:       patientName,
		PhoneNumber:       phoneNumber,
	}, a, nil
}
