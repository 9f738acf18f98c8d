package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"healthlink/internal/authz"
	"healthlink/internal/models"
	"healthlink/internal/pdf"
	"healthlink/internal/repositories"
	"healthlink/internal/zoom"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNotCancellable      = errors.New("appointment cannot be cancelled")
)

type AppointmentService interface {
	Book(patientID int64, req *models.CreateAppointmentRequest) (*models.Appointment, error)
	GetByID(id int64) (*models.Appointment, error)
	ListForPatient(patientID int64, limit, offset int) ([]*models.Appointment, error)
	ListForDoctor(doctorID int64, limit, offset int) ([]*models.Appointment, error)
	Cancel(id, byUserID int64, byRole string) error
	Complete(id int64) error
	VerifyPayment(paymentID int64) (*models.Payment, error)
}

type appointmentService struct {
	repo         repositories.AppointmentRepository
	payments     repositories.PaymentRepository
	doctors      repositories.DoctorRepository
	users        repositories.UserRepository
	zoomClient   *zoom.Client
	receipts     pdf.Generator
	emailService EmailService
}

func NewAppointmentService(
	repo repositories.AppointmentRepository,
	payments repositories.PaymentRepository,
	doctors repositories.DoctorRepository,
	users repositories.UserRepository,
	zoomClient *zoom.Client,
	receipts pdf.Generator,
	emailService EmailService,
) AppointmentService {
	return &appointmentService{
		repo:         repo,
		payments:     payments,
		doctors:      doctors,
		users:        users,
		zoomClient:   zoomClient,
		receipts:     receipts,
		emailService: emailService,
	}
}

// Book schedules the visit, provisions a video call and opens a pending
// payment at the doctor's consultation fee. A Zoom outage does not block
// the booking.
func (s *appointmentService) Book(patientID int64, req *models.CreateAppointmentRequest) (*models.Appointment, error) {
	doctor, err := s.users.GetByID(req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil || doctor.Role != authz.RoleDoctor {
		return nil, fmt.Errorf("doctor %d not found", req.DoctorID)
	}
	profile, err := s.doctors.GetProfile(req.DoctorID)
	if err != nil {
		return nil, err
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	a := &models.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		FacilityID:      req.FacilityID,
		StartTime:       req.StartTime,
		DurationMinutes: duration,
		Status:          models.AppointmentInProgress,
		IsEmergency:     req.IsEmergency,
	}

	if s.zoomClient.Enabled() {
		topic := fmt.Sprintf("HealthLink consultation with %s", doctor.FullName)
		meeting, err := s.zoomClient.CreateMeeting(topic, req.StartTime, duration)
		if err != nil {
			log.Printf("[appointments][book] zoom provisioning failed for doctorID=%d: err=%v", req.DoctorID, err)
		} else if meeting != nil {
			a.ZoomMeetingID = meeting.ID
			a.ZoomJoinURL = meeting.JoinURL
			a.ZoomStartURL = meeting.StartURL
		}
	}

	if err := s.repo.Create(a); err != nil {
		return nil, err
	}

	fee := 0.0
	if profile != nil {
		fee = profile.ConsultationFee
	}
	p := &models.Payment{
		AppointmentID: a.ID,
		PatientID:     patientID,
		DoctorID:      req.DoctorID,
		Amount:        fee,
		Status:        models.PaymentPending,
	}
	if err := s.payments.Create(p); err != nil {
		return nil, err
	}

	if patient, err := s.users.GetByID(patientID); err == nil && patient != nil {
		if err := s.emailService.SendAppointmentConfirmation(
			patient.Email, doctor.FullName,
			a.StartTime.Format("02.01.2006 15:04"), a.ZoomJoinURL,
		); err != nil {
			log.Printf("[appointments][book] confirmation email failed for appointmentID=%d: err=%v", a.ID, err)
		}
	}

	return a, nil
}

func (s *appointmentService) GetByID(id int64) (*models.Appointment, error) {
	return s.repo.GetByID(id)
}

func (s *appointmentService) ListForPatient(patientID int64, limit, offset int) ([]*models.Appointment, error) {
	return s.repo.ListByPatient(patientID, limit, offset)
}

func (s *appointmentService) ListForDoctor(doctorID int64, limit, offset int) ([]*models.Appointment, error) {
	return s.repo.ListByDoctor(doctorID, limit, offset)
}

// Cancel releases the slot and settles the payment according to the
// doctor's refund policy.
func (s *appointmentService) Cancel(id, byUserID int64, byRole string) error {
	a, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAppointmentNotFound
	}
	if a.Status != models.AppointmentInProgress {
		return ErrNotCancellable
	}
	if byRole != authz.RoleAdmin && byUserID != a.PatientID && byUserID != a.DoctorID {
		return fmt.Errorf("user %d may not cancel appointment %d", byUserID, id)
	}

	if a.ZoomMeetingID != "" {
		if err := s.zoomClient.DeleteMeeting(a.ZoomMeetingID); err != nil {
			log.Printf("[appointments][cancel] zoom delete failed for appointmentID=%d: err=%v", id, err)
		}
	}

	if err := s.repo.UpdateStatus(id, models.AppointmentCancelled); err != nil {
		return err
	}

	s.settleRefund(a, byUserID)
	return nil
}

func (s *appointmentService) settleRefund(a *models.Appointment, cancelledBy int64) {
	p, err := s.payments.GetByAppointment(a.ID)
	if err != nil || p == nil {
		return
	}
	if p.Status != models.PaymentVerified && p.Status != models.PaymentCaptured {
		return
	}

	profile, err := s.doctors.GetProfile(a.DoctorID)
	if err != nil || profile == nil {
		return
	}

	refundable := true
	if cancelledBy == a.DoctorID && profile.AllowFullRefundOnDoctorCancellation {
		// doctor-initiated cancellation always refunds in full
	} else if profile.RefundCutoffMinutes > 0 {
		cutoff := a.StartTime.Add(-time.Duration(profile.RefundCutoffMinutes) * time.Minute)
		if time.Now().After(cutoff) {
			refundable = profile.RefundDeductionPercent < 100
		}
	}
	if !refundable {
		return
	}

	if err := s.payments.UpdateStatus(p.ID, models.PaymentRefunded); err != nil {
		log.Printf("[appointments][cancel] refund failed for paymentID=%d: err=%v", p.ID, err)
	}
}

func (s *appointmentService) Complete(id int64) error {
	a, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAppointmentNotFound
	}
	return s.repo.UpdateStatus(id, models.AppointmentCompleted)
}

// VerifyPayment confirms the payment, renders a receipt and notifies the
// patient. Receipt or mail failures do not undo the verification.
func (s *appointmentService) VerifyPayment(paymentID int64) (*models.Payment, error) {
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("payment %d not found", paymentID)
	}

	patient, err := s.users.GetByID(p.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.users.GetByID(p.DoctorID)
	if err != nil {
		return nil, err
	}

	patientName, doctorName := "", ""
	if patient != nil {
		patientName = patient.FullName
	}
	if doctor != nil {
		doctorName = doctor.FullName
	}

	receiptPath := ""
	if s.receipts != nil {
		path, err := s.receipts.GenerateReceipt(pdf.ReceiptData{
			PaymentID:     p.ID,
			AppointmentID: p.AppointmentID,
			PatientName:   patientName,
			DoctorName:    doctorName,
			Amount:        p.Amount,
			PaidAt:        time.Now(),
		})
		if err != nil {
			log.Printf("[payments][verify] receipt generation failed for paymentID=%d: err=%v", p.ID, err)
		} else {
			receiptPath = path
		}
	}

	if err := s.payments.MarkVerified(p.ID, receiptPath); err != nil {
		return nil, err
	}
	p.Status = models.PaymentVerified
	p.ReceiptPath = receiptPath

	if patient != nil {
		if err := s.emailService.SendPaymentVerified(patient.Email, p.Amount); err != nil {
			log.Printf("[payments][verify] notification email failed for paymentID=%d: err=%v", p.ID, err)
		}
	}
	return p, nil
}
