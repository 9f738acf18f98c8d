package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthlink/internal/authz"
	"healthlink/internal/models"
	"healthlink/internal/pdf"
	"healthlink/internal/services"
)

type fakeAppointmentRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{items: map[int64]*models.Appointment{}}
}

func (r *fakeAppointmentRepo) Create(a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now()
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) GetByID(id int64) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) ListByPatient(patientID int64, limit, offset int) ([]*models.Appointment, error) {
	return r.list(func(a *models.Appointment) bool { return a.PatientID == patientID })
}

func (r *fakeAppointmentRepo) ListByDoctor(doctorID int64, limit, offset int) ([]*models.Appointment, error) {
	return r.list(func(a *models.Appointment) bool { return a.DoctorID == doctorID })
}

func (r *fakeAppointmentRepo) list(match func(*models.Appointment) bool) ([]*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Appointment
	for _, a := range r.items {
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.items[id]; ok {
		a.Status = status
	}
	return nil
}

func (r *fakeAppointmentRepo) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

func (r *fakeAppointmentRepo) CountByStatus(status string) (int, error) {
	all, _ := r.list(func(a *models.Appointment) bool { return a.Status == status })
	return len(all), nil
}

func (r *fakeAppointmentRepo) CountByDoctor(doctorID int64) (int, error) {
	all, _ := r.ListByDoctor(doctorID, 0, 0)
	return len(all), nil
}

type fakePaymentRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{items: map[int64]*models.Payment{}}
}

func (r *fakePaymentRepo) Create(p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByID(id int64) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) GetByAppointment(appointmentID int64) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.AppointmentID == appointmentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) MarkVerified(id int64, receiptPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		now := time.Now()
		p.Status = models.PaymentVerified
		p.ReceiptPath = receiptPath
		p.VerifiedAt = &now
	}
	return nil
}

func (r *fakePaymentRepo) UpdateStatus(id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		p.Status = status
	}
	return nil
}

func (r *fakePaymentRepo) SumByDoctorAndStatus(doctorID int64, status string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, p := range r.items {
		if p.DoctorID == doctorID && p.Status == status {
			sum += p.Amount
		}
	}
	return sum, nil
}

type fakeDoctorRepo struct {
	mu       sync.Mutex
	profiles map[int64]*models.DoctorProfile
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{profiles: map[int64]*models.DoctorProfile{}}
}

func (r *fakeDoctorRepo) CreateProfile(p *models.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeDoctorRepo) GetProfile(userID int64) (*models.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeDoctorRepo) UpdateProfile(p *models.DoctorProfile) error {
	return r.CreateProfile(p)
}

func (r *fakeDoctorRepo) Search(specialty, query string, limit, offset int) ([]*models.User, error) {
	return nil, nil
}

type fakeReceipts struct {
	mu    sync.Mutex
	calls []pdf.ReceiptData
	fail  bool
}

func (f *fakeReceipts) GenerateReceipt(data pdf.ReceiptData) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", assert.AnError
	}
	f.calls = append(f.calls, data)
	return "/receipt_payment_1.pdf", nil
}

type apptFixture struct {
	svc      services.AppointmentService
	appts    *fakeAppointmentRepo
	payments *fakePaymentRepo
	doctors  *fakeDoctorRepo
	users    *fakeUserRepo
	mail     *fakeEmail
	receipts *fakeReceipts
	patient  *models.User
	doctor   *models.User
}

func newApptFixture(t *testing.T) *apptFixture {
	t.Helper()
	f := &apptFixture{
		appts:    newFakeAppointmentRepo(),
		payments: newFakePaymentRepo(),
		doctors:  newFakeDoctorRepo(),
		users:    newFakeUserRepo(),
		mail:     &fakeEmail{},
		receipts: &fakeReceipts{},
	}
	f.svc = services.NewAppointmentService(
		f.appts, f.payments, f.doctors, f.users, nil, f.receipts, f.mail,
	)
	f.patient = seedUser(t, f.users, authz.RolePatient, "pat@example.com")
	f.patient.FullName = "Pat"
	require.NoError(t, f.users.Update(f.patient))
	f.doctor = seedUser(t, f.users, authz.RoleDoctor, "doc@example.com")
	f.doctor.FullName = "Doc"
	require.NoError(t, f.users.Update(f.doctor))
	require.NoError(t, f.doctors.CreateProfile(&models.DoctorProfile{
		UserID:              f.doctor.ID,
		Specialty:           "cardiology",
		ConsultationFee:     150,
		RefundCutoffMinutes: 60,
	}))
	return f
}

func TestBookAppointment(t *testing.T) {
	f := newApptFixture(t)

	a, err := f.svc.Book(f.patient.ID, &models.CreateAppointmentRequest{
		DoctorID:  f.doctor.ID,
		StartTime: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentInProgress, a.Status)
	assert.Equal(t, 30, a.DurationMinutes)

	p, err := f.payments.GetByAppointment(a.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, 150.0, p.Amount)

	assert.True(t, f.mail.sentTo("appointment", "pat@example.com"))
}

func TestBookUnknownDoctor(t *testing.T) {
	f := newApptFixture(t)

	_, err := f.svc.Book(f.patient.ID, &models.CreateAppointmentRequest{
		DoctorID:  9999,
		StartTime: time.Now(),
	})
	assert.Error(t, err)
}

func TestCancelAppointment(t *testing.T) {
	f := newApptFixture(t)

	book := func(t *testing.T, start time.Time) *models.Appointment {
		a, err := f.svc.Book(f.patient.ID, &models.CreateAppointmentRequest{
			DoctorID:  f.doctor.ID,
			StartTime: start,
		})
		require.NoError(t, err)
		return a
	}

	t.Run("stranger may not cancel", func(t *testing.T) {
		a := book(t, time.Now().Add(48*time.Hour))
		err := f.svc.Cancel(a.ID, 424242, authz.RolePatient)
		assert.Error(t, err)
	})

	t.Run("patient cancels ahead of cutoff, verified payment refunded", func(t *testing.T) {
		a := book(t, time.Now().Add(48*time.Hour))
		p, _ := f.payments.GetByAppointment(a.ID)
		require.NoError(t, f.payments.MarkVerified(p.ID, ""))

		require.NoError(t, f.svc.Cancel(a.ID, f.patient.ID, authz.RolePatient))

		got, _ := f.appts.GetByID(a.ID)
		assert.Equal(t, models.AppointmentCancelled, got.Status)
		p, _ = f.payments.GetByID(p.ID)
		assert.Equal(t, models.PaymentRefunded, p.Status)
	})

	t.Run("pending payment untouched", func(t *testing.T) {
		a := book(t, time.Now().Add(48*time.Hour))
		require.NoError(t, f.svc.Cancel(a.ID, f.patient.ID, authz.RolePatient))

		p, _ := f.payments.GetByAppointment(a.ID)
		assert.Equal(t, models.PaymentPending, p.Status)
	})

	t.Run("cancelled twice rejected", func(t *testing.T) {
		a := book(t, time.Now().Add(48*time.Hour))
		require.NoError(t, f.svc.Cancel(a.ID, f.patient.ID, authz.RolePatient))
		err := f.svc.Cancel(a.ID, f.patient.ID, authz.RolePatient)
		assert.ErrorIs(t, err, services.ErrNotCancellable)
	})

	t.Run("missing appointment", func(t *testing.T) {
		err := f.svc.Cancel(99999, f.patient.ID, authz.RolePatient)
		assert.ErrorIs(t, err, services.ErrAppointmentNotFound)
	})
}

func TestVerifyPayment(t *testing.T) {
	f := newApptFixture(t)

	a, err := f.svc.Book(f.patient.ID, &models.CreateAppointmentRequest{
		DoctorID:  f.doctor.ID,
		StartTime: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	p, _ := f.payments.GetByAppointment(a.ID)

	verified, err := f.svc.VerifyPayment(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerified, verified.Status)
	assert.Equal(t, "/receipt_payment_1.pdf", verified.ReceiptPath)

	require.Len(t, f.receipts.calls, 1)
	assert.Equal(t, p.ID, f.receipts.calls[0].PaymentID)
	assert.Equal(t, "Pat", f.receipts.calls[0].PatientName)

	assert.True(t, f.mail.sentTo("payment", "pat@example.com"))
}

func TestVerifyPaymentSurvivesReceiptFailure(t *testing.T) {
	f := newApptFixture(t)
	f.receipts.fail = true

	a, err := f.svc.Book(f.patient.ID, &models.CreateAppointmentRequest{
		DoctorID:  f.doctor.ID,
		StartTime: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	p, _ := f.payments.GetByAppointment(a.ID)

	verified, err := f.svc.VerifyPayment(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerified, verified.Status)
	assert.Empty(t, verified.ReceiptPath)
}
