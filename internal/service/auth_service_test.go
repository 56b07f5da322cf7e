package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/sfhouse/intake/internal/domain"
	"github.com/sfhouse/intake/internal/service"
	"github.com/sfhouse/intake/pkg/config"
	"github.com/sfhouse/intake/pkg/events"
)

// ---------- Mocks ----------

type mockStaffRepo struct {
	byEmail map[string]*domain.Staff
	byID    map[int64]*domain.Staff
	nextID  int64
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{
		byEmail: make(map[string]*domain.Staff),
		byID:    make(map[int64]*domain.Staff),
	}
}

func (m *mockStaffRepo) Create(_ context.Context, s *domain.Staff) (*domain.Staff, error) {
	m.nextID++
	out := *s
	out.ID = m.nextID
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt
	m.byEmail[out.Email] = &out
	m.byID[out.ID] = &out
	return &out, nil
}

func (m *mockStaffRepo) FindByEmail(_ context.Context, email string) (*domain.Staff, error) {
	s, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (m *mockStaffRepo) FindByID(_ context.Context, id int64) (*domain.Staff, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (m *mockStaffRepo) MarkVerified(_ context.Context, id int64) error {
	s, ok := m.byID[id]
	if !ok {
		return errors.New("no such staff")
	}
	s.IsVerified = true
	return nil
}

type mockVerifyRepo struct {
	tokens map[string]int64
}

func newMockVerifyRepo() *mockVerifyRepo {
	return &mockVerifyRepo{tokens: make(map[string]int64)}
}

func (m *mockVerifyRepo) CreateEmailVerification(_ context.Context, token string, staffID int64, _ time.Time) error {
	m.tokens[token] = staffID
	return nil
}

func (m *mockVerifyRepo) ConsumeEmailVerification(_ context.Context, token string) (int64, error) {
	id, ok := m.tokens[token]
	if !ok {
		return 0, nil
	}
	delete(m.tokens, token)
	return id, nil
}

type mockMailer struct {
	lastTo    string
	lastToken string
	sendErr   error
}

func (m *mockMailer) SendVerificationEmail(toEmail, toName, verifyURL, token string) error {
	m.lastTo = toEmail
	m.lastToken = token
	return m.sendErr
}

type publishedEvent struct {
	subject string
	payload interface{}
}

type mockPublisher struct {
	published []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.published = append(m.published, publishedEvent{subject: subject, payload: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	out := make([]string, 0, len(m.published))
	for _, e := range m.published {
		out = append(out, e.subject)
	}
	return out
}

// ---------- Tests ----------

type authFixture struct {
	svc       *service.AuthService
	staffRepo *mockStaffRepo
	verify    *mockVerifyRepo
	mail      *mockMailer
	bus       *mockPublisher
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		staffRepo: newMockStaffRepo(),
		verify:    newMockVerifyRepo(),
		mail:      &mockMailer{},
		bus:       &mockPublisher{},
	}
	f.svc = service.NewAuthService(f.staffRepo, f.verify, f.mail, f.bus, config.Load())
	return f
}

func TestRegister(t *testing.T) {
	f := newAuthFixture()
	svc, staffRepo, verifyRepo, mail := f.svc, f.staffRepo, f.verify, f.mail
	ctx := context.Background()

	info, err := svc.Register(ctx, &domain.CreateStaffRequest{
		Email:    "Desk@Example.org",
		Password: "correct horse",
		Name:     "Desk Staff",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if info.Email != "desk@example.org" {
		t.Errorf("expected normalized email, got %q", info.Email)
	}
	if info.Role != domain.RoleStaff {
		t.Errorf("expected default staff role, got %q", info.Role)
	}
	if info.IsVerified {
		t.Error("new accounts must start unverified")
	}
	if mail.lastTo != "desk@example.org" || mail.lastToken == "" {
		t.Errorf("expected verification email, got to=%q token=%q", mail.lastTo, mail.lastToken)
	}
	if len(verifyRepo.tokens) != 1 {
		t.Errorf("expected 1 stored token, got %d", len(verifyRepo.tokens))
	}

	stored := staffRepo.byEmail["desk@example.org"]
	if stored.PasswordHash == "correct horse" {
		t.Error("password must not be stored in the clear")
	}
	if match, _ := argon2id.ComparePasswordAndHash("correct horse", stored.PasswordHash); !match {
		t.Error("stored hash must verify the original password")
	}

	t.Run("registration publishes events", func(t *testing.T) {
		subjects := f.bus.subjects()
		if len(subjects) != 2 || subjects[0] != events.StaffRegistered || subjects[1] != events.NotifySend {
			t.Fatalf("expected [staff.registered notify.send], got %v", subjects)
		}

		notify, ok := f.bus.published[1].payload.(events.NotificationEvent)
		if !ok {
			t.Fatalf("expected NotificationEvent payload, got %T", f.bus.published[1].payload)
		}
		if notify.Recipient != "desk@example.org" || notify.Template != "staff_verification" {
			t.Errorf("unexpected notification: %+v", notify)
		}
		if notify.Data["verify_url"] == "" || notify.Data["verify_url"] == nil {
			t.Error("expected verify_url in the notification data")
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, &domain.CreateStaffRequest{
			Email:    "desk@example.org",
			Password: "another pass",
			Name:     "Other",
		})
		if !errors.Is(err, service.ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("short password is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, &domain.CreateStaffRequest{
			Email:    "other@example.org",
			Password: "short",
			Name:     "Other",
		})
		if err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestLoginAndVerify(t *testing.T) {
	f := newAuthFixture()
	svc, mail := f.svc, f.mail
	ctx := context.Background()

	if _, err := svc.Register(ctx, &domain.CreateStaffRequest{
		Email:    "desk@example.org",
		Password: "correct horse",
		Name:     "Desk Staff",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("login before verification is refused", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "desk@example.org", Password: "correct horse"})
		if !errors.Is(err, service.ErrNotVerified) {
			t.Errorf("expected ErrNotVerified, got %v", err)
		}
	})

	if err := svc.VerifyEmail(ctx, mail.lastToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	t.Run("token is single use", func(t *testing.T) {
		err := svc.VerifyEmail(ctx, mail.lastToken)
		if !errors.Is(err, service.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken on reuse, got %v", err)
		}
	})

	t.Run("login after verification issues tokens", func(t *testing.T) {
		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: "desk@example.org", Password: "correct horse"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Error("expected both tokens")
		}
		if !resp.Staff.IsVerified {
			t.Error("expected verified staff info")
		}

		t.Run("refresh rotates the access token", func(t *testing.T) {
			refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
			if err != nil {
				t.Fatalf("RefreshToken failed: %v", err)
			}
			if refreshed.AccessToken == "" {
				t.Error("expected a new access token")
			}
		})

		t.Run("access token is not a refresh token", func(t *testing.T) {
			if _, err := svc.RefreshToken(ctx, resp.AccessToken); !errors.Is(err, service.ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	})

	t.Run("wrong password is refused", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "desk@example.org", Password: "wrong"})
		if !errors.Is(err, service.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email is refused", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "ghost@example.org", Password: "whatever"})
		if !errors.Is(err, service.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
