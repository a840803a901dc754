package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentalhub/pkg/logger/loggertest"
	"rentalhub/pkg/mailer"
	"rentalhub/pkg/models"
	"rentalhub/storage/memory"
)

type sentMail struct {
	To       string
	Template mailer.Template
	Data     map[string]any
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failAll error
	failFor map[string]error
}

func (m *fakeMailer) Send(_ context.Context, to string, tmpl mailer.Template, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentMail{To: to, Template: tmpl, Data: data})
	return nil
}

func (m *fakeMailer) count(to string, tmpl mailer.Template) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.To == to && s.Template == tmpl {
			n++
		}
	}
	return n
}

func (m *fakeMailer) lastCode(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to {
			if code, ok := m.sent[i].Data["code"].(string); ok {
				return code
			}
		}
	}
	t.Fatalf("no code mailed to %s", to)
	return ""
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Compare(hash, plain string) bool  { return hash == "hashed:"+plain }

type fakeTokens struct{}

func (fakeTokens) Generate(caller models.Caller) (string, error) {
	return "token-" + caller.IdentityID + "-" + string(caller.Role), nil
}

type denyThrottle struct{ err error }

func (d denyThrottle) Allow(context.Context, string, string) error { return d.err }

type testEnv struct {
	store *memory.Store
	mail  *fakeMailer
	svc   IServiceManager
	now   time.Time
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	env := &testEnv{
		store: memory.New(),
		mail:  &fakeMailer{failFor: map[string]error{}},
		now:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	deps := Deps{
		Mailer:  env.mail,
		Hasher:  fakeHasher{},
		Tokens:  fakeTokens{},
		Clock:   func() time.Time { return env.now },
		OTPTTL:  10 * time.Minute,
		BaseURL: "https://rentalhub.test",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.svc = New(env.store, deps, loggertest.New(t))
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// register creates an identity through the public flow and verifies its email.
func (e *testEnv) register(t *testing.T, email string, role models.Role) models.Caller {
	t.Helper()
	ctx := context.Background()
	identity, err := e.svc.Account().Register(ctx, RegisterInput{
		Email:    email,
		Password: "password123",
		FullName: "Test " + string(role),
		Role:     role,
	})
	require.NoError(t, err)
	require.NoError(t, e.svc.Account().VerifyEmail(ctx, email, e.mail.lastCode(t, email)))
	return models.Caller{IdentityID: identity.ID, Role: role}
}

func (e *testEnv) admin(t *testing.T, email string) models.Caller {
	t.Helper()
	admin, err := e.svc.Account().SeedAdmin(context.Background(), email, "adminpass1", "Admin")
	require.NoError(t, err)
	return models.Caller{IdentityID: admin.ID, Role: models.RoleAdmin}
}

// verifiedRenter registers a renter, submits a profile and has admin approve it.
func (e *testEnv) verifiedRenter(t *testing.T, email string, admin models.Caller) models.Caller {
	t.Helper()
	ctx := context.Background()
	renter := e.register(t, email, models.RoleRenter)
	_, err := e.svc.Profile().Create(ctx, renter, renter.IdentityID, models.ProfileInput{
		Phone:           "+998901234567",
		LicenseNumber:   "AB1234567",
		LicenseImageURL: "https://img.test/license.png",
	})
	require.NoError(t, err)
	_, err = e.svc.Profile().Review(ctx, admin, renter.IdentityID, true)
	require.NoError(t, err)
	return renter
}

func (e *testEnv) listing(t *testing.T, owner models.Caller) *models.Listing {
	t.Helper()
	l, err := e.svc.Listing().Create(context.Background(), owner, models.ListingInput{
		Make:      "Toyota",
		Model:     "Corolla",
		Year:      2021,
		DailyRate: 45,
		Location:  "Tashkent",
	})
	require.NoError(t, err)
	return l
}

func (e *testEnv) approvedListing(t *testing.T, owner, admin models.Caller) *models.Listing {
	t.Helper()
	l := e.listing(t, owner)
	approved, err := e.svc.Listing().Review(context.Background(), admin, l.ID, true)
	require.NoError(t, err)
	return approved
}

func (e *testEnv) identity(t *testing.T, id string) *models.Identity {
	t.Helper()
	identity, err := e.store.Identity().GetByID(context.Background(), id)
	require.NoError(t, err)
	return identity
}

func (e *testEnv) notifications(t *testing.T, recipientID string) []*models.Notification {
	t.Helper()
	items, err := e.store.Notification().ListByRecipient(context.Background(), recipientID, false, 100, 0)
	require.NoError(t, err)
	return items
}
