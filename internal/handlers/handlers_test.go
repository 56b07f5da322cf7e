package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sfhouse/intake/internal/domain"
	"github.com/sfhouse/intake/internal/handlers"
	"github.com/sfhouse/intake/internal/repository"
	"github.com/sfhouse/intake/internal/service"
	"github.com/sfhouse/intake/pkg/auth"
	"github.com/sfhouse/intake/pkg/config"
	mw "github.com/sfhouse/intake/pkg/middleware"
)

// ---------- Mocks ----------

type mockClientRepo struct {
	clients map[string]*domain.Client
	nextID  int
	getErr  error
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: make(map[string]*domain.Client)}
}

func (m *mockClientRepo) Create(_ context.Context, rec domain.ClientRecord) (*domain.Client, error) {
	m.nextID++
	c := rec.Defaulted(time.Now())
	c.ID = "client-" + strconv.Itoa(m.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.clients[c.ID] = &c
	out := c
	return &out, nil
}

func (m *mockClientRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (m *mockClientRepo) Put(_ context.Context, id string, c domain.Client) (*domain.Client, error) {
	if _, ok := m.clients[id]; !ok {
		return nil, nil
	}
	c.ID = id
	c.Normalize()
	c.UpdatedAt = time.Now()
	m.clients[id] = &c
	out := c
	return &out, nil
}

func (m *mockClientRepo) Search(_ context.Context, filter domain.SearchFilter, limit int) ([]domain.Client, error) {
	var out []domain.Client
	for _, c := range m.clients {
		if filter.FirstNameLower != "" && !strings.HasPrefix(c.FirstNameLower, filter.FirstNameLower) {
			continue
		}
		if filter.LastNameLower != "" && !strings.HasPrefix(c.LastNameLower, filter.LastNameLower) {
			continue
		}
		if filter.FilterByBirthday && c.Birthday != filter.Birthday {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockClientRepo) SetCheckedIn(_ context.Context, id string, checkedIn bool) (*domain.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	c.IsCheckedIn = checkedIn
	out := *c
	return &out, nil
}

func (m *mockClientRepo) SetBanned(_ context.Context, id string, banned bool) (*domain.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	c.IsBanned = banned
	out := *c
	return &out, nil
}

type mockVisitRepo struct {
	visits map[string]*domain.Visit
	nextID int
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[string]*domain.Visit)}
}

func (m *mockVisitRepo) Create(_ context.Context, clientID string, rec domain.VisitRecord) (*domain.Visit, error) {
	m.nextID++
	v := rec.Defaulted(time.Now())
	v.ID = "visit-" + strconv.Itoa(m.nextID)
	v.ClientID = clientID
	m.visits[v.ID] = &v
	out := v
	return &out, nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, clientID, visitID string) (*domain.Visit, error) {
	v, ok := m.visits[visitID]
	if !ok || v.ClientID != clientID {
		return nil, nil
	}
	out := *v
	return &out, nil
}

func (m *mockVisitRepo) ListByClient(_ context.Context, clientID string, limit int) ([]domain.Visit, error) {
	var out []domain.Visit
	for _, v := range m.visits {
		if v.ClientID == clientID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

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
	if s, ok := m.byID[id]; ok {
		s.IsVerified = true
	}
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

type noopMailer struct{}

func (noopMailer) SendVerificationEmail(toEmail, toName, verifyURL, token string) error { return nil }

// mapStore is the map-backed stand-in for the Redis store behind the
// idempotency and rate limit middleware.
type mapStore struct {
	values map[string]string
	counts map[string]int64
}

func newMapStore() *mapStore {
	return &mapStore{
		values: make(map[string]string),
		counts: make(map[string]int64),
	}
}

func (s *mapStore) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *mapStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *mapStore) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

var _ repository.ClientRepository = (*mockClientRepo)(nil)
var _ repository.VisitRepository = (*mockVisitRepo)(nil)
var _ repository.StaffRepository = (*mockStaffRepo)(nil)
var _ repository.VerificationRepository = (*mockVerifyRepo)(nil)

// ---------- Test server ----------

type testEnv struct {
	server     *httptest.Server
	clientRepo *mockClientRepo
	visitRepo  *mockVisitRepo
	token      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Load()
	cfg.Auth.LoginRateLimit = 3
	clientRepo := newMockClientRepo()
	visitRepo := newMockVisitRepo()
	store := newMapStore()

	clientService := service.NewClientService(clientRepo, visitRepo, nil)
	authService := service.NewAuthService(newMockStaffRepo(), newMockVerifyRepo(), noopMailer{}, nil, cfg)
	h := handlers.New(clientService, authService, cfg)

	loginLimiter := mw.NewRateLimiter(store, mw.RateLimitConfig{
		Requests: cfg.Auth.LoginRateLimit,
		Window:   cfg.Auth.LoginRateWindow,
		KeyFunc:  mw.IPKeyFunc,
	})

	r := chi.NewRouter()
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.With(loginLimiter.Middleware()).Post("/login", h.Login)
	})
	r.Route("/v1/clients", func(r chi.Router) {
		r.Use(h.RequireJWT("staff"))
		r.Get("/", h.SearchClients)
		r.Post("/", h.CreateClient)
		r.Route("/{userId}", func(r chi.Router) {
			r.Get("/", h.GetClient)
			r.Put("/", h.UpdateClient)
			r.Get("/profile", h.GetProfile)
			r.With(mw.IdempotencyMiddleware(store, cfg.App.IdempotencyTTL)).
				Post("/checkin", h.CheckInClient)
			r.Post("/checkout", h.CheckOutClient)
			r.Post("/ban", h.BanClient)
			r.Post("/unban", h.UnbanClient)
			r.Get("/visits", h.ListVisits)
			r.Get("/visits/{visitId}", h.GetVisit)
			r.Get("/visits/{visitId}/view", h.GetVisitView)
		})
	})

	token, err := auth.NewAccessToken(1, "desk@example.org", "staff", "access", cfg.Auth.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server:     srv,
		clientRepo: clientRepo,
		visitRepo:  visitRepo,
		token:      token,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	return e.doHeaders(t, method, path, body, nil)
}

func (e *testEnv) doHeaders(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func (e *testEnv) seedClient(t *testing.T, first, last string) *domain.Client {
	t.Helper()
	c, err := e.clientRepo.Create(context.Background(), domain.ClientRecord{
		FirstName: &first,
		LastName:  &last,
	})
	if err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	return c
}

// ---------- Tests ----------

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest("GET", env.server.URL+"/v1/clients/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestSearchClients(t *testing.T) {
	env := newTestEnv(t)
	env.seedClient(t, "Jane", "Doe")
	env.seedClient(t, "Janet", "Smith")
	env.seedClient(t, "Bob", "Jones")

	t.Run("prefix match on first name", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/?first_name=ja", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var body struct {
			Clients []domain.Client `json:"clients"`
		}
		decode(t, resp, &body)
		if len(body.Clients) != 2 {
			t.Errorf("expected 2 matches, got %d", len(body.Clients))
		}
	})

	t.Run("empty search lists everyone", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/", nil)

		var body struct {
			Clients []domain.Client `json:"clients"`
			List    struct {
				State string `json:"state"`
			} `json:"list"`
		}
		decode(t, resp, &body)
		if len(body.Clients) != 3 {
			t.Errorf("expected 3 clients, got %d", len(body.Clients))
		}
		if body.List.State != "ready" {
			t.Errorf("expected ready list, got %q", body.List.State)
		}
	})

	t.Run("no match yields an empty list state", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/?first_name=zzz", nil)

		var body struct {
			List struct {
				State   string `json:"state"`
				Message string `json:"message"`
			} `json:"list"`
		}
		decode(t, resp, &body)
		if body.List.State != "empty" {
			t.Errorf("expected empty state, got %q", body.List.State)
		}
		if body.List.Message != "No Clients" {
			t.Errorf("expected default message, got %q", body.List.Message)
		}
	})
}

func TestCreateClient(t *testing.T) {
	env := newTestEnv(t)

	t.Run("blank names save nothing", func(t *testing.T) {
		resp := env.do(t, "POST", "/v1/clients/", map[string]interface{}{})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var body struct {
			Saved    bool   `json:"saved"`
			Redirect string `json:"redirect"`
		}
		decode(t, resp, &body)
		if body.Saved {
			t.Error("expected no save for blank names")
		}
		if body.Redirect != "/" {
			t.Errorf("expected home redirect, got %q", body.Redirect)
		}
		if len(env.clientRepo.clients) != 0 {
			t.Errorf("expected no stored clients, got %d", len(env.clientRepo.clients))
		}
	})

	t.Run("named client is created", func(t *testing.T) {
		resp := env.do(t, "POST", "/v1/clients/", map[string]interface{}{
			"first_name": "Jane",
			"last_name":  "Doe",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var body struct {
			Saved  bool           `json:"saved"`
			Client *domain.Client `json:"client"`
		}
		decode(t, resp, &body)
		if !body.Saved || body.Client == nil {
			t.Fatalf("expected saved client, got %+v", body)
		}
		if body.Client.FirstNameLower != "jane" {
			t.Errorf("expected derived lower mirror, got %q", body.Client.FirstNameLower)
		}
	})

	t.Run("create with toggle goes to check-in", func(t *testing.T) {
		resp := env.do(t, "POST", "/v1/clients/", map[string]interface{}{
			"first_name":      "Amy",
			"toggle_check_in": true,
		})

		var body struct {
			Client   *domain.Client `json:"client"`
			Redirect string         `json:"redirect"`
		}
		decode(t, resp, &body)
		if body.Client == nil {
			t.Fatal("expected saved client")
		}
		if want := "/checkin/" + body.Client.ID; body.Redirect != want {
			t.Errorf("expected redirect %q, got %q", want, body.Redirect)
		}
	})
}

func TestUpdateClientPreservesCheckIn(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedClient(t, "Jane", "Doe")
	env.clientRepo.clients[c.ID].IsCheckedIn = true

	resp := env.do(t, "PUT", "/v1/clients/"+c.ID+"/", map[string]interface{}{
		"first_name": "Janet",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Client *domain.Client `json:"client"`
	}
	decode(t, resp, &body)
	if body.Client.FirstName != "Janet" {
		t.Errorf("expected updated name, got %q", body.Client.FirstName)
	}
	if !body.Client.IsCheckedIn {
		t.Error("plain save must not check the client out")
	}
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)

	t.Run("heading is the full name", func(t *testing.T) {
		c := env.seedClient(t, "Jane", "Doe")
		env.clientRepo.clients[c.ID].MiddleInitial = "Q"

		resp := env.do(t, "GET", "/v1/clients/"+c.ID+"/profile", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var body struct {
			Heading         string `json:"heading"`
			CheckedInStatus string `json:"checked_in_status"`
		}
		decode(t, resp, &body)
		if body.Heading != "Jane Q Doe" {
			t.Errorf("Heading = %q", body.Heading)
		}
		if body.CheckedInStatus != "Not Checked In" {
			t.Errorf("CheckedInStatus = %q", body.CheckedInStatus)
		}
	})

	t.Run("missing client redirects home", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/nope/profile", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("store failure is an error, not a redirect", func(t *testing.T) {
		env.clientRepo.getErr = fmt.Errorf("connection refused")
		defer func() { env.clientRepo.getErr = nil }()

		resp := env.do(t, "GET", "/v1/clients/whatever/profile", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})
}

func TestCheckInFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedClient(t, "Jane", "Doe")

	resp := env.do(t, "POST", "/v1/clients/"+c.ID+"/checkin", map[string]interface{}{
		"clothing_men": true,
		"bus_ticket":   2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body struct {
		Client *domain.Client `json:"client"`
		Visit  *domain.Visit  `json:"visit"`
	}
	decode(t, resp, &body)

	if !body.Client.IsCheckedIn {
		t.Error("expected client checked in")
	}
	if body.Visit == nil || !body.Visit.ClothingMen || body.Visit.BusTicket != 2 {
		t.Errorf("unexpected visit: %+v", body.Visit)
	}
	if len(env.visitRepo.visits) != 1 {
		t.Errorf("expected 1 stored visit, got %d", len(env.visitRepo.visits))
	}

	t.Run("check-out flips the flag back", func(t *testing.T) {
		resp := env.do(t, "POST", "/v1/clients/"+c.ID+"/checkout", nil)
		var out domain.Client
		decode(t, resp, &out)
		if out.IsCheckedIn {
			t.Error("expected client checked out")
		}
	})

	t.Run("check-in of unknown client is 404", func(t *testing.T) {
		resp := env.do(t, "POST", "/v1/clients/nope/checkin", nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestBanFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedClient(t, "Jane", "Doe")

	resp := env.do(t, "POST", "/v1/clients/"+c.ID+"/ban", nil)
	var banned domain.Client
	decode(t, resp, &banned)
	if !banned.IsBanned {
		t.Error("expected client banned")
	}

	resp = env.do(t, "POST", "/v1/clients/"+c.ID+"/unban", nil)
	var unbanned domain.Client
	decode(t, resp, &unbanned)
	if unbanned.IsBanned {
		t.Error("expected ban lifted")
	}
}

func TestVisitEndpoints(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedClient(t, "Jane", "Doe")

	checkin := env.do(t, "POST", "/v1/clients/"+c.ID+"/checkin", map[string]interface{}{
		"clothing_men": true,
	})
	var created struct {
		Visit *domain.Visit `json:"visit"`
	}
	decode(t, checkin, &created)

	t.Run("history lists the visit", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/"+c.ID+"/visits", nil)

		var body struct {
			Visits []domain.Visit `json:"visits"`
		}
		decode(t, resp, &body)
		if len(body.Visits) != 1 {
			t.Fatalf("expected 1 visit, got %d", len(body.Visits))
		}
	})

	t.Run("visit view renders the detail model", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/"+c.ID+"/visits/"+created.Visit.ID+"/view", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var body struct {
			Heading string   `json:"heading"`
			Items   []string `json:"items"`
		}
		decode(t, resp, &body)
		if body.Heading != "Visit Details" {
			t.Errorf("Heading = %q", body.Heading)
		}
		if len(body.Items) != 1 || body.Items[0] != "Men" {
			t.Errorf("Items = %v", body.Items)
		}
	})

	t.Run("missing visit redirects to the profile", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/"+c.ID+"/visits/nope/view", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/profile/"+c.ID {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("visit under the wrong client is not found", func(t *testing.T) {
		other := env.seedClient(t, "Bob", "Jones")
		resp := env.do(t, "GET", "/v1/clients/"+other.ID+"/visits/"+created.Visit.ID, nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("history for unknown client is 404", func(t *testing.T) {
		resp := env.do(t, "GET", "/v1/clients/nope/visits", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestCheckInIdempotency(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedClient(t, "Jane", "Doe")

	body := map[string]interface{}{"clothing_men": true}
	headers := map[string]string{"Idempotency-Key": "desk-submit-1"}

	first := env.doHeaders(t, "POST", "/v1/clients/"+c.ID+"/checkin", body, headers)
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on first submit, got %d", first.StatusCode)
	}
	var created struct {
		Visit *domain.Visit `json:"visit"`
	}
	decode(t, first, &created)

	second := env.doHeaders(t, "POST", "/v1/clients/"+c.ID+"/checkin", body, headers)
	if second.StatusCode != http.StatusCreated {
		t.Errorf("replay must keep the original status, got %d", second.StatusCode)
	}
	var replayed struct {
		Visit *domain.Visit `json:"visit"`
	}
	decode(t, second, &replayed)

	if len(env.visitRepo.visits) != 1 {
		t.Errorf("double submit must leave exactly one visit, got %d", len(env.visitRepo.visits))
	}
	if replayed.Visit == nil || replayed.Visit.ID != created.Visit.ID {
		t.Errorf("replay returned a different visit: %+v vs %+v", replayed.Visit, created.Visit)
	}

	t.Run("a fresh key records a new visit", func(t *testing.T) {
		resp := env.doHeaders(t, "POST", "/v1/clients/"+c.ID+"/checkin", body,
			map[string]string{"Idempotency-Key": "desk-submit-2"})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		if len(env.visitRepo.visits) != 2 {
			t.Errorf("expected a second visit, got %d", len(env.visitRepo.visits))
		}
	})
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t)

	attempt := func() *http.Response {
		return env.do(t, "POST", "/v1/auth/login", map[string]string{
			"email":    "ghost@example.org",
			"password": "wrong-password",
		})
	}

	for i := 0; i < 3; i++ {
		resp := attempt()
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.StatusCode)
		}
	}

	resp := attempt()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", resp.StatusCode)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("expected rate limit code, got %q", body.Code)
	}
}
