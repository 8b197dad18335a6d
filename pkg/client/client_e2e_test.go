package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	availabilityerrors "masterbook/internal/availability/errors"
	availabilityhandler "masterbook/internal/availability/handler"
	availabilityservice "masterbook/internal/availability/service"
	availabilityvalidator "masterbook/internal/availability/validator"
	bookingserrors "masterbook/internal/bookings/errors"
	bookingshandler "masterbook/internal/bookings/handler"
	"masterbook/internal/bookings/lifecycle"
	bookingsservice "masterbook/internal/bookings/service"
	bookingsvalidator "masterbook/internal/bookings/validator"
	chatserrors "masterbook/internal/chats/errors"
	chatshandler "masterbook/internal/chats/handler"
	chatsservice "masterbook/internal/chats/service"
	"masterbook/internal/health"
	"masterbook/pkg/app"
	"masterbook/pkg/auth"
	"masterbook/pkg/client"
	"masterbook/pkg/config"
	mongotx "masterbook/pkg/db/mongo"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/lock"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"
	"masterbook/pkg/validation"

	"github.com/google/uuid"
)

type profileStore struct {
	mu       sync.Mutex
	profiles map[string]*model.AvailabilityProfile
}

func (s *profileStore) FindByMasterID(_ context.Context, masterID string) (*model.AvailabilityProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[masterID]
	if !ok {
		return nil, availabilityerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *profileStore) Upsert(_ context.Context, u *model.AvailabilityUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[u.MasterID]
	if !ok {
		p = model.EmptyAvailabilityProfile(u.MasterID)
		s.profiles[u.MasterID] = p
	}
	if u.Weekly != nil {
		p.Weekly = u.Weekly
	}
	if u.DaysOff != nil {
		p.DaysOff = u.DaysOff
	}
	if u.Blocks != nil {
		p.Blocks = u.Blocks
	}
	return nil
}

type bookingStore struct {
	mongotx.NoTransaction

	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func (s *bookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *bookingStore) FindByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *bookingStore) FindActiveByMasterAndDate(ctx context.Context, masterID string, date timerange.Date) ([]*model.Booking, error) {
	all, _ := s.FindByMasterAndDate(ctx, masterID, &date, 0, 0)
	var out []*model.Booking
	for _, b := range all {
		if lifecycle.IsActive(b.Status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingStore) FindActiveOverlapping(ctx context.Context, masterID string, date timerange.Date, window timerange.Interval) ([]*model.Booking, error) {
	active, _ := s.FindActiveByMasterAndDate(ctx, masterID, date)
	var out []*model.Booking
	for _, b := range active {
		if b.Time < window.End.String() && b.EndTime > window.Start.String() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingStore) FindByMasterAndDate(_ context.Context, masterID string, date *timerange.Date, limit int, offset int64) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.MasterID == masterID && (date == nil || b.Date == date.String()) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date+out[i].Time < out[j].Date+out[j].Time })
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *bookingStore) CountByMasterAndDate(ctx context.Context, masterID string, date *timerange.Date) (int64, error) {
	all, _ := s.FindByMasterAndDate(ctx, masterID, date, 0, 0)
	return int64(len(all)), nil
}

func (s *bookingStore) UpdateStatus(_ context.Context, id string, expected, status model.BookingStatus) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != expected {
		return nil, bookingserrors.ErrStatusChanged
	}
	b.Status = status
	cp := *b
	return &cp, nil
}

type chatStore struct {
	mu       sync.Mutex
	chats    map[string]*model.Chat
	messages []*model.Message
}

func (s *chatStore) CreateChat(_ context.Context, c *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.BookingID]; ok {
		return chatserrors.ErrAlreadyExists
	}
	c.ID = uuid.NewString()
	cp := *c
	s.chats[c.BookingID] = &cp
	return nil
}

func (s *chatStore) FindByBookingID(_ context.Context, bookingID string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[bookingID]
	if !ok {
		return nil, chatserrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *chatStore) AppendMessage(_ context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now()
	cp := *m
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *chatStore) ListMessages(_ context.Context, chatID string, limit int, offset int64) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *chatStore) CountMessages(ctx context.Context, chatID string) (int64, error) {
	all, _ := s.ListMessages(ctx, chatID, 1<<30, 0)
	return int64(len(all)), nil
}

const (
	secret   = "e2e-secret-0123456789abcdef0123456789"
	masterID = "master-1"
	clientID = "client-1"
	monday   = "2025-03-10"
)

type testEnv struct {
	base     *client.HttpClient
	verifier *auth.JWTVerifier
}

func (e *testEnv) as(t *testing.T, uid string) *client.HttpClient {
	t.Helper()
	token, err := e.verifier.IssueToken(uid, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return e.base.WithToken(token)
}

func startServer(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New(logger.Config{Output: io.Discard})
	cfg := &config.Config{
		Port:                  "0",
		RateLimitRPS:          1000,
		RateLimitBurst:        1000,
		RequestTimeout:        5 * time.Second,
		IdempotencyTTL:        time.Minute,
		MaxRequestSize:        1 << 20,
		ShutdownTimeout:       time.Second,
		DefaultPhoneRegion:    "US",
		MaxBookingsPerDayScan: 500,
		Log:                   log,
		Client:                client.NewClient(),
	}

	validate := validation.New(log)
	verifier := auth.NewJWTVerifier(secret, "masterbook")
	authenticator := auth.NewAuthenticator(verifier, log)

	availability := availabilityservice.NewAvailabilityService(
		&profileStore{profiles: map[string]*model.AvailabilityProfile{}},
		availabilityvalidator.NewAvailabilityValidator(validate, log),
		cfg,
	)
	chats := chatsservice.NewChatService(&chatStore{chats: map[string]*model.Chat{}}, validate, cfg)
	bookings := bookingsservice.NewBookingService(
		&bookingStore{bookings: map[string]*model.Booking{}},
		lock.NewMemoryLocker(time.Second),
		availability,
		chats,
		nil,
		bookingsvalidator.NewBookingValidator(validate, cfg.DefaultPhoneRegion, log),
		cfg,
	)

	application := app.NewApplication(cfg)
	application.SetApp(
		health.NewHealthHandler(nil, log),
		availabilityhandler.NewAvailabilityHandler(availability, bookings, authenticator, log),
		bookingshandler.NewBookingHandler(bookings, authenticator, log),
		chatshandler.NewChatHandler(chats, authenticator, log),
	)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	return &testEnv{base: client.NewHttpClient(server.URL), verifier: verifier}
}

func expectStatus(t *testing.T, resp *client.Response, err error, want int) {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, want, resp.ToString())
	}
}

func TestEndToEnd_BookingFlow(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	if err := env.base.WaitForHealthy(ctx, 5*time.Second); err != nil {
		t.Fatal(err)
	}

	masterHTTP := env.as(t, masterID)
	clientHTTP := env.as(t, clientID)

	resp, err := client.NewAvailabilityClient(masterHTTP).Set(ctx, model.AvailabilityUpdate{
		MasterID: masterID,
		Weekly:   model.WeeklyTemplate{"1": {{Start: "09:00", End: "17:00"}}},
	})
	expectStatus(t, resp, err, http.StatusOK)

	bookingsAsClient := client.NewBookingClient(clientHTTP)
	request := model.BookingRequest{
		ListingID: "listing-1",
		MasterID:  masterID,
		Date:      monday,
		Time:      "10:00",
		Duration:  60,
		Contact:   model.Contact{Name: "Ann", Phone: "+1 415 555 2671"},
	}
	resp, err = bookingsAsClient.Request(ctx, request)
	expectStatus(t, resp, err, http.StatusCreated)
	bookingID, err := bookingsAsClient.DecodeID(resp)
	if err != nil || bookingID == "" {
		t.Fatalf("booking id = %q, err %v", bookingID, err)
	}

	overlapping := request
	overlapping.Time = "10:30"
	overlapping.Duration = 30
	resp, err = client.NewBookingClient(env.as(t, "client-2")).Request(ctx, overlapping)
	expectStatus(t, resp, err, http.StatusConflict)
	if code := client.GetErrorCode(resp); code != apperrors.CodeSlotTaken {
		t.Errorf("error code = %q, want SLOT_TAKEN", code)
	}

	outside := request
	outside.Time = "17:00"
	resp, err = bookingsAsClient.Request(ctx, outside)
	expectStatus(t, resp, err, http.StatusBadRequest)
	if code := client.GetErrorCode(resp); code != apperrors.CodeOutsideAvailability {
		t.Errorf("error code = %q, want OUTSIDE_AVAILABILITY", code)
	}

	availabilityClient := client.NewAvailabilityClient(env.base)
	resp, err = availabilityClient.Open(ctx, masterID, monday)
	expectStatus(t, resp, err, http.StatusOK)
	open, free, err := availabilityClient.DecodeOpen(resp)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || len(free) != 2 {
		t.Fatalf("open = %v free = %v", open, free)
	}
	if free[0].End.String() != "10:00" || free[1].Start.String() != "11:00" {
		t.Errorf("free = %v", free)
	}

	bookingsAsMaster := client.NewBookingClient(masterHTTP)
	resp, err = bookingsAsMaster.UpdateStatus(ctx, bookingID, model.StatusConfirmed)
	expectStatus(t, resp, err, http.StatusOK)
	confirmed, err := bookingsAsMaster.DecodeBooking(resp)
	if err != nil || confirmed.Status != model.StatusConfirmed {
		t.Fatalf("booking = %+v, err %v", confirmed, err)
	}

	resp, err = bookingsAsMaster.UpdateStatus(ctx, bookingID, model.StatusDeclined)
	expectStatus(t, resp, err, http.StatusConflict)
	if code := client.GetErrorCode(resp); code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %q, want INVALID_TRANSITION", code)
	}

	resp, err = client.NewChatClient(clientHTTP).Post(ctx, bookingID, "See you at ten")
	expectStatus(t, resp, err, http.StatusCreated)

	chatAsMaster := client.NewChatClient(masterHTTP)
	resp, err = chatAsMaster.List(ctx, bookingID, 10, 0)
	expectStatus(t, resp, err, http.StatusOK)
	messages, err := chatAsMaster.DecodeMessages(resp)
	if err != nil || len(messages) != 1 || messages[0].SenderID != clientID {
		t.Fatalf("messages = %v, err %v", messages, err)
	}

	resp, err = bookingsAsMaster.ListForMaster(ctx, masterID, monday, 10, 0)
	expectStatus(t, resp, err, http.StatusOK)
	listed, meta, err := bookingsAsMaster.DecodeBookings(resp)
	if err != nil || len(listed) != 1 || meta.TotalCount != 1 {
		t.Fatalf("listed = %v meta = %+v err %v", listed, meta, err)
	}

	resp, err = client.NewBookingClient(env.as(t, "stranger")).GetByID(ctx, bookingID)
	expectStatus(t, resp, err, http.StatusForbidden)
}

func TestEndToEnd_ConcurrentRequestsForOneSlot(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	resp, err := client.NewAvailabilityClient(env.as(t, masterID)).Set(ctx, model.AvailabilityUpdate{
		MasterID: masterID,
		Weekly:   model.WeeklyTemplate{"1": {{Start: "09:00", End: "17:00"}}},
	})
	expectStatus(t, resp, err, http.StatusOK)

	const callers = 8
	statuses := make([]int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := client.NewBookingClient(env.as(t, uuid.NewString()))
			resp, err := c.Request(ctx, model.BookingRequest{
				ListingID: "listing-1",
				MasterID:  masterID,
				Date:      monday,
				Time:      "14:00",
				Duration:  45,
			})
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", s)
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
}

func TestEndToEnd_IdempotentRequest(t *testing.T) {
	env := startServer(t)
	ctx := context.Background()

	resp, err := client.NewAvailabilityClient(env.as(t, masterID)).Set(ctx, model.AvailabilityUpdate{
		MasterID: masterID,
		Weekly:   model.WeeklyTemplate{"1": {{Start: "09:00", End: "17:00"}}},
	})
	expectStatus(t, resp, err, http.StatusOK)

	c := client.NewBookingClient(env.as(t, clientID))
	req := model.BookingRequest{ListingID: "listing-1", MasterID: masterID, Date: monday, Time: "09:00", Duration: 30}

	first, err := c.RequestWithIdempotencyKey(ctx, req, "retry-1")
	expectStatus(t, first, err, http.StatusCreated)
	second, err := c.RequestWithIdempotencyKey(ctx, req, "retry-1")
	expectStatus(t, second, err, http.StatusCreated)

	id1, _ := c.DecodeID(first)
	id2, _ := c.DecodeID(second)
	if id1 != id2 {
		t.Errorf("retry created a second booking: %s vs %s", id1, id2)
	}
}
