package service

import (
	"context"
	"fmt"
	"time"

	"github.com/courtsidehq/booking-server/internal/entity"
	"github.com/courtsidehq/booking-server/internal/payments"
)

// In-memory doubles for the repositories and the payment gateway. They
// implement just enough of the real semantics (status guards, conditional
// decrements, conflict detection) for the services to be tested end to end
// without a database.

type fakeSessionRepo struct {
	sessions map[int64]*entity.Session
	nextID   int64
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[int64]*entity.Session), nextID: 1}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *entity.Session) error {
	s.ID = r.nextID
	r.nextID++
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id int64) (*entity.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) GetOpen(_ context.Context) ([]*entity.Session, error) {
	var out []*entity.Session
	for _, s := range r.sessions {
		if s.Status == entity.SessionStatusOpen {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) UpdateStatus(_ context.Context, id int64, status entity.SessionStatus) error {
	s, ok := r.sessions[id]
	if !ok {
		return entity.ErrSessionNotFound
	}
	s.Status = status
	return nil
}

func (r *fakeSessionRepo) ReleaseSpots(_ context.Context, sessionID int64, spots int) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return entity.ErrSessionNotFound
	}
	s.SpotsRemaining += spots
	if s.Status == entity.SessionStatusFull {
		s.Status = entity.SessionStatusOpen
	}
	return nil
}

type fakeBookingRepo struct {
	sessions   *fakeSessionRepo
	bookings   map[int64]*entity.Booking
	nextID     int64
	reserveErr error
}

func newFakeBookingRepo(sessions *fakeSessionRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		sessions: sessions,
		bookings: make(map[int64]*entity.Booking),
		nextID:   1,
	}
}

func (r *fakeBookingRepo) ReserveSpot(_ context.Context, sessionID, userID int64, guests int) (*entity.Booking, error) {
	if r.reserveErr != nil {
		return nil, r.reserveErr
	}

	s, ok := r.sessions.sessions[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	spots := 1 + guests
	if s.Status != entity.SessionStatusOpen || s.SpotsRemaining < spots {
		return nil, entity.ErrNotEnoughSpots
	}
	s.SpotsRemaining -= spots
	if s.SpotsRemaining == 0 {
		s.Status = entity.SessionStatusFull
	}

	b := &entity.Booking{
		ID:         r.nextID,
		SessionID:  sessionID,
		UserID:     userID,
		Guests:     guests,
		Status:     entity.BookingStatusReserved,
		ReservedAt: time.Now(),
	}
	r.nextID++
	r.bookings[b.ID] = b
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*entity.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) GetByUserID(_ context.Context, userID int64) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Confirm(_ context.Context, id int64, at time.Time) error {
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	if b.Status == entity.BookingStatusReserved {
		b.Status = entity.BookingStatusConfirmed
		b.ConfirmedAt = &at
	}
	return nil
}

func (r *fakeBookingRepo) CancelIfNotCancelled(_ context.Context, id int64, at time.Time) error {
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	if b.Status == entity.BookingStatusCancelled {
		return entity.ErrAlreadyCancelled
	}
	b.Status = entity.BookingStatusCancelled
	b.CancelledAt = &at
	return nil
}

func (r *fakeBookingRepo) GetStale(_ context.Context, before time.Time) ([]*entity.StaleBooking, error) {
	var out []*entity.StaleBooking
	for _, b := range r.bookings {
		if b.Status == entity.BookingStatusReserved && b.ReservedAt.Before(before) {
			out = append(out, &entity.StaleBooking{
				BookingID:  b.ID,
				SessionID:  b.SessionID,
				UserID:     b.UserID,
				Guests:     b.Guests,
				ReservedAt: b.ReservedAt,
			})
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders          map[int64]*entity.Order
	nextID          int64
	updateStatusErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*entity.Order), nextID: 1}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *entity.Order) error {
	o.ID = r.nextID
	r.nextID++
	if o.Status == "" {
		o.Status = entity.OrderStatusPending
	}
	copied := *o
	r.orders[o.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepo) getByBookingAndStatus(bookingID int64, status entity.OrderStatus) (*entity.Order, error) {
	for _, o := range r.orders {
		if o.BookingID == bookingID && o.Status == status {
			copied := *o
			return &copied, nil
		}
	}
	return nil, entity.ErrOrderNotFound
}

func (r *fakeOrderRepo) GetPaidByBookingID(_ context.Context, bookingID int64) (*entity.Order, error) {
	return r.getByBookingAndStatus(bookingID, entity.OrderStatusPaid)
}

func (r *fakeOrderRepo) GetPendingByBookingID(_ context.Context, bookingID int64) (*entity.Order, error) {
	return r.getByBookingAndStatus(bookingID, entity.OrderStatusPending)
}

func (r *fakeOrderRepo) GetByPaymentIntentID(_ context.Context, paymentIntentID string) (*entity.Order, error) {
	for _, o := range r.orders {
		if o.StripePaymentIntentID == paymentIntentID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, entity.ErrOrderNotFound
}

func (r *fakeOrderRepo) GetBySplitGroupID(_ context.Context, splitGroupID string) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range r.orders {
		if o.SplitGroupID == splitGroupID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status entity.OrderStatus) error {
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	o, ok := r.orders[id]
	if !ok {
		return entity.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

type fakeMembershipRepo struct {
	memberships map[string]*entity.Membership // keyed by external subscription id
	nextID      int64
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{memberships: make(map[string]*entity.Membership), nextID: 1}
}

func (r *fakeMembershipRepo) CreateIfAbsent(_ context.Context, m *entity.Membership) (bool, error) {
	if _, ok := r.memberships[m.ExternalSubscriptionID]; ok {
		return false, nil
	}
	m.ID = r.nextID
	r.nextID++
	copied := *m
	r.memberships[m.ExternalSubscriptionID] = &copied
	return true, nil
}

func (r *fakeMembershipRepo) GetByExternalSubscriptionID(_ context.Context, subscriptionID string) (*entity.Membership, error) {
	m, ok := r.memberships[subscriptionID]
	if !ok {
		return nil, entity.ErrMembershipNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMembershipRepo) GetByUserID(_ context.Context, userID int64) (*entity.Membership, error) {
	for _, m := range r.memberships {
		if m.UserID == userID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, entity.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) UpdateStatusAndPeriod(_ context.Context, subscriptionID string, status entity.MembershipStatus, periodStart, periodEnd time.Time) error {
	m, ok := r.memberships[subscriptionID]
	if !ok {
		return entity.ErrMembershipNotFound
	}
	m.Status = status
	m.CurrentPeriodStart = periodStart
	m.CurrentPeriodEnd = periodEnd
	return nil
}

func (r *fakeMembershipRepo) UpdateStatus(_ context.Context, subscriptionID string, status entity.MembershipStatus) error {
	m, ok := r.memberships[subscriptionID]
	if !ok {
		return entity.ErrMembershipNotFound
	}
	m.Status = status
	return nil
}

type fakeUserRepo struct {
	users  map[int64]*entity.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*entity.User), nextID: 1}
}

func (r *fakeUserRepo) addUser(email string, role entity.UserRole) *entity.User {
	u := &entity.User{
		ID:    r.nextID,
		Email: email,
		Name:  email,
		Role:  role,
	}
	r.nextID++
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return entity.ErrUserAlreadyExists
		}
	}
	u.ID = r.nextID
	r.nextID++
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, entity.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateStripeCustomerID(_ context.Context, userID int64, customerID string) error {
	u, ok := r.users[userID]
	if !ok {
		return entity.ErrUserNotFound
	}
	u.StripeCustomerID = customerID
	return nil
}

type fakeEventRepo struct {
	seen      map[string]bool
	recordErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{seen: make(map[string]bool)}
}

func (r *fakeEventRepo) RecordIfNew(_ context.Context, e *entity.WebhookEvent) (bool, error) {
	if r.recordErr != nil {
		return false, r.recordErr
	}
	if r.seen[e.EventID] {
		return false, nil
	}
	r.seen[e.EventID] = true
	return true, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, eventID string) error {
	delete(r.seen, eventID)
	return nil
}

type refundCall struct {
	paymentIntentID string
	amountCents     int64
}

type fakeGateway struct {
	refunds         []refundCall
	refundErr       error
	intentErr       error
	customerErr     error
	intentCount     int
	customerCount   int
	subscriptions   map[string]*payments.Subscription
	subscriptionErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{subscriptions: make(map[string]*payments.Subscription)}
}

func (g *fakeGateway) CreateCustomer(_ context.Context, email, _ string) (string, error) {
	if g.customerErr != nil {
		return "", g.customerErr
	}
	g.customerCount++
	return fmt.Sprintf("cus_%s_%d", email, g.customerCount), nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, in payments.CreateIntentInput) (*payments.PaymentIntent, error) {
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	g.intentCount++
	id := fmt.Sprintf("pi_%d", g.intentCount)
	return &payments.PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, paymentIntentID string, amountCents int64) error {
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, refundCall{paymentIntentID: paymentIntentID, amountCents: amountCents})
	return nil
}

func (g *fakeGateway) GetSubscription(_ context.Context, subscriptionID string) (*payments.Subscription, error) {
	if g.subscriptionErr != nil {
		return nil, g.subscriptionErr
	}
	sub, ok := g.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription: %s", subscriptionID)
	}
	return sub, nil
}

func (g *fakeGateway) VerifyWebhook(_ []byte, _ string) (*payments.Event, error) {
	return nil, entity.ErrSignatureInvalid
}

type publishedEvent struct {
	key     string
	payload interface{}
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v interface{}) error {
	p.events = append(p.events, publishedEvent{key: key, payload: v})
	return nil
}
