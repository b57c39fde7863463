// Package advertiser manages weekly newsletter sponsorship slots:
// upcoming-week inventory, submissions and their payment lifecycle.
// State lives behind the Store interface; the default in-memory store
// resets on process restart, which is a documented limitation of the
// single-process deployment.
package advertiser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// dateFormat is the week-boundary wire format (dates only, no time).
const dateFormat = "2006-01-02"

var (
	ErrSlotTaken   = errors.New("week slot is already reserved")
	ErrUnknownWeek = errors.New("week is not in the bookable range")
	ErrNotFound    = errors.New("submission not found")
)

// Submission is one advertiser booking for one newsletter week.
type Submission struct {
	ID              string        `json:"id" db:"id"`
	CompanyName     string        `json:"companyName" db:"company_name"`
	Pitch           string        `json:"pitch" db:"pitch"`
	ContactEmail    string        `json:"contactEmail" db:"contact_email"`
	Website         string        `json:"website" db:"website"`
	WeekStart       string        `json:"weekStartDate" db:"week_start"`
	WeekEnd         string        `json:"weekEndDate" db:"week_end"`
	Status          Status        `json:"status" db:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus" db:"payment_status"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" db:"updated_at"`
}

// WeekSlot is one bookable newsletter week.
type WeekSlot struct {
	WeekStart  string      `json:"weekStartDate"`
	WeekEnd    string      `json:"weekEndDate"`
	Available  bool        `json:"isAvailable"`
	Advertiser *Submission `json:"advertiser,omitempty"`
}

// Store persists submissions. Implementations: Memory and Postgres.
type Store interface {
	Create(ctx context.Context, sub Submission) error
	Update(ctx context.Context, sub Submission) error
	Get(ctx context.Context, id string) (Submission, error)
	List(ctx context.Context) ([]Submission, error)
}

// Service applies the booking rules over a Store.
type Service struct {
	store      Store
	weeksAhead int
	now        func() time.Time
}

func NewService(store Store, weeksAhead int) *Service {
	if weeksAhead <= 0 {
		weeksAhead = 12
	}
	return &Service{store: store, weeksAhead: weeksAhead, now: time.Now}
}

// blocksSlot reports whether a submission keeps its week unavailable.
// Failed payments release the slot.
func blocksSlot(sub Submission) bool {
	return sub.PaymentStatus != PaymentFailed
}

// Weeks returns the bookable weeks (next weeksAhead Monday-start
// weeks) with availability derived from stored submissions.
func (s *Service) Weeks(ctx context.Context) ([]WeekSlot, error) {
	subs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	taken := make(map[string]*Submission, len(subs))
	for i := range subs {
		if blocksSlot(subs[i]) {
			taken[subs[i].WeekStart] = &subs[i]
		}
	}

	slots := make([]WeekSlot, 0, s.weeksAhead)
	for _, start := range s.upcomingWeekStarts() {
		slot := WeekSlot{
			WeekStart: start.Format(dateFormat),
			WeekEnd:   start.AddDate(0, 0, 6).Format(dateFormat),
		}
		if sub, ok := taken[slot.WeekStart]; ok {
			slot.Advertiser = sub
		} else {
			slot.Available = true
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Submit reserves a week. The submission starts pending with payment
// pending; payment completion approves it.
func (s *Service) Submit(ctx context.Context, sub Submission) (Submission, error) {
	slots, err := s.Weeks(ctx)
	if err != nil {
		return Submission{}, err
	}

	var slot *WeekSlot
	for i := range slots {
		if slots[i].WeekStart == sub.WeekStart {
			slot = &slots[i]
			break
		}
	}
	if slot == nil {
		return Submission{}, ErrUnknownWeek
	}
	if !slot.Available {
		return Submission{}, ErrSlotTaken
	}

	now := s.now().UTC()
	sub.ID = "adv_" + uuid.NewString()
	sub.WeekEnd = slot.WeekEnd
	sub.Status = StatusPending
	sub.PaymentStatus = PaymentPending
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if err := s.store.Create(ctx, sub); err != nil {
		return Submission{}, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

// UpdatePayment records the outcome of the payment step. Completed
// payments approve the booking; failed payments release the week.
func (s *Service) UpdatePayment(ctx context.Context, id string, status PaymentStatus, paymentIntentID string) error {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	sub.PaymentStatus = status
	sub.PaymentIntentID = paymentIntentID
	sub.UpdatedAt = s.now().UTC()
	switch status {
	case PaymentCompleted:
		sub.Status = StatusApproved
	case PaymentFailed:
		// Slot availability is derived, so the failed submission no
		// longer blocks its week.
	}

	return s.store.Update(ctx, sub)
}

// Current returns the paid sponsor whose week covers today, if any.
func (s *Service) Current(ctx context.Context) (*Submission, error) {
	subs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now().UTC().Format(dateFormat)
	for i := range subs {
		sub := subs[i]
		if sub.PaymentStatus != PaymentCompleted {
			continue
		}
		if sub.Status != StatusApproved && sub.Status != StatusActive {
			continue
		}
		if sub.WeekStart <= today && today <= sub.WeekEnd {
			return &sub, nil
		}
	}
	return nil, nil
}

// ExpireSweep marks paid bookings whose week has passed as expired.
func (s *Service) ExpireSweep(ctx context.Context) error {
	subs, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	today := s.now().UTC().Format(dateFormat)
	for _, sub := range subs {
		if sub.WeekEnd < today && (sub.Status == StatusActive || sub.Status == StatusApproved) {
			sub.Status = StatusExpired
			sub.UpdatedAt = s.now().UTC()
			if err := s.store.Update(ctx, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// upcomingWeekStarts returns the next weeksAhead Mondays, starting
// with the Monday strictly after today.
func (s *Service) upcomingWeekStarts() []time.Time {
	today := s.now().UTC().Truncate(24 * time.Hour)
	daysUntilMonday := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	first := today.AddDate(0, 0, daysUntilMonday)

	starts := make([]time.Time, 0, s.weeksAhead)
	for i := 0; i < s.weeksAhead; i++ {
		starts = append(starts, first.AddDate(0, 0, i*7))
	}
	return starts
}
