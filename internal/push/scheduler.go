package push

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/store"

	"github.com/robfig/cron/v3"
)

// Scheduler sends event reminders and a morning chore digest on a cron
// schedule.
type Scheduler struct {
	service *Service
	push    *store.PushStore
	events  *store.EventStore
	chores  *store.ChoreStore
	logger  *slog.Logger
	cron    *cron.Cron

	mu   sync.Mutex
	sent map[string]time.Time // reminder dedup keys -> when sent
}

func NewScheduler(svc *Service, pushStore *store.PushStore, eventStore *store.EventStore, choreStore *store.ChoreStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service: svc,
		push:    pushStore,
		events:  eventStore,
		chores:  choreStore,
		logger:  logger.With("component", "push_scheduler"),
		cron:    cron.New(),
		sent:    make(map[string]time.Time),
	}
}

// Start registers the cron jobs and begins the scheduler. Event reminders
// run every minute; the chore digest runs daily at 08:00 server time.
func (s *Scheduler) Start() error {
	if !s.service.Configured() {
		s.logger.Info("push not configured, scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc("@every 1m", s.eventReminders); err != nil {
		return fmt.Errorf("schedule event reminders: %w", err)
	}
	if _, err := s.cron.AddFunc("0 8 * * *", s.choreDigest); err != nil {
		return fmt.Errorf("schedule chore digest: %w", err)
	}
	if _, err := s.cron.AddFunc("@every 1h", s.pruneSent); err != nil {
		return fmt.Errorf("schedule prune: %w", err)
	}

	s.cron.Start()
	s.logger.Info("push scheduler started")
	return nil
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// eventReminders notifies households about events starting within the
// next 15 minutes.
func (s *Scheduler) eventReminders() {
	now := time.Now().UTC()
	windowEnd := now.Add(15 * time.Minute)

	householdIDs, err := s.push.ListHouseholdIDs()
	if err != nil {
		s.logger.Error("list households", "error", err)
		return
	}

	for _, hid := range householdIDs {
		events, err := s.events.ListInRange(hid, now, windowEnd)
		if err != nil {
			s.logger.Error("list events", "household_id", hid, "error", err)
			continue
		}

		for _, event := range events {
			if event.StartTime.Before(now) || event.AllDay {
				continue
			}
			key := fmt.Sprintf("event-%d-%s", event.ID, event.StartTime.Format(time.RFC3339))
			if s.alreadySent(key) {
				continue
			}

			minutes := int(event.StartTime.Sub(now).Minutes())
			s.broadcast(hid, Payload{
				Title: "Upcoming Event",
				Body:  fmt.Sprintf("%s starts in %d minutes", event.Title, minutes),
				URL:   "/calendar",
				Tag:   fmt.Sprintf("event-%d", event.ID),
			})
			s.markSent(key)
		}
	}
}

// choreDigest sends each household a summary of its open chores.
func (s *Scheduler) choreDigest() {
	householdIDs, err := s.push.ListHouseholdIDs()
	if err != nil {
		s.logger.Error("list households", "error", err)
		return
	}

	for _, hid := range householdIDs {
		chores, err := s.chores.List(hid)
		if err != nil {
			s.logger.Error("list chores", "household_id", hid, "error", err)
			continue
		}
		if len(chores) == 0 {
			continue
		}

		body := fmt.Sprintf("You have %d chores to do today", len(chores))
		if len(chores) == 1 {
			body = fmt.Sprintf("Chore due today: %s", chores[0].Title)
		}

		s.broadcast(hid, Payload{
			Title: "Chore Reminders",
			Body:  body,
			URL:   "/chores",
			Tag:   "chore-daily",
		})
	}
}

// NotifyItemAdded tells the rest of the household a shopping item was
// added. Called from the shopping handler, not from cron.
func (s *Scheduler) NotifyItemAdded(householdID, excludeUserID int64, itemName string) {
	if !s.service.Configured() {
		return
	}

	subs, err := s.push.ListByHousehold(householdID)
	if err != nil {
		s.logger.Error("list subscriptions", "household_id", householdID, "error", err)
		return
	}

	payload := Payload{
		Title: "Shopping List Updated",
		Body:  fmt.Sprintf("%s was added to the shopping list", itemName),
		URL:   "/shopping",
		Tag:   "shopping-added",
	}

	for i := range subs {
		if subs[i].UserID != nil && *subs[i].UserID == excludeUserID {
			continue
		}
		s.sendOne(&subs[i], payload)
	}
}

func (s *Scheduler) broadcast(householdID int64, payload Payload) {
	subs, err := s.push.ListByHousehold(householdID)
	if err != nil {
		s.logger.Error("list subscriptions", "household_id", householdID, "error", err)
		return
	}
	for i := range subs {
		s.sendOne(&subs[i], payload)
	}
}

func (s *Scheduler) sendOne(sub *model.PushSubscription, payload Payload) {
	if err := s.service.Send(sub, payload); err != nil {
		if errors.Is(err, ErrExpired) {
			if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
				s.logger.Error("delete expired subscription", "error", err)
			}
			return
		}
		s.logger.Error("send notification", "error", err)
	}
}

func (s *Scheduler) alreadySent(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sent[key]
	return ok
}

func (s *Scheduler) markSent(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[key] = time.Now()
}

// pruneSent drops dedup entries older than a day.
func (s *Scheduler) pruneSent() {
	cutoff := time.Now().Add(-24 * time.Hour)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, at := range s.sent {
		if at.Before(cutoff) {
			delete(s.sent, key)
		}
	}
}
