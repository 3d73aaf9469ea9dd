package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"courtside/courtside/broker"
	"courtside/courtside/feed"
	"courtside/courtside/models"
)

// FeedClientInterface abstracts the upstream sports API client so the
// scheduler can be tested against a fake feed.
type FeedClientInterface interface {
	LiveGames(ctx context.Context) ([]feed.GameRecord, error)
	GamesByTeamSeason(ctx context.Context, teamID int, season int) ([]feed.GameRecord, error)
}

type LiveSyncServiceInterface interface {
	Start()
	Stop()
	RunOnce(ctx context.Context) (int, error)
	SyncTeamSeasons(ctx context.Context, teams []int, seasons []int) (int, error)
}

type syncState int

const (
	syncIdle syncState = iota
	syncRunning
	syncStopped
)

// LiveSyncService drives the recurring reconciliation loop. Passes are
// strictly serialized: the timer is re-armed only after a pass completes, so
// a slow upstream call can never cause overlapping passes.
type LiveSyncService struct {
	store      EventStoreInterface
	feedClient FeedClientInterface
	reconciler ReconcilerServiceInterface
	producer   broker.Producer
	sport      models.Sport
	interval   time.Duration
	maxBackoff time.Duration

	mu     sync.Mutex
	state  syncState
	cancel context.CancelFunc
	done   chan struct{}

	passMu   sync.Mutex
	failures int

	now func() time.Time
}

func NewLiveSyncService(store EventStoreInterface, feedClient FeedClientInterface, reconciler ReconcilerServiceInterface, producer broker.Producer, interval time.Duration) *LiveSyncService {
	return &LiveSyncService{
		store:      store,
		feedClient: feedClient,
		reconciler: reconciler,
		producer:   producer,
		sport:      models.Basketball,
		interval:   interval,
		maxBackoff: 8 * interval,
		state:      syncIdle,
		now:        time.Now,
	}
}

// Start fires an immediate pass and then keeps re-arming the timer until
// Stop is called. Calling Start on a running service is a no-op; a stopped
// service may be started again.
func (s *LiveSyncService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == syncRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = syncRunning
	s.failures = 0

	go s.run(ctx)
	log.Println("Live sync service started")
}

// Stop cancels the pending timer and waits for any in-flight pass to finish.
func (s *LiveSyncService) Stop() {
	s.mu.Lock()
	if s.state != syncRunning {
		s.mu.Unlock()
		return
	}
	s.state = syncStopped
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	log.Println("Live sync service stopped")
}

func (s *LiveSyncService) run(ctx context.Context) {
	defer close(s.done)

	if _, err := s.RunOnce(ctx); err != nil {
		log.Printf("Live sync pass failed: %v", err)
	}

	timer := time.NewTimer(s.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				log.Printf("Live sync pass failed: %v", err)
			}
			timer.Reset(s.nextInterval())
		}
	}
}

// nextInterval applies capped exponential backoff after consecutive feed
// failures and returns to the base interval on success.
func (s *LiveSyncService) nextInterval() time.Duration {
	s.passMu.Lock()
	failures := s.failures
	s.passMu.Unlock()

	interval := s.interval
	for i := 0; i < failures; i++ {
		interval *= 2
		if interval >= s.maxBackoff {
			return s.maxBackoff
		}
	}
	return interval
}

// RunOnce performs a single run-to-completion reconciliation pass against the
// live games feed and publishes the resulting deltas. It returns the number
// of deltas applied.
func (s *LiveSyncService) RunOnce(ctx context.Context) (int, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	records, err := s.feedClient.LiveGames(ctx)
	if err != nil {
		if errors.Is(err, feed.ErrFeedUnavailable) {
			s.failures++
			log.Printf("Feed unavailable, skipping this pass (consecutive failures: %d)", s.failures)
			return 0, err
		}
		return 0, err
	}
	s.failures = 0

	deltas := s.reconciler.Reconcile(s.store, s.sport, records, s.now())
	s.publishDeltas(deltas)

	if len(deltas) > 0 {
		log.Printf("Live sync pass applied %d deltas across %d feed records", len(deltas), len(records))
	}
	return len(deltas), nil
}

// SyncTeamSeasons ingests historical and upcoming games for the given teams
// and seasons, deduplicating by upstream game id across fetches. Per-team
// fetch failures are logged and skipped so one rate-limited call does not
// abort the backfill.
func (s *LiveSyncService) SyncTeamSeasons(ctx context.Context, teams []int, seasons []int) (int, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	seen := make(map[int64]bool)
	var all []feed.GameRecord

	for _, season := range seasons {
		for _, team := range teams {
			if err := ctx.Err(); err != nil {
				return 0, err
			}

			records, err := s.feedClient.GamesByTeamSeason(ctx, team, season)
			if err != nil {
				log.Printf("Error fetching games for team %d season %d: %v", team, season, err)
				continue
			}
			for _, record := range records {
				if record.ExternalID != 0 && seen[record.ExternalID] {
					continue
				}
				seen[record.ExternalID] = true
				all = append(all, record)
			}
		}
	}

	deltas := s.reconciler.Reconcile(s.store, s.sport, all, s.now())
	s.publishDeltas(deltas)

	log.Printf("Backfill sync applied %d deltas across %d unique games", len(deltas), len(all))
	return len(deltas), nil
}

// publishDeltas sends one broker message per reconciliation delta.
func (s *LiveSyncService) publishDeltas(deltas []Delta) {
	if s.producer == nil {
		return
	}
	for _, delta := range deltas {
		var subject string
		var msg *models.StandardMessage

		switch delta.Kind {
		case DeltaCreated:
			subject = broker.EventCreatedSubject
			msg = models.NewStandardMessage(models.EventMessage, models.NewEventMessage, map[string]interface{}{
				"event": delta.Event,
			})
		case DeltaStatusChanged:
			subject = broker.EventStatusUpdatedSubject
			msg = models.NewStandardMessage(models.EventMessage, models.StatusUpdateMessage, map[string]interface{}{
				"event_id": delta.EventID.String(),
				"status":   delta.Event.Status,
			})
		default:
			subject = broker.EventScoreUpdatedSubject
			msg = models.NewStandardMessage(models.EventMessage, models.ScoreUpdateMessage, map[string]interface{}{
				"event_id": delta.EventID.String(),
				"team1":    delta.Event.Team1,
				"team2":    delta.Event.Team2,
				"status":   delta.Event.Status,
				"history":  delta.Event.History,
			})
		}
		msg.WithEventID(delta.EventID.String())

		if err := s.producer.Publish(subject, msg); err != nil {
			log.Printf("Failed to publish delta for event %s: %v", delta.EventID, err)
		}
	}
}

var LiveSyncServiceInstance LiveSyncServiceInterface
