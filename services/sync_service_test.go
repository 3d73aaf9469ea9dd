package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"courtside/courtside/broker"
	"courtside/courtside/feed"
	"courtside/courtside/models"

	"github.com/stretchr/testify/assert"
)

type fakeFeedClient struct {
	mu        sync.Mutex
	live      []feed.GameRecord
	liveErr   error
	liveCalls int

	byTeamSeason map[string][]feed.GameRecord
	teamErr      map[string]error
}

func (f *fakeFeedClient) LiveGames(ctx context.Context) ([]feed.GameRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveCalls++
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return f.live, nil
}

func (f *fakeFeedClient) GamesByTeamSeason(ctx context.Context, teamID, season int) ([]feed.GameRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d/%d", teamID, season)
	if err := f.teamErr[key]; err != nil {
		return nil, err
	}
	return f.byTeamSeason[key], nil
}

func (f *fakeFeedClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveCalls
}

type publishedMessage struct {
	subject string
	payload interface{}
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *fakeProducer) Publish(subject string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{subject: subject, payload: payload})
	return nil
}

func (p *fakeProducer) Close() {}

func (p *fakeProducer) published() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage{}, p.messages...)
}

func newTestSyncService(feedClient FeedClientInterface, producer broker.Producer) (*LiveSyncService, *fakeEventStore) {
	store := newFakeEventStore()
	service := NewLiveSyncService(store, feedClient, NewReconcilerService(), producer, 30*time.Second)
	service.now = func() time.Time {
		return time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	}
	return service, store
}

func TestRunOnce_PublishesCreatedDelta(t *testing.T) {
	feedClient := &fakeFeedClient{
		live: []feed.GameRecord{liveRecord(201, "Lakers", "Celtics", 50, 48)},
	}
	producer := &fakeProducer{}
	service, store := newTestSyncService(feedClient, producer)

	count, err := service.RunOnce(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.events, 1)

	messages := producer.published()
	assert.Len(t, messages, 1)
	assert.Equal(t, broker.EventCreatedSubject, messages[0].subject)

	msg, ok := messages[0].payload.(*models.StandardMessage)
	assert.True(t, ok)
	assert.Equal(t, models.NewEventMessage, msg.Event)
	assert.NotEmpty(t, msg.EventID)
}

func TestRunOnce_UpdatePublishesScoreUpdate(t *testing.T) {
	record := liveRecord(202, "Heat", "Nets", 20, 18)
	feedClient := &fakeFeedClient{live: []feed.GameRecord{record}}
	producer := &fakeProducer{}
	service, _ := newTestSyncService(feedClient, producer)

	_, err := service.RunOnce(context.Background())
	assert.NoError(t, err)

	record.HomeScore = 24
	feedClient.mu.Lock()
	feedClient.live = []feed.GameRecord{record}
	feedClient.mu.Unlock()

	count, err := service.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	messages := producer.published()
	assert.Len(t, messages, 2)
	assert.Equal(t, broker.EventScoreUpdatedSubject, messages[1].subject)

	msg := messages[1].payload.(*models.StandardMessage)
	assert.Equal(t, models.ScoreUpdateMessage, msg.Event)
	assert.Equal(t, msg.EventID, msg.Payload["event_id"])
}

func TestRunOnce_StatusOnlyChangePublishesStatusUpdate(t *testing.T) {
	record := liveRecord(203, "Spurs", "Knicks", 99, 97)
	feedClient := &fakeFeedClient{live: []feed.GameRecord{record}}
	producer := &fakeProducer{}
	service, _ := newTestSyncService(feedClient, producer)

	_, err := service.RunOnce(context.Background())
	assert.NoError(t, err)

	record.Status = feed.FeedStatusFinished
	feedClient.mu.Lock()
	feedClient.live = []feed.GameRecord{record}
	feedClient.mu.Unlock()

	count, err := service.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	messages := producer.published()
	assert.Len(t, messages, 2)
	assert.Equal(t, broker.EventStatusUpdatedSubject, messages[1].subject)

	msg := messages[1].payload.(*models.StandardMessage)
	assert.Equal(t, models.StatusUpdateMessage, msg.Event)
	assert.Equal(t, string(models.StatusCompleted), string(msg.Payload["status"].(models.EventStatus)))
}

func TestRunOnce_FeedUnavailableBacksOff(t *testing.T) {
	feedClient := &fakeFeedClient{liveErr: fmt.Errorf("%w: timeout", feed.ErrFeedUnavailable)}
	service, _ := newTestSyncService(feedClient, nil)

	assert.Equal(t, 30*time.Second, service.nextInterval())

	for i := 0; i < 2; i++ {
		_, err := service.RunOnce(context.Background())
		assert.ErrorIs(t, err, feed.ErrFeedUnavailable)
	}
	assert.Equal(t, 2*time.Minute, service.nextInterval())

	// Backoff never exceeds the cap.
	for i := 0; i < 10; i++ {
		service.RunOnce(context.Background())
	}
	assert.Equal(t, 4*time.Minute, service.nextInterval())

	// A successful pass resets the schedule.
	feedClient.mu.Lock()
	feedClient.liveErr = nil
	feedClient.mu.Unlock()
	_, err := service.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, service.nextInterval())
}

func TestRunOnce_NonFeedErrorDoesNotBackOff(t *testing.T) {
	feedClient := &fakeFeedClient{liveErr: errors.New("bad json")}
	service, _ := newTestSyncService(feedClient, nil)

	_, err := service.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 30*time.Second, service.nextInterval())
}

func TestStartStop_Lifecycle(t *testing.T) {
	feedClient := &fakeFeedClient{}
	service, _ := newTestSyncService(feedClient, nil)
	service.interval = 10 * time.Millisecond
	service.maxBackoff = 80 * time.Millisecond

	service.Start()
	// Starting twice must not spawn a second loop.
	service.Start()

	time.Sleep(35 * time.Millisecond)
	service.Stop()
	stoppedAt := feedClient.calls()
	assert.GreaterOrEqual(t, stoppedAt, 2)

	// No passes run after Stop returns.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stoppedAt, feedClient.calls())

	// A stopped service can be started again.
	service.Start()
	time.Sleep(15 * time.Millisecond)
	service.Stop()
	assert.Greater(t, feedClient.calls(), stoppedAt)
}

func TestSyncTeamSeasons_DeduplicatesAcrossFetches(t *testing.T) {
	shared := liveRecord(301, "Lakers", "Celtics", 100, 90)
	feedClient := &fakeFeedClient{
		byTeamSeason: map[string][]feed.GameRecord{
			"1/2025": {shared, liveRecord(302, "Lakers", "Suns", 90, 80)},
			"2/2025": {shared, liveRecord(303, "Celtics", "Bulls", 85, 88)},
		},
	}
	service, store := newTestSyncService(feedClient, nil)

	count, err := service.SyncTeamSeasons(context.Background(), []int{1, 2}, []int{2025})

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, store.events, 3)
}

func TestSyncTeamSeasons_SkipsFailedFetch(t *testing.T) {
	feedClient := &fakeFeedClient{
		byTeamSeason: map[string][]feed.GameRecord{
			"2/2025": {liveRecord(304, "Raptors", "Knicks", 70, 72)},
		},
		teamErr: map[string]error{
			"1/2025": fmt.Errorf("%w: rate limited", feed.ErrFeedUnavailable),
		},
	}
	service, store := newTestSyncService(feedClient, nil)

	count, err := service.SyncTeamSeasons(context.Background(), []int{1, 2}, []int{2025})

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.events, 1)
}
