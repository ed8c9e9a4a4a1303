package reminder

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	err = db.AutoMigrate(&model.Customer{}, &model.RecurrenceRule{}, &model.Visit{}, &model.PushSubscription{})
	require.NoError(t, err)
	return db
}

func seedVisit(t *testing.T, db *gorm.DB, date time.Time) model.Visit {
	t.Helper()
	customer := model.Customer{Name: "Smith", Address: "12 Oak Lane"}
	require.NoError(t, db.Create(&customer).Error)

	v := model.Visit{
		CustomerID:  customer.ID,
		Date:        date,
		Status:      model.VisitScheduled,
		Billable:    true,
		WindowStart: "08:00",
		WindowEnd:   "12:00",
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newTestDB(t), &webpush.Options{})

	wp.Dispatch(123)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsReminder(t *testing.T) {
	db := newTestDB(t)
	tomorrow := time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)
	v := seedVisit(t, db, tomorrow)

	sub := model.PushSubscription{Endpoint: "https://example.com/push", P256DH: "test_p256dh", Auth: "test_auth"}
	require.NoError(t, db.Create(&sub).Error)

	wp := NewWorkerPool(1, db, &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, target *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://example.com/push", target.Endpoint)
			assert.Equal(t, "Visit tomorrow: Smith, 08:00–12:00", string(payload))
			wg.Done()
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(v.ID)
	wg.Wait()
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newTestDB(t)
	tomorrow := time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC)
	v := seedVisit(t, db, tomorrow)

	sub := model.PushSubscription{Endpoint: "https://example.com/expired", P256DH: "p", Auth: "a"}
	require.NoError(t, db.Create(&sub).Error)

	wp := NewWorkerPool(1, db, &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, target *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer wg.Done()
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(v.ID)
	wg.Wait()

	// Allow the delete following the 410 response to land.
	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&model.PushSubscription{}).Count(&count)
		return count == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSweepOnceDispatchesTomorrowOnce(t *testing.T) {
	db := newTestDB(t)
	today := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	tomorrowVisit := seedVisit(t, db, today.AddDate(0, 0, 1))
	// A visit further out must not be picked up.
	later := model.Visit{
		CustomerID:  tomorrowVisit.CustomerID,
		Date:        today.AddDate(0, 0, 8),
		Status:      model.VisitScheduled,
		Billable:    true,
		WindowStart: "08:00",
		WindowEnd:   "12:00",
	}
	require.NoError(t, db.Create(&later).Error)

	wp := NewWorkerPool(4, db, &webpush.Options{})
	sweeper := NewSweeper(&config.ReminderConfig{Enabled: true}, store.NewGormStore(db), wp)
	sweeper.now = func() time.Time { return today }

	sweeper.SweepOnce(context.Background())

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, tomorrowVisit.ID, job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for the sweep to dispatch")
	}

	// A second sweep within the same process stays quiet.
	sweeper.SweepOnce(context.Background())
	select {
	case job := <-wp.Jobs():
		t.Fatalf("unexpected duplicate dispatch for visit %d", job)
	case <-time.After(50 * time.Millisecond):
	}
}
