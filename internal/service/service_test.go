package service

import (
	"context"
	"os"
	"sync"
	"testing"

	"foodshare/internal/auth"
	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/repository"
	"foodshare/internal/repository/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type sentEvent struct {
	userID uint
	event  notifications.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recordingNotifier) PublishUser(_ context.Context, userID uint, event notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{userID: userID, event: event})
	return nil
}

func (r *recordingNotifier) sent() []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentEvent(nil), r.events...)
}

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func TestNotify_NilNotifierIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		notify(context.Background(), orNoop(nil), 1, notifications.EventMessageCreated, nil)
	})
}
