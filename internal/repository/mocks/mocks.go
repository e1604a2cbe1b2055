package mocks

import (
	"context"
	"time"

	"github.com/rpggio/datapad/internal/domain/activity"
	"github.com/rpggio/datapad/internal/domain/character"
	"github.com/rpggio/datapad/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		// Hand out a copy so callers can't mutate the fixture between calls.
		cp := *sess
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, sess *session.Session, expectedVersion int64) error {
	args := m.Called(ctx, sess, expectedVersion)
	return args.Error(0)
}

func (m *SessionRepository) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// CharacterSource is a mock for navigator.Source.
type CharacterSource struct {
	mock.Mock
}

func (m *CharacterSource) Fetch(ctx context.Context, id int) (*character.Character, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*character.Character); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CharacterSource) FetchAll(ctx context.Context) ([]character.Character, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]character.Character); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
