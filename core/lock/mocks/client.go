package mocks

import (
	"context"
	"time"

	"locksync/core/lock"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of lock.Client
type Client struct {
	mock.Mock
}

func (m *Client) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Client) AddCode(ctx context.Context, code, name string, begin, end time.Time) error {
	args := m.Called(ctx, code, name, begin, end)
	return args.Error(0)
}

func (m *Client) ListCodesByOwnerTag(ctx context.Context, tag string) ([]lock.CodeRecord, error) {
	args := m.Called(ctx, tag)
	if recs, ok := args.Get(0).([]lock.CodeRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) FindCodeByValue(ctx context.Context, code string) (*lock.CodeRecord, error) {
	args := m.Called(ctx, code)
	if rec, ok := args.Get(0).(*lock.CodeRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) DeleteCode(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
