package http_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/atinyakov/mockshare/internal/models"
	"github.com/atinyakov/mockshare/internal/service"
)

type MockMockupService struct {
	mock.Mock
}

func (m *MockMockupService) Create(ctx context.Context, content json.RawMessage, password string) (*models.Mockup, error) {
	args := m.Called(ctx, content, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mockup), args.Error(1)
}

func (m *MockMockupService) List(ctx context.Context) ([]models.MockupSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MockupSummary), args.Error(1)
}

func (m *MockMockupService) Authorize(ctx context.Context, id, password string) (*models.Mockup, error) {
	args := m.Called(ctx, id, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mockup), args.Error(1)
}

func (m *MockMockupService) Read(ctx context.Context, id, password, version string) (*models.ReadResult, error) {
	args := m.Called(ctx, id, password, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReadResult), args.Error(1)
}

func (m *MockMockupService) Update(ctx context.Context, id string, in service.UpdateInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockMockupService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) Add(ctx context.Context, mockupID string, in service.NewComment) (*models.Comment, error) {
	args := m.Called(ctx, mockupID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentService) List(ctx context.Context, mockupID string, version int) ([]models.Comment, error) {
	args := m.Called(ctx, mockupID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCommentService) Edit(ctx context.Context, mockupID, commentID, body, authorToken string) (*models.Comment, error) {
	args := m.Called(ctx, mockupID, commentID, body, authorToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentService) Resolve(ctx context.Context, mockupID, commentID string, resolved bool) error {
	return m.Called(ctx, mockupID, commentID, resolved).Error(0)
}

func (m *MockCommentService) Remove(ctx context.Context, mockupID, commentID, authorToken string, designer bool) error {
	return m.Called(ctx, mockupID, commentID, authorToken, designer).Error(0)
}

func (m *MockCommentService) RemoveAll(ctx context.Context, mockupID string) (int64, error) {
	args := m.Called(ctx, mockupID)
	return args.Get(0).(int64), args.Error(1)
}
