// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"storyreel/internal/types"

	"github.com/stretchr/testify/mock"
)

// MockNarrationAnalyzer is a mock implementation of types.NarrationAnalyzer
type MockNarrationAnalyzer struct {
	mock.Mock
}

func (m *MockNarrationAnalyzer) AnalyzeNarration(ctx context.Context, audio []byte, mimeType string) ([]types.SegmentDraft, error) {
	args := m.Called(ctx, audio, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SegmentDraft), args.Error(1)
}
