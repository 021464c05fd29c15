package mocks

import (
	"context"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Helper()
	Cleanup(func())
}

// MockSceneGenerator is a mock type for the SceneGenerator type
type MockSceneGenerator struct {
	mock.Mock
}

// IsConfigured provides a mock function with given fields:
func (_m *MockSceneGenerator) IsConfigured() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// GenerateNextScene provides a mock function with given fields: ctx, priorContext, action, morale, power
func (_m *MockSceneGenerator) GenerateNextScene(ctx context.Context, priorContext string, action string, morale float64, power float64) (*models.GameScene, error) {
	ret := _m.Called(ctx, priorContext, action, morale, power)

	var r0 *models.GameScene
	if rf, ok := ret.Get(0).(func(context.Context, string, string, float64, float64) *models.GameScene); ok {
		r0 = rf(ctx, priorContext, action, morale, power)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GameScene)
	}

	return r0, ret.Error(1)
}

// NewMockSceneGenerator creates a new instance of MockSceneGenerator and asserts its expectations on cleanup.
func NewMockSceneGenerator(t testingT) *MockSceneGenerator {
	m := &MockSceneGenerator{}
	m.Mock.Test(t)
	t.Helper()
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockImageGenerator is a mock type for the ImageGenerator type
type MockImageGenerator struct {
	mock.Mock
}

// IsConfigured provides a mock function with given fields:
func (_m *MockImageGenerator) IsConfigured() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// GenerateSceneImage provides a mock function with given fields: ctx, prompt, isInitial
func (_m *MockImageGenerator) GenerateSceneImage(ctx context.Context, prompt string, isInitial bool) (string, error) {
	ret := _m.Called(ctx, prompt, isInitial)
	return ret.String(0), ret.Error(1)
}

// NewMockImageGenerator creates a new instance of MockImageGenerator and asserts its expectations on cleanup.
func NewMockImageGenerator(t testingT) *MockImageGenerator {
	m := &MockImageGenerator{}
	m.Mock.Test(t)
	t.Helper()
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockVoiceSynthesizer is a mock type for the VoiceSynthesizer type
type MockVoiceSynthesizer struct {
	mock.Mock
}

// SpeakLine provides a mock function with given fields: ctx, text
func (_m *MockVoiceSynthesizer) SpeakLine(ctx context.Context, text string) ([]byte, error) {
	ret := _m.Called(ctx, text)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}

// AudioFormat provides a mock function with given fields:
func (_m *MockVoiceSynthesizer) AudioFormat() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockVoiceSynthesizer creates a new instance of MockVoiceSynthesizer and asserts its expectations on cleanup.
func NewMockVoiceSynthesizer(t testingT) *MockVoiceSynthesizer {
	m := &MockVoiceSynthesizer{}
	m.Mock.Test(t)
	t.Helper()
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var (
	_ interfaces.SceneGenerator   = (*MockSceneGenerator)(nil)
	_ interfaces.ImageGenerator   = (*MockImageGenerator)(nil)
	_ interfaces.VoiceSynthesizer = (*MockVoiceSynthesizer)(nil)
)
