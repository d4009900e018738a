package ai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"arqv-backend/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name     string
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeProvider) Test(ctx context.Context) error { return f.err }

func longResponse() string {
	return strings.Repeat("market insight. ", 64)
}

func TestGenerateUsesFirstProvider(t *testing.T) {
	primary := &fakeProvider{name: "gemini", response: longResponse()}
	fallback := &fakeProvider{name: "groq", response: longResponse()}
	manager := ai.NewManager(primary, fallback)

	text, provider, err := manager.Generate(context.Background(), "prompt", 1024)
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider)
	assert.Equal(t, primary.response, text)
	assert.Zero(t, fallback.calls)
}

func TestGenerateFallsBackOnError(t *testing.T) {
	primary := &fakeProvider{name: "gemini", err: errors.New("quota exceeded")}
	fallback := &fakeProvider{name: "groq", response: longResponse()}
	manager := ai.NewManager(primary, fallback)

	_, provider, err := manager.Generate(context.Background(), "prompt", 1024)
	require.NoError(t, err)
	assert.Equal(t, "groq", provider)
}

func TestGenerateFallsBackOnShortResponse(t *testing.T) {
	primary := &fakeProvider{name: "gemini", response: "too short"}
	fallback := &fakeProvider{name: "groq", response: longResponse()}
	manager := ai.NewManager(primary, fallback)

	_, provider, err := manager.Generate(context.Background(), "prompt", 1024)
	require.NoError(t, err)
	assert.Equal(t, "groq", provider)
}

func TestGenerateAllFail(t *testing.T) {
	primary := &fakeProvider{name: "gemini", err: errors.New("down")}
	fallback := &fakeProvider{name: "groq", err: errors.New("also down")}
	manager := ai.NewManager(primary, fallback)

	_, _, err := manager.Generate(context.Background(), "prompt", 1024)
	assert.Error(t, err)
}

func TestFailingProviderGetsDisabled(t *testing.T) {
	primary := &fakeProvider{name: "gemini", err: errors.New("down")}
	fallback := &fakeProvider{name: "groq", response: longResponse()}
	manager := ai.NewManager(primary, fallback)

	for i := 0; i < 3; i++ {
		_, _, err := manager.Generate(context.Background(), "prompt", 1024)
		require.NoError(t, err)
	}

	assert.False(t, manager.Status()["gemini"])
	assert.True(t, manager.Status()["groq"])

	callsBefore := primary.calls
	_, provider, err := manager.Generate(context.Background(), "prompt", 1024)
	require.NoError(t, err)
	assert.Equal(t, "groq", provider)
	assert.Equal(t, callsBefore, primary.calls)

	manager.ResetErrors()
	assert.True(t, manager.Status()["gemini"])
}

func TestValidateReportsPerProvider(t *testing.T) {
	primary := &fakeProvider{name: "gemini"}
	fallback := &fakeProvider{name: "groq", err: errors.New("bad key")}
	manager := ai.NewManager(primary, fallback)

	results := manager.Validate(context.Background())
	assert.Equal(t, "OK", results["gemini"])
	assert.Contains(t, results["groq"], "ERROR")
}
