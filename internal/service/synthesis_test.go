package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/openai"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	mu       sync.Mutex
	calls    int
	messages []openai.ChatMessage
	respond  func(ctx context.Context) (string, error)
}

func (f *fakeChat) Complete(ctx context.Context, messages []openai.ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls++
	f.messages = messages
	f.mu.Unlock()
	return f.respond(ctx)
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestAnswerSynthesizer_Success(t *testing.T) {
	chat := &fakeChat{respond: func(context.Context) (string, error) {
		return "Dmitri Mendeleev created it in 1869.", nil
	}}
	synth := NewAnswerSynthesizer(chat, time.Second)

	answer := synth.Answer(context.Background(), "Who created the periodic table?", "Mendeleev published the table in 1869.")

	assert.Equal(t, domain.AnswerOutcomeSuccess, answer.Outcome)
	assert.Equal(t, "Dmitri Mendeleev created it in 1869.", answer.Text)
	assert.NoError(t, answer.Err)
	assert.False(t, answer.Degraded())

	require.Len(t, chat.messages, 2)
	assert.Equal(t, openai.RoleSystem, chat.messages[0].Role)
	assert.Contains(t, chat.messages[0].Content, "using only the information from the notes")
	assert.Equal(t, openai.RoleUser, chat.messages[1].Role)
	assert.Equal(t, "Notes:\nMendeleev published the table in 1869.\n\nQuestion: Who created the periodic table?", chat.messages[1].Content)
}

func TestAnswerSynthesizer_TimeoutAbandonsUnresponsiveBackend(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	chat := &fakeChat{respond: func(context.Context) (string, error) {
		<-release
		return "too late", nil
	}}
	synth := NewAnswerSynthesizer(chat, 50*time.Millisecond)
	content := strings.Repeat("x", 800)

	start := time.Now()
	answer := synth.Answer(context.Background(), "q", content)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, domain.AnswerOutcomeTimedOut, answer.Outcome)
	assert.True(t, answer.Degraded())
	assert.ErrorIs(t, answer.Err, context.DeadlineExceeded)
	assert.Equal(t, "Answer generation timed out. Here's the relevant note content:\n\n"+strings.Repeat("x", 500)+"...", answer.Text)
}

func TestAnswerSynthesizer_TimeoutReportedByBackend(t *testing.T) {
	chat := &fakeChat{respond: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	synth := NewAnswerSynthesizer(chat, 20*time.Millisecond)

	answer := synth.Answer(context.Background(), "q", "short notes")

	assert.Equal(t, domain.AnswerOutcomeTimedOut, answer.Outcome)
	assert.True(t, strings.HasSuffix(answer.Text, "short notes..."))
}

func TestAnswerSynthesizer_BackendError(t *testing.T) {
	chat := &fakeChat{respond: func(context.Context) (string, error) {
		return "", errors.New("model not found")
	}}
	synth := NewAnswerSynthesizer(chat, time.Second)

	answer := synth.Answer(context.Background(), "q", "Some notes")

	assert.Equal(t, domain.AnswerOutcomeErrored, answer.Outcome)
	assert.EqualError(t, answer.Err, "model not found")
	assert.Equal(t, "Error generating answer: model not found. Here's the relevant note content:\n\nSome notes...", answer.Text)
}

func TestAnswerSynthesizer_ExcerptCountsRunes(t *testing.T) {
	chat := &fakeChat{respond: func(context.Context) (string, error) {
		return "", errors.New("boom")
	}}
	synth := NewAnswerSynthesizer(chat, time.Second)
	content := strings.Repeat("ü", 600)

	answer := synth.Answer(context.Background(), "q", content)

	excerpt := strings.TrimPrefix(answer.Text, "Error generating answer: boom. Here's the relevant note content:\n\n")
	assert.True(t, utf8.ValidString(excerpt))
	assert.Equal(t, 503, utf8.RuneCountInString(excerpt))
}

func TestAnswerSynthesizer_ParentCancelledIsErrored(t *testing.T) {
	chat := &fakeChat{respond: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	synth := NewAnswerSynthesizer(chat, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	answer := synth.Answer(ctx, "q", "notes")

	assert.Equal(t, domain.AnswerOutcomeErrored, answer.Outcome)
	assert.ErrorIs(t, answer.Err, context.Canceled)
}

func TestAnswerSynthesizer_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	chat := &fakeChat{respond: func(context.Context) (string, error) {
		return "", errors.New("connection refused")
	}}
	synth := NewAnswerSynthesizer(chat, time.Second)

	for i := 0; i < 5; i++ {
		answer := synth.Answer(context.Background(), "q", "notes")
		require.Equal(t, domain.AnswerOutcomeErrored, answer.Outcome)
	}

	answer := synth.Answer(context.Background(), "q", "notes")

	assert.Equal(t, domain.AnswerOutcomeErrored, answer.Outcome)
	assert.ErrorIs(t, answer.Err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, chat.callCount())
}

func TestAnswerSynthesizer_CancelledCallersDoNotOpenCircuit(t *testing.T) {
	chat := &fakeChat{respond: func(ctx context.Context) (string, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return "Friday.", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	synth := NewAnswerSynthesizer(chat, time.Second)

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 6; i++ {
		answer := synth.Answer(gone, "q", "notes")
		require.Equal(t, domain.AnswerOutcomeErrored, answer.Outcome)
		require.ErrorIs(t, answer.Err, context.Canceled)
	}
	assert.Zero(t, chat.callCount(), "an already cancelled caller never reaches the model")

	for i := 0; i < 6; i++ {
		leaving, leave := context.WithCancel(context.Background())
		go func() {
			time.Sleep(2 * time.Millisecond)
			leave()
		}()
		answer := synth.Answer(leaving, "q", "notes")
		require.Equal(t, domain.AnswerOutcomeErrored, answer.Outcome)
		leave()
	}

	answer := synth.Answer(context.Background(), "q", "notes")

	assert.Equal(t, domain.AnswerOutcomeSuccess, answer.Outcome)
	assert.Equal(t, "Friday.", answer.Text)
	assert.Equal(t, gobreaker.StateClosed, synth.breaker.State())
}

func TestNewAnswerSynthesizer_DefaultTimeout(t *testing.T) {
	synth := NewAnswerSynthesizer(&fakeChat{}, 0)

	assert.Equal(t, DefaultGenerationTimeout, synth.Timeout())
}
