package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/openai"
	"github.com/cloo-solutions/notesqa/internal/telemetry"
	"github.com/sony/gobreaker"
)

const (
	// DefaultGenerationTimeout bounds a single chat completion
	DefaultGenerationTimeout = 60 * time.Second
	// DefaultExcerptLength is the number of characters of note content returned
	// when the model cannot answer
	DefaultExcerptLength = 500

	systemPrompt = "You are a helpful assistant that answers questions based on the provided study notes. " +
		"Answer the question accurately using only the information from the notes."
	timeoutPrefix = "Answer generation timed out. Here's the relevant note content:\n\n"
	errorFormat   = "Error generating answer: %v. Here's the relevant note content:\n\n"
)

// ChatClient defines the interface for the generative model
type ChatClient interface {
	Complete(ctx context.Context, messages []openai.ChatMessage) (string, error)
}

type completion struct {
	text string
	err  error
}

// AnswerSynthesizer turns a question and document content into an answer.
// Model calls are bounded by a deadline and pass through a circuit breaker;
// whatever happens, callers get text back.
type AnswerSynthesizer struct {
	chat          ChatClient
	timeout       time.Duration
	excerptLength int
	breaker       *gobreaker.CircuitBreaker
}

// NewAnswerSynthesizer creates a synthesizer. A non-positive timeout uses DefaultGenerationTimeout.
func NewAnswerSynthesizer(chat ChatClient, timeout time.Duration) *AnswerSynthesizer {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ChatModel",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller hanging up says nothing about the model's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &AnswerSynthesizer{
		chat:          chat,
		timeout:       timeout,
		excerptLength: DefaultExcerptLength,
		breaker:       breaker,
	}
}

// Timeout returns the generation deadline.
func (s *AnswerSynthesizer) Timeout() time.Duration {
	return s.timeout
}

// Answer asks the chat model to answer question using only content. It never
// fails: a missed deadline yields a TimedOut answer and any other failure an
// Errored answer, both carrying an excerpt of content.
func (s *AnswerSynthesizer) Answer(ctx context.Context, question, content string) domain.Answer {
	ctx, span := telemetry.StartSpan(ctx, "AnswerSynthesizer.Answer", telemetry.SpanAttributes{
		Operation: "synthesize",
	})
	defer span.End()

	answer := s.generate(ctx, question, content)
	span.SetTag("answer.outcome", string(answer.Outcome))
	return answer
}

func (s *AnswerSynthesizer) generate(ctx context.Context, question, content string) domain.Answer {
	messages := []openai.ChatMessage{
		{Role: openai.RoleSystem, Content: systemPrompt},
		{Role: openai.RoleUser, Content: fmt.Sprintf("Notes:\n%s\n\nQuestion: %s", content, question)},
	}

	if err := ctx.Err(); err != nil {
		return s.errored(ctx, content, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Buffered so an abandoned call can still deliver and exit.
	results := make(chan completion, 1)
	go func() {
		out, err := s.breaker.Execute(func() (interface{}, error) {
			return s.chat.Complete(callCtx, messages)
		})
		text, _ := out.(string)
		results <- completion{text: text, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return s.timedOut(ctx, content)
			}
			return s.errored(ctx, content, res.err)
		}
		return domain.Answer{Outcome: domain.AnswerOutcomeSuccess, Text: res.text}
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return s.errored(ctx, content, err)
		}
		return s.timedOut(ctx, content)
	}
}

func (s *AnswerSynthesizer) timedOut(ctx context.Context, content string) domain.Answer {
	telemetry.AddBreadcrumb(ctx, "synthesis", "answer generation timed out")
	return domain.Answer{
		Outcome: domain.AnswerOutcomeTimedOut,
		Text:    timeoutPrefix + s.excerpt(content),
		Err:     context.DeadlineExceeded,
	}
}

func (s *AnswerSynthesizer) errored(ctx context.Context, content string, err error) domain.Answer {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		telemetry.AddBreadcrumb(ctx, "synthesis", "chat model circuit open")
	} else {
		telemetry.CaptureError(ctx, err)
	}
	return domain.Answer{
		Outcome: domain.AnswerOutcomeErrored,
		Text:    fmt.Sprintf(errorFormat, err) + s.excerpt(content),
		Err:     err,
	}
}

// excerpt returns the first excerptLength characters of content followed by an ellipsis.
func (s *AnswerSynthesizer) excerpt(content string) string {
	runes := []rune(content)
	if len(runes) > s.excerptLength {
		runes = runes[:s.excerptLength]
	}
	return string(runes) + "..."
}
