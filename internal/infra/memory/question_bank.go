package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-buzzer-service/internal/domain"
)

// QuestionLoader fetches question content from a backing store (e.g., document DB).
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id string) (domain.Question, error)
}

// QuestionBank caches questions with TTL to avoid repeated backing-store
// hits, and validates records at the boundary so malformed questions never
// reach a runner.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestion),
	}
}

// FetchByIDs returns questions in the order of ids. Any missing or invalid
// record fails the whole fetch; the caller treats that as fatal.
func (b *QuestionBank) FetchByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		q, err := b.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (b *QuestionBank) fetch(ctx context.Context, id string) (domain.Question, error) {
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[id]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry.question, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(id, func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[id]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.question, nil
		}
		b.mu.RUnlock()

		q, err := b.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		if err := ValidateQuestion(q); err != nil {
			return domain.Question{}, err
		}

		b.mu.Lock()
		b.cache[id] = cachedQuestion{
			question:  q,
			expiresAt: now.Add(b.ttlWithJitter()),
		}
		b.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// ValidateQuestion enforces the bank-boundary contract: non-empty text and
// answer, and between one and three distractors.
func ValidateQuestion(q domain.Question) error {
	if q.Text == "" || q.Answer == "" {
		return fmt.Errorf("%w: %s: empty text or answer", domain.ErrInvalidQuestion, q.ID)
	}
	if len(q.Distractors) < 1 || len(q.Distractors) > 3 {
		return fmt.Errorf("%w: %s: need 1-3 distractors, got %d", domain.ErrInvalidQuestion, q.ID, len(q.Distractors))
	}
	return nil
}

// StaticQuestionLoader is a simple loader backed by an in-memory map
// (useful for tests/demos).
type StaticQuestionLoader struct {
	questions map[string]domain.Question
}

func NewStaticQuestionLoader(questions map[string]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestion(_ context.Context, id string) (domain.Question, error) {
	if q, ok := l.questions[id]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}
