package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RevealScheduler paces word-by-word disclosure of question text, one word
// every 60/wpm seconds. It is the only producer of reveal counts; the
// runner observes them through the onReveal callback. Stop is synchronous
// and idempotent; a stopped scheduler never delivers another count.
type RevealScheduler struct {
	clock    clockwork.Clock
	interval time.Duration
	total    int
	onReveal func(n int)

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// StartReveal launches the reveal loop for a question of totalWords words.
// The first word becomes visible one interval after start.
func StartReveal(clock clockwork.Clock, totalWords, wordsPerMinute int, onReveal func(n int)) *RevealScheduler {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	r := &RevealScheduler{
		clock:    clock,
		interval: time.Minute / time.Duration(wordsPerMinute),
		total:    totalWords,
		onReveal: onReveal,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *RevealScheduler) run() {
	defer close(r.doneCh)
	if r.total <= 0 {
		return
	}
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	for n := 1; n <= r.total; n++ {
		select {
		case <-r.stopCh:
			return
		case <-ticker.Chan():
			r.onReveal(n)
		}
	}
}

// Stop cancels the reveal and waits for the loop to exit, so no reveal
// callback can land after Stop returns. Stopping twice is a no-op.
func (r *RevealScheduler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

// Done is closed once all words are revealed or the scheduler is stopped.
func (r *RevealScheduler) Done() <-chan struct{} {
	return r.doneCh
}

func splitWords(text string) []string {
	return strings.Fields(text)
}
