// Package scheduler runs delayed notification chains, one goroutine per chain.
//
// A chain is an ordered list of steps. Each step waits for its delay, then runs.
// A failing step aborts the rest of the chain; there is no retry.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"Sobaken/internal/lib/sl"
	"Sobaken/internal/metrics"

	"github.com/google/uuid"
)

var (
	// ErrChainActive is returned when a chat already has a running chain.
	ErrChainActive = errors.New("chain already active for chat")
	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("scheduler stopped")
	// ErrEmptyChain is returned for a chain without steps.
	ErrEmptyChain = errors.New("chain has no steps")
)

// Step is one delayed unit of a chain.
type Step struct {
	Name  string
	Delay time.Duration
	Run   func(ctx context.Context) error
}

// ChainInfo describes a running chain.
type ChainInfo struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Step      string    `json:"step"`
	StepIndex int       `json:"step_index"`
	Steps     int       `json:"steps"`
	StartedAt time.Time `json:"started_at"`
	NextAt    time.Time `json:"next_at"`
}

type chain struct {
	info  ChainInfo
	steps []Step
}

type chainIDKey struct{}

// ChainID returns the id of the chain running the current step, if any.
func ChainID(ctx context.Context) string {
	id, _ := ctx.Value(chainIDKey{}).(string)
	return id
}

type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	chains  map[string]*chain
	stopped bool

	log *slog.Logger
}

func New(log *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		chains: make(map[string]*chain),
		log:    log.With(sl.Module("scheduler")),
	}
}

// StartChain runs steps in order in a new goroutine and returns the chain id.
func (s *Scheduler) StartChain(chatID string, steps []Step) (string, error) {
	if len(steps) == 0 {
		return "", ErrEmptyChain
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return "", ErrStopped
	}
	if _, ok := s.chains[chatID]; ok {
		return "", fmt.Errorf("%w: %s", ErrChainActive, chatID)
	}

	now := time.Now()
	c := &chain{
		info: ChainInfo{
			ID:        uuid.NewString(),
			ChatID:    chatID,
			Step:      steps[0].Name,
			Steps:     len(steps),
			StartedAt: now,
			NextAt:    now.Add(steps[0].Delay),
		},
		steps: steps,
	}
	s.chains[chatID] = c
	s.wg.Add(1)
	metrics.RecordChainStarted()

	go s.run(c)

	s.log.Debug("chain started",
		slog.String("chat_id", chatID),
		slog.String("chain_id", c.info.ID),
		slog.Int("steps", len(steps)),
	)
	return c.info.ID, nil
}

// After runs fn once after delay. It is not a chain and is not tracked by Active.
func (s *Scheduler) After(chatID string, delay time.Duration, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		if !s.sleep(delay) {
			return
		}
		if err := fn(s.ctx); err != nil {
			s.log.Warn("deferred action failed", slog.String("chat_id", chatID), sl.Err(err))
		}
	}()
	return nil
}

// Active reports whether chatID has a running chain.
func (s *Scheduler) Active(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.chains[chatID]
	return ok
}

// Get returns the running chain of chatID.
func (s *Scheduler) Get(chatID string) (ChainInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chains[chatID]
	if !ok {
		return ChainInfo{}, false
	}
	return c.info, true
}

// List returns every running chain.
func (s *Scheduler) List() []ChainInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]ChainInfo, 0, len(s.chains))
	for _, c := range s.chains {
		result = append(result, c.info)
	}
	return result
}

// Stop cancels every pending step and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	count := len(s.chains)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped", slog.Int("cancelled_chains", count))
}

func (s *Scheduler) run(c *chain) {
	defer s.wg.Done()
	defer s.finish(c)

	ctx := context.WithValue(s.ctx, chainIDKey{}, c.info.ID)
	log := s.log.With(
		slog.String("chat_id", c.info.ChatID),
		slog.String("chain_id", c.info.ID),
	)

	for i, step := range c.steps {
		s.mu.Lock()
		c.info.Step = step.Name
		c.info.StepIndex = i
		c.info.NextAt = time.Now().Add(step.Delay)
		s.mu.Unlock()

		if !s.sleep(step.Delay) {
			metrics.RecordChainAborted("shutdown")
			log.Debug("chain cancelled", slog.String("step", step.Name))
			return
		}

		if err := step.Run(ctx); err != nil {
			metrics.RecordChainAborted("step_failed")
			log.Error("chain aborted", slog.String("step", step.Name), sl.Err(err))
			return
		}
		metrics.RecordChainStep(step.Name)
	}

	log.Debug("chain completed")
}

func (s *Scheduler) finish(c *chain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.chains[c.info.ChatID]; ok && cur == c {
		delete(s.chains, c.info.ChatID)
	}
	metrics.RecordChainFinished()
}

// sleep waits for d and reports false if the scheduler was stopped first.
func (s *Scheduler) sleep(d time.Duration) bool {
	if d <= 0 {
		return s.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
