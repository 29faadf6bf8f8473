package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"codecollab/internal/common"
	"codecollab/internal/platform/judge"
	"codecollab/internal/platform/metrics"

	"github.com/redis/go-redis/v9"
)

// ExecutionResult is the normalized outcome handed back to the caller. The
// job itself is ephemeral: nothing is persisted. A non-terminal Status means
// polling ran out of attempts and this is the last observed snapshot.
type ExecutionResult struct {
	Output string  `json:"output"`
	Status string  `json:"status"`
	Time   *string `json:"time,omitempty"`
	Memory *int    `json:"memory,omitempty"`
}

// NoOutput is returned when the judge produced neither stdout, stderr nor
// compile output.
const NoOutput = "No output"

// ExecutionService drives one job through the external judge: submit, poll
// until a terminal status or the attempt bound, normalize. Each call blocks
// only its own request goroutine; there is no shared mutable state, so any
// number of polling loops run concurrently.
type ExecutionService struct {
	client      judge.Client
	cache       *redis.Client // optional; nil disables result caching
	interval    time.Duration
	maxAttempts int
	cacheTTL    time.Duration

	// sleep is the wait between polls, injectable so tests run on a fake clock.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutionService(client judge.Client, cache *redis.Client, interval time.Duration, maxAttempts int, cacheTTL time.Duration) *ExecutionService {
	return &ExecutionService{
		client:      client,
		cache:       cache,
		interval:    interval,
		maxAttempts: maxAttempts,
		cacheTTL:    cacheTTL,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs one execution request end to end.
//
// Failure semantics: an unknown language fails fast before any network call;
// a failed submit surfaces as ErrSubmissionFailed and is not retried here; a
// transport failure while polling surfaces as ErrExecutionFailed with no
// partial result. Exhausting the poll attempts is not an error: the caller
// receives the last observed snapshot and recognizes the timeout from its
// non-terminal status description.
func (s *ExecutionService) Execute(ctx context.Context, code, languageID, stdin string) (*ExecutionResult, error) {
	langCode, err := judge.ResolveLanguage(languageID)
	if err != nil {
		metrics.ExecutionsTotal.WithLabelValues("unsupported_language").Inc()
		return nil, err
	}

	cacheKey := resultCacheKey(languageID, code, stdin)
	if cached := s.cachedResult(ctx, cacheKey); cached != nil {
		metrics.ExecutionsTotal.WithLabelValues("cache_hit").Inc()
		return cached, nil
	}

	start := time.Now()
	token, err := s.client.Submit(ctx, judge.Submission{
		SourceCode:             code,
		LanguageID:             langCode,
		Stdin:                  stdin,
		RedirectStderrToStdout: true,
	})
	metrics.JudgeRequestDuration.WithLabelValues("submit").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExecutionsTotal.WithLabelValues("submission_failed").Inc()
		return nil, common.Errorf("%w: %v", common.ErrSubmissionFailed, err)
	}

	var snap judge.Snapshot
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, s.interval); err != nil {
				metrics.ExecutionsTotal.WithLabelValues("poll_failed").Inc()
				return nil, common.Errorf("%w: %v", common.ErrExecutionFailed, err)
			}
		}
		start := time.Now()
		snap, err = s.client.Result(ctx, token)
		metrics.JudgeRequestDuration.WithLabelValues("result").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ExecutionsTotal.WithLabelValues("poll_failed").Inc()
			return nil, common.Errorf("%w: %v", common.ErrExecutionFailed, err)
		}
		if snap.Status.Terminal() {
			break
		}
	}

	result := normalizeSnapshot(snap)
	if snap.Status.Terminal() {
		metrics.ExecutionsTotal.WithLabelValues("completed").Inc()
		s.storeResult(ctx, cacheKey, result)
	} else {
		metrics.ExecutionsTotal.WithLabelValues("timed_out").Inc()
	}
	return result, nil
}

// normalizeSnapshot flattens a judge snapshot into the caller-facing shape:
// output falls back stdout -> stderr -> compile output -> sentinel; time and
// memory pass through unmodified and may be absent.
func normalizeSnapshot(snap judge.Snapshot) *ExecutionResult {
	output := snap.Stdout
	if output == "" {
		output = snap.Stderr
	}
	if output == "" {
		output = snap.CompileOutput
	}
	if output == "" {
		output = NoOutput
	}

	status := snap.Status.Description
	if status == "" {
		status = "Unknown"
	}

	return &ExecutionResult{
		Output: output,
		Status: status,
		Time:   snap.Time,
		Memory: snap.Memory,
	}
}

func resultCacheKey(languageID, code, stdin string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(languageID)))
	h.Write([]byte{0})
	h.Write([]byte(stdin))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return "exec:result:" + hex.EncodeToString(h.Sum(nil))
}

// cachedResult returns a previously normalized terminal result for an
// identical (language, code, stdin) triple, or nil. Cache trouble is never a
// request failure; the run just goes to the judge.
func (s *ExecutionService) cachedResult(ctx context.Context, key string) *ExecutionResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("WARN: execution result cache read failed: %v", err)
		}
		return nil
	}
	var result ExecutionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		log.Printf("WARN: dropping undecodable cached execution result: %v", err)
		return nil
	}
	return &result
}

func (s *ExecutionService) storeResult(ctx context.Context, key string, result *ExecutionResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		log.Printf("WARN: execution result cache write failed: %v", err)
	}
}
