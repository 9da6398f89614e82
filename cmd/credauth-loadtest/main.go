// Command credauth-loadtest drives the in-memory session manager with
// concurrent Touch, Create and Destroy calls on a compressed clock, so idle
// and absolute expiry happen within a short run.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/credauth/session"
)

// compressedClock runs speed times faster than wall time from start.
type compressedClock struct {
	start time.Time
	speed float64
}

func (c compressedClock) Now() time.Time {
	elapsed := time.Since(c.start)
	return c.start.Add(time.Duration(float64(elapsed) * c.speed))
}

type endCounts struct {
	idle       atomic.Int64
	absolute   atomic.Int64
	terminated atomic.Int64
}

func (e *endCounts) record(s session.Session) {
	switch s.State {
	case session.StateExpiredIdle:
		e.idle.Add(1)
	case session.StateExpiredAbsolute:
		e.absolute.Add(1)
	case session.StateTerminated:
		e.terminated.Add(1)
	}
}

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		speed       = flag.Float64("speed", 300, "virtual seconds per wall second")
		idle        = flag.Duration("idle", session.DefaultIdleTimeout, "idle timeout")
		absolute    = flag.Duration("absolute", session.DefaultAbsoluteTimeout, "absolute timeout")
		sweep       = flag.Duration("sweep", 0, "sweeper interval in wall time; 0 disables")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 || *speed <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, ops and speed must be > 0")
		os.Exit(2)
	}

	clock := compressedClock{start: time.Now(), speed: *speed}
	var ended endCounts

	mgr, err := session.NewManager(session.Config{
		IdleTimeout:     *idle,
		AbsoluteTimeout: *absolute,
		SweepInterval:   *sweep,
		Now:             clock.Now,
		OnEnd:           ended.record,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "session manager: %v\n", err)
		os.Exit(2)
	}
	defer mgr.Close()

	fmt.Printf("seeding %d sessions (clock x%.0f)...\n", *sessions, *speed)
	startSeed := time.Now()
	handles := make([]string, *sessions)
	for i := range handles {
		s, err := mgr.Create(session.Principal{UserID: fmt.Sprintf("u%d", i), Username: fmt.Sprintf("user-%d", i)})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		handles[i] = s.Handle
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	touchStats, outcomes := runTouchPhase(mgr, clock, handles, *ops, *concurrency)
	churnStats := runChurnPhase(mgr, *ops, *concurrency)
	swept := mgr.Sweep(clock.Now())

	fmt.Println("---- results ----")
	printStats("touch", touchStats)
	printStats("create+destroy", churnStats)
	fmt.Printf("touch outcomes: ok=%d idle=%d absolute=%d gone=%d\n",
		outcomes.ok.Load(), outcomes.idle.Load(), outcomes.absolute.Load(), outcomes.gone.Load())
	fmt.Printf("ended: idle=%d absolute=%d destroyed=%d swept_at_end=%d live=%d virtual_elapsed=%s\n",
		ended.idle.Load(), ended.absolute.Load(), ended.terminated.Load(), swept, mgr.Len(),
		clock.Now().Sub(clock.start).Round(time.Second))
}

type touchOutcomes struct {
	ok       atomic.Int64
	idle     atomic.Int64
	absolute atomic.Int64
	gone     atomic.Int64
}

func runTouchPhase(mgr *session.Manager, clock compressedClock, handles []string, ops, concurrency int) (phaseStats, *touchOutcomes) {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
		outcomes  touchOutcomes
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				handle := handles[r.Intn(len(handles))]
				t0 := time.Now()
				_, err := mgr.Touch(handle, clock.Now())
				d := time.Since(t0)
				switch {
				case err == nil:
					outcomes.ok.Add(1)
				case errors.Is(err, session.ErrExpiredIdle):
					outcomes.idle.Add(1)
				case errors.Is(err, session.ErrExpiredAbsolute):
					outcomes.absolute.Add(1)
				case errors.Is(err, session.ErrNotFound):
					outcomes.gone.Add(1)
				default:
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures), &outcomes
}

func runChurnPhase(mgr *session.Manager, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p := session.Principal{UserID: fmt.Sprintf("churn-%d", worker), Username: fmt.Sprintf("churn-%d", worker)}
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				s, err := mgr.Create(p)
				if err == nil {
					if _, ok := mgr.Destroy(s.Handle); !ok {
						err = session.ErrNotFound
					}
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
