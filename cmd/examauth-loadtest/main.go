package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/internal/fakebackend"
	"github.com/MrEthical07/examAuth/metrics/export/internaldefs"
	promexport "github.com/MrEthical07/examAuth/metrics/export/prometheus"
	"github.com/MrEthical07/examAuth/session"
	"github.com/MrEthical07/examAuth/transport/httpapi"
)

func main() {
	var (
		clients     = flag.Int("clients", 200, "number of logged-in clients")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "profile fetches in the steady phase")
		burst       = flag.Int("burst", 16, "concurrent callers per client in the refresh storm")
		latency     = flag.Duration("latency", 0, "simulated platform latency per call")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "session key prefix")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics here while running")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 || *burst <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, ops, and burst must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	backend, err := fakebackend.New(fakebackend.Options{AccessTTL: time.Hour})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fake backend: %v\n", err)
		os.Exit(1)
	}
	backend.Seed()
	if *latency > 0 {
		for _, ep := range []string{fakebackend.EndpointMe, fakebackend.EndpointReAuth} {
			backend.SetDelay(ep, *latency)
		}
	}

	fmt.Printf("logging in %d clients...\n", *clients)
	startSeed := time.Now()
	managers := make(fleet, *clients)
	for i := range managers {
		m, err := newClient(ctx, backend, client, fmt.Sprintf("%s:%d", *prefix, i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "client %d: %v\n", i, err)
			os.Exit(1)
		}
		defer m.Close()
		managers[i] = m
	}
	fmt.Printf("logged in in %s\n", time.Since(startSeed).Round(time.Millisecond))

	if *metricsAddr != "" {
		srv := &http.Server{Addr: *metricsAddr, Handler: promexport.NewCollectorFromSource(managers).Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
		defer srv.Close()
		fmt.Printf("serving metrics on %s/metrics\n", *metricsAddr)
	}

	profileStats := runProfilePhase(ctx, managers, *ops, *concurrency)

	backend.Advance(2 * time.Hour)
	reAuthBefore := backend.Calls(fakebackend.EndpointReAuth)
	stormStats := runRefreshStorm(ctx, managers, *burst)
	reAuths := backend.Calls(fakebackend.EndpointReAuth) - reAuthBefore

	fmt.Println("---- results ----")
	printStats("profile", profileStats)
	printStats("refresh-storm", stormStats)
	fmt.Printf("refresh-storm: callers=%d reAuth calls=%d (want %d)\n", len(managers)*(*burst), reAuths, len(managers))
	printCounters(managers.MetricsSnapshot())
}

func newClient(ctx context.Context, backend *fakebackend.Backend, rc redis.UniversalClient, prefix string) (*examAuth.SessionManager, error) {
	cfg := examAuth.DefaultConfig()
	cfg.Identity.BaseURLOverride = "http://examsphere.fake"
	cfg.Metrics.EnableLatencyHistograms = true

	m, err := examAuth.New().
		WithConfig(cfg).
		WithTransport(httpapi.New("", httpapi.WithHTTPClient(backend.HTTPClient()))).
		WithStore(session.NewRedisStore(rc, prefix, 0)).
		Build(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := m.RequestCaptcha(ctx)
	if err != nil {
		m.Close()
		return nil, err
	}
	answer, _ := backend.CaptchaAnswer(ch.ID)
	u := fakebackend.DemoUsers[rand.Intn(len(fakebackend.DemoUsers))]
	if _, err := m.Login(ctx, examAuth.LoginRequest{UserID: u.UserID, Password: u.Password, CaptchaAnswer: answer}); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func runProfilePhase(ctx context.Context, managers fleet, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				m := managers[r.Intn(len(managers))]
				t0 := time.Now()
				_, err := m.FetchCurrentProfile(ctx)
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

// runRefreshStorm has burst callers per client hit an expired token at once.
func runRefreshStorm(ctx context.Context, managers fleet, burst int) phaseStats {
	var (
		wg        sync.WaitGroup
		failures  int64
		latencies = make([]time.Duration, 0, len(managers)*burst)
		mu        sync.Mutex
		gate      = make(chan struct{})
	)

	for _, m := range managers {
		for b := 0; b < burst; b++ {
			wg.Add(1)
			go func(m *examAuth.SessionManager) {
				defer wg.Done()
				<-gate
				t0 := time.Now()
				_, err := m.FetchCurrentProfile(ctx)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}(m)
		}
	}

	start := time.Now()
	close(gate)
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// fleet aggregates the metrics of many managers.
type fleet []*examAuth.SessionManager

func (f fleet) MetricsSnapshot() examAuth.MetricsSnapshot {
	out := examAuth.MetricsSnapshot{
		Counters:   map[examAuth.MetricID]uint64{},
		Histograms: map[examAuth.MetricID][]uint64{},
	}
	for _, m := range f {
		s := m.MetricsSnapshot()
		for id, v := range s.Counters {
			out.Counters[id] += v
		}
		for id, buckets := range s.Histograms {
			sum := out.Histograms[id]
			if sum == nil {
				sum = make([]uint64, len(buckets))
			}
			for i, v := range buckets {
				sum[i] += v
			}
			out.Histograms[id] = sum
		}
	}
	return out
}

func (f fleet) AuditDropped() uint64 {
	var n uint64
	for _, m := range f {
		n += m.AuditDropped()
	}
	return n
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

func printCounters(s examAuth.MetricsSnapshot) {
	for _, def := range internaldefs.CounterDefs {
		if v := s.Counters[def.ID]; v > 0 {
			fmt.Printf("%s %d\n", def.Name, v)
		}
	}
}
