package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	Enabled        bool
	Workers        int
	DefaultTimeout time.Duration
	HistorySize    int
	// Tick is the trigger evaluation interval. Defaults to one minute;
	// triggers have minute resolution, so finer ticks buy nothing.
	Tick time.Duration
	// Timezone is the IANA zone triggers are evaluated in (e.g. "Europe/Helsinki").
	Timezone string
}

type HistoryItem struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	Error    string
}

// job pairs a trigger schedule with its action. lastFire is the catch-up
// anchor: the job is due whenever sched.Next(lastFire) is not after now, so a
// tick that arrives late still fires the missed period, exactly once.
type job struct {
	name     string
	sched    cron.Schedule
	timeout  time.Duration
	run      func(ctx context.Context) error
	lastFire time.Time
}

type firing struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context) error
}

type Service struct {
	mu sync.Mutex

	log *slog.Logger
	cfg Config
	loc *time.Location

	parser cron.Parser
	jobs   []*job

	queue   chan firing
	stopCh  chan struct{}
	started bool

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, log *slog.Logger) *Service {
	s := &Service{
		cfg:    cfg,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
	s.loc = s.loadLocation()
	return s
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Location returns the zone trigger times (and day rollovers) are computed in.
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldTZ := strings.TrimSpace(s.cfg.Timezone)
	newTZ := strings.TrimSpace(cfg.Timezone)
	s.cfg = cfg
	if oldTZ != newTZ {
		s.loc = s.loadLocation()
		s.log.Info("scheduler timezone changed", slog.String("tz", s.loc.String()))
	}
}

// AddDaily registers a job firing every day at HH:MM (scheduler timezone).
func (s *Service) AddDaily(name, atHHMM string, timeout time.Duration, run func(ctx context.Context) error) error {
	h, m, err := parseHHMM(atHHMM)
	if err != nil {
		return err
	}
	return s.addSpec(name, fmt.Sprintf("%d %d * * *", m, h), timeout, run)
}

// AddWeekly registers a job firing once a week at HH:MM on the given weekday.
func (s *Service) AddWeekly(name string, weekday time.Weekday, atHHMM string, timeout time.Duration, run func(ctx context.Context) error) error {
	h, m, err := parseHHMM(atHHMM)
	if err != nil {
		return err
	}
	return s.addSpec(name, fmt.Sprintf("%d %d * * %d", m, h, int(weekday)), timeout, run)
}

func (s *Service) addSpec(name, spec string, timeout time.Duration, run func(ctx context.Context) error) error {
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &job{
		name:     name,
		sched:    sched,
		timeout:  s.resolveTimeout(timeout),
		run:      run,
		lastFire: time.Now().In(s.loc),
	})
	return nil
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	tick := s.cfg.Tick
	if tick <= 0 {
		tick = time.Minute
	}
	s.queue = make(chan firing, 64)
	loc := s.loc

	// Jobs registered before Start anchor at startup, not at registration;
	// a trigger that passed before the process came up is not replayed.
	now := time.Now().In(loc)
	for _, j := range s.jobs {
		j.lastFire = now
	}
	s.mu.Unlock()

	for i := 0; i < workers; i++ {
		go s.worker(ctx)
	}
	go s.tickLoop(ctx, tick)

	s.log.Info("scheduler started", slog.Int("workers", workers), slog.String("tz", loc.String()), slog.Duration("tick", tick))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	close(s.stopCh)
	s.log.Info("scheduler stopped")
}

func (s *Service) tickLoop(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()

	s.mu.Lock()
	stopCh := s.stopCh
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-t.C:
			s.dispatchDue(time.Now())
		}
	}
}

// dispatchDue enqueues every job whose trigger period has elapsed since its
// last firing. The anchor advances only once the firing is on the queue, so
// a saturated queue delays the firing to a later tick instead of losing it,
// and a slow action cannot cause a second firing for the same period.
func (s *Service) dispatchDue(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := now.In(s.loc)
	for _, j := range s.jobs {
		next := j.sched.Next(j.lastFire)
		if next.After(local) {
			continue
		}
		select {
		case s.queue <- firing{name: j.name, timeout: j.timeout, run: j.run}:
			j.lastFire = local
		default:
			s.log.Warn("scheduler queue full, job deferred", slog.String("job", j.name))
		}
	}
}

func (s *Service) worker(ctx context.Context) {
	s.mu.Lock()
	stopCh := s.stopCh
	s.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case f := <-s.queue:
			s.execOne(ctx, f)
		}
	}
}

func (s *Service) execOne(ctx context.Context, f firing) {
	start := time.Now()
	runCtx := ctx
	var cancel func()
	if f.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	err := f.run(runCtx)

	item := HistoryItem{
		Name:     f.name,
		Started:  start,
		Duration: time.Since(start),
	}
	if err != nil {
		item.Error = err.Error()
		s.log.Warn("job failed", slog.String("job", f.name), slog.String("err", err.Error()))
	} else {
		s.log.Info("job ok", slog.String("job", f.name), slog.Duration("dur", item.Duration))
	}

	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.history = append(s.history, item)
	if s.cfg.HistorySize > 0 && len(s.history) > s.cfg.HistorySize {
		s.history = s.history[len(s.history)-s.cfg.HistorySize:]
	}
}

// History returns a copy of the bounded run history, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) loadLocation() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", slog.String("tz", tz), slog.String("err", err.Error()))
		return time.Local
	}
	return loc
}

func (s *Service) resolveTimeout(t time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	return s.cfg.DefaultTimeout
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
