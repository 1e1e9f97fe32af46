package hosting

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/di"
)

type countingService struct {
	*BackgroundService
	starts atomic.Int32
}

func newCountingService() *countingService {
	return &countingService{BackgroundService: NewBackgroundService("counting", nil)}
}

func (s *countingService) Start(ctx context.Context) error {
	s.starts.Add(1)
	return s.BackgroundService.Start(ctx)
}

type notHosted struct{}

func TestRegisterValidatesServices(t *testing.T) {
	c := di.NewRegistry().Default()

	assert.NoError(t, Register(c, newCountingService))
	assert.NoError(t, Register(c, &Worker{Fn: func(context.Context) error { return nil }}))
	assert.NoError(t, Register(c, di.Ctor(newCountingService)))

	assert.Error(t, Register(c, nil))
	assert.Error(t, Register(c, func() *notHosted { return &notHosted{} }))
	assert.Error(t, Register(c, di.Struct[notHosted]()))
	assert.Error(t, Register(c, "service"))

	services, err := di.ResolveMany[HostedService](c, ServicesToken)
	require.NoError(t, err)
	assert.Len(t, services, 3)
}

func TestManagerStartStop(t *testing.T) {
	c := di.NewRegistry().Default()
	require.NoError(t, Register(c, newCountingService))
	var ran atomic.Bool
	require.NoError(t, Register(c, &Worker{Fn: func(ctx context.Context) error {
		ran.Store(true)
		<-ctx.Done()
		return ctx.Err()
	}}))

	m := NewManager(c, nil)
	errCh, err := m.Start(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Services(), 2)

	svc := m.Services()[0].(*countingService)
	assert.Eventually(t, func() bool { return svc.starts.Load() == 1 && ran.Load() }, time.Second, 10*time.Millisecond)

	_, err = m.Start(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Stop(ctx))
	assert.True(t, svc.ShouldStop())
	assert.Empty(t, errCh)
}

func TestManagerReportsFailures(t *testing.T) {
	c := di.NewRegistry().Default()
	boom := errors.New("boom")
	require.NoError(t, Register(c, &Worker{Fn: func(context.Context) error { return boom }}))

	m := NewManager(c, nil)
	errCh, err := m.Start(context.Background())
	require.NoError(t, err)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("expected failure to be reported")
	}
	require.NoError(t, m.Stop(context.Background()))
}

func TestManagerWithoutServices(t *testing.T) {
	m := NewManager(di.NewRegistry().Default(), nil)
	_, err := m.Start(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Services())
	assert.NoError(t, m.Stop(context.Background()))
}

func TestManagerResolvesFromChildContainer(t *testing.T) {
	r := di.NewRegistry()
	require.NoError(t, Register(r.Default(), newCountingService))
	child, err := r.NewContainer("tenant")
	require.NoError(t, err)

	m := NewManager(child, nil)
	_, err = m.Start(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Services(), 1)
	require.NoError(t, m.Stop(context.Background()))
}

type missingDep struct{}

func TestManagerReportsMissingDependency(t *testing.T) {
	r := di.NewRegistry()
	require.NoError(t, Register(r.Default(), func(*missingDep) *countingService { return newCountingService() }))

	m := NewManager(r.Default(), nil)
	_, err := m.Start(context.Background())
	assert.True(t, di.IsNotFound(err))
	assert.ErrorContains(t, err, "hosting: resolve services")
}

func TestBackgroundServiceStopTimeout(t *testing.T) {
	s := NewBackgroundService("never-started", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, s.ShouldStop())
	assert.NotPanics(t, func() { _ = s.Stop(ctx) })
}

func TestTimedHostedService(t *testing.T) {
	var runs atomic.Int32
	s := NewTimedHostedService("ticker", 5*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	}, nil)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NoError(t, <-done)
}
