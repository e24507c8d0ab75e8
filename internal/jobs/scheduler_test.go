package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/features/leads"
)

type purgerSpy struct {
	retention time.Duration
	err       error
}

func (p *purgerSpy) PurgeExpiredSessions(context.Context) (int64, error) { return 2, p.err }

func (p *purgerSpy) PurgeLoginAttempts(_ context.Context, retention time.Duration) (int64, error) {
	p.retention = retention
	return 0, p.err
}

type leadSourceStub struct {
	from, to time.Time
}

func (l *leadSourceStub) CreatedBetween(_ context.Context, from, to time.Time) ([]*leads.Lead, error) {
	l.from, l.to = from, to
	return []*leads.Lead{{Name: "Jan"}}, nil
}

type digestSpy struct {
	day   time.Time
	items []*leads.Lead
}

func (d *digestSpy) Digest(_ context.Context, day time.Time, items []*leads.Lead) error {
	d.day, d.items = day, items
	return nil
}

func TestSendDigest_CoversYesterday(t *testing.T) {
	src := &leadSourceStub{}
	spy := &digestSpy{}
	s := NewScheduler(&purgerSpy{}, src, spy)
	s.now = func() time.Time { return time.Date(2025, 3, 14, 8, 0, 0, 0, common.Location()) }

	require.NoError(t, s.SendDigest(context.Background()))

	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, common.Location()), src.from)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, common.Location()), src.to)
	assert.Equal(t, src.from, spy.day)
	assert.Len(t, spy.items, 1)
}

func TestSendDigest_Disabled(t *testing.T) {
	src := &leadSourceStub{}
	s := NewScheduler(&purgerSpy{}, src, nil)
	require.NoError(t, s.SendDigest(context.Background()))
	assert.True(t, src.from.IsZero())
}

func TestPurge(t *testing.T) {
	p := &purgerSpy{}
	s := NewScheduler(p, &leadSourceStub{}, nil)

	require.NoError(t, s.PurgeSessions(context.Background()))
	require.NoError(t, s.PurgeAttempts(context.Background()))
	assert.Equal(t, 90*24*time.Hour, p.retention)

	p.err = errors.New("db down")
	assert.Error(t, s.PurgeSessions(context.Background()))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&purgerSpy{}, &leadSourceStub{}, &digestSpy{})
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}
