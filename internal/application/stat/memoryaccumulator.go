package stat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/orris-inc/trafficstat/internal/domain/stat"
	"github.com/orris-inc/trafficstat/internal/shared/biztime"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

type userAccKey struct {
	userID uint
	rate   float64
}

type serverAccKey struct {
	serverID   uint
	serverType string
}

type dayTotals struct {
	users   map[userAccKey]*stat.UserUsage
	servers map[serverAccKey]*stat.ServerUsage
}

// MemoryAccumulator is a process-local stat.Accumulator. It only works when
// drain and rollup run in the same process, as the worker does.
type MemoryAccumulator struct {
	mu   sync.Mutex
	days map[string]*dayTotals
}

func NewMemoryAccumulator() *MemoryAccumulator {
	return &MemoryAccumulator{days: make(map[string]*dayTotals)}
}

func (a *MemoryAccumulator) day(t time.Time) *dayTotals {
	key := biztime.FormatDate(t)
	d, ok := a.days[key]
	if !ok {
		d = &dayTotals{
			users:   make(map[userAccKey]*stat.UserUsage),
			servers: make(map[serverAccKey]*stat.ServerUsage),
		}
		a.days[key] = d
	}
	return d
}

func (a *MemoryAccumulator) AddUser(_ context.Context, day time.Time, rate float64, userID uint, upload, download uint64) error {
	if upload == 0 && download == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.day(day)
	k := userAccKey{userID: userID, rate: rate}
	u, ok := d.users[k]
	if !ok {
		u = &stat.UserUsage{UserID: userID, ServerRate: rate}
		d.users[k] = u
	}
	u.Upload = utils.SaturatingAdd(u.Upload, upload)
	u.Download = utils.SaturatingAdd(u.Download, download)
	return nil
}

func (a *MemoryAccumulator) AddServer(_ context.Context, day time.Time, serverID uint, serverType string, upload, download uint64) error {
	if upload == 0 && download == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.day(day)
	k := serverAccKey{serverID: serverID, serverType: serverType}
	s, ok := d.servers[k]
	if !ok {
		s = &stat.ServerUsage{ServerID: serverID, ServerType: serverType}
		d.servers[k] = s
	}
	s.Upload = utils.SaturatingAdd(s.Upload, upload)
	s.Download = utils.SaturatingAdd(s.Download, download)
	return nil
}

func (a *MemoryAccumulator) Users(_ context.Context, day time.Time) ([]stat.UserUsage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, ok := a.days[biztime.FormatDate(day)]
	if !ok {
		return nil, nil
	}
	out := make([]stat.UserUsage, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, *u)
	}
	sortUserUsage(out)
	return out, nil
}

func (a *MemoryAccumulator) Servers(_ context.Context, day time.Time) ([]stat.ServerUsage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, ok := a.days[biztime.FormatDate(day)]
	if !ok {
		return nil, nil
	}
	out := make([]stat.ServerUsage, 0, len(d.servers))
	for _, s := range d.servers {
		out = append(out, *s)
	}
	sortServerUsage(out)
	return out, nil
}

func (a *MemoryAccumulator) ResetUsers(_ context.Context, day time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := biztime.FormatDate(day)
	if d, ok := a.days[key]; ok {
		d.users = make(map[userAccKey]*stat.UserUsage)
		a.dropIfEmpty(key, d)
	}
	return nil
}

func (a *MemoryAccumulator) ResetServers(_ context.Context, day time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := biztime.FormatDate(day)
	if d, ok := a.days[key]; ok {
		d.servers = make(map[serverAccKey]*stat.ServerUsage)
		a.dropIfEmpty(key, d)
	}
	return nil
}

func (a *MemoryAccumulator) dropIfEmpty(key string, d *dayTotals) {
	if len(d.users) == 0 && len(d.servers) == 0 {
		delete(a.days, key)
	}
}

func sortUserUsage(rows []stat.UserUsage) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].ServerRate < rows[j].ServerRate
	})
}

func sortServerUsage(rows []stat.ServerUsage) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ServerID != rows[j].ServerID {
			return rows[i].ServerID < rows[j].ServerID
		}
		return rows[i].ServerType < rows[j].ServerType
	})
}
