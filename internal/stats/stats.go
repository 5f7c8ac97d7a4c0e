package stats

import (
	"encoding/json"
	"expvar"
	"log"
	"net/http"
	"time"
)

const statsMapName = "geochat-stats"

// StatsProvider is the counter surface the engine components publish to.
type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
}

// StatsUpdater maintains an expvar map of engine counters. Deltas are
// applied by a single worker goroutine so publishers never contend on
// the map, and a full channel drops the delta rather than blocking a
// connection handler.
type StatsUpdater struct {
	log    *log.Logger
	vars   *expvar.Map
	deltas chan statDelta
}

var _ StatsProvider = (*StatsUpdater)(nil)

type statDelta struct {
	name  string
	delta int64
}

func NewStatsUpdater(logger *log.Logger, mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		log:    logger,
		vars:   statsMap(),
		deltas: make(chan statDelta, 512),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))

	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))

	return su
}

// statsMap resets and reuses an already published map; expvar panics on
// a duplicate Publish within the same process.
func statsMap() *expvar.Map {
	if m, ok := expvar.Get(statsMapName).(*expvar.Map); ok {
		return m.Init()
	}
	return expvar.NewMap(statsMapName)
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	out := make(map[string]json.RawMessage)
	su.vars.Do(func(kv expvar.KeyValue) {
		out[kv.Key] = json.RawMessage(kv.Value.String())
	})

	if err := json.NewEncoder(w).Encode(out); err != nil {
		su.log.Printf("stats: encode: %v", err)
	}
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

func (su *StatsUpdater) Incr(name string) {
	su.push(name, 1)
}

func (su *StatsUpdater) Decr(name string) {
	su.push(name, -1)
}

func (su *StatsUpdater) push(name string, delta int64) {
	select {
	case su.deltas <- statDelta{name: name, delta: delta}:
	default:
		su.log.Printf("stats: update channel full, dropping %q", name)
	}
}

func (su *StatsUpdater) apply() {
	for d := range su.deltas {
		v, ok := su.vars.Get(d.name).(*expvar.Int)
		if !ok {
			su.log.Printf("stats: unregistered metric %q", d.name)
			continue
		}
		v.Add(d.delta)
	}
}

func (su *StatsUpdater) Run() {
	go su.apply()
}

func (su *StatsUpdater) Stop() {
	close(su.deltas)
}
