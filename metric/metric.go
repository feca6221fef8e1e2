// Package metric publishes evaluation counters with expvar. Counters of a
// label are published as a single expvar map named "modular.<label>".
package metric

import (
	"expvar"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/modular/signal"
)

const prefix = "modular."

// Counter names within a label.
const (
	Blocks   = "blocks"
	Samples  = "samples"
	Latency  = "latency"
	Duration = "duration"
)

var (
	mu     sync.Mutex
	labels = make(map[string]*expvar.Map)
)

// Meter records evaluated blocks of one engine. A meter is used by a
// single goroutine, but meters of the same label may run concurrently
// and share counters.
type Meter struct {
	vars       *expvar.Map
	latency    *durationVar
	duration   *durationVar
	sampleRate int

	calledAt      time.Time
	bufferSize    int
	blockDuration time.Duration
}

// NewMeter returns meter that publishes counters under the label.
func NewMeter(label string, sampleRate int) *Meter {
	vars := publish(label)
	return &Meter{
		vars:       vars,
		latency:    vars.Get(Latency).(*durationVar),
		duration:   vars.Get(Duration).(*durationVar),
		sampleRate: sampleRate,
		calledAt:   time.Now(),
	}
}

// Measure records a block of bufferSize samples. Latency is the time
// since the previous block.
func (m *Meter) Measure(bufferSize int) {
	now := time.Now()
	m.latency.set(now.Sub(m.calledAt))
	m.calledAt = now
	if bufferSize != m.bufferSize {
		m.bufferSize = bufferSize
		m.blockDuration = signal.DurationOf(m.sampleRate, int64(bufferSize))
	}
	m.vars.Add(Blocks, 1)
	m.vars.Add(Samples, int64(bufferSize))
	m.duration.add(m.blockDuration)
}

// Get returns formatted counters of the label. Result is empty if label
// was never metered.
func Get(label string) map[string]string {
	mu.Lock()
	vars, ok := labels[label]
	mu.Unlock()
	result := make(map[string]string)
	if !ok {
		return result
	}
	vars.Do(func(kv expvar.KeyValue) {
		if d, ok := kv.Value.(*durationVar); ok {
			result[kv.Key] = d.value().String()
			return
		}
		result[kv.Key] = kv.Value.String()
	})
	return result
}

// Labels returns sorted metered labels.
func Labels() []string {
	mu.Lock()
	defer mu.Unlock()
	result := make([]string, 0, len(labels))
	for label := range labels {
		result = append(result, label)
	}
	sort.Strings(result)
	return result
}

func publish(label string) *expvar.Map {
	mu.Lock()
	defer mu.Unlock()
	if vars, ok := labels[label]; ok {
		return vars
	}
	vars := expvar.NewMap(prefix + label)
	vars.Add(Blocks, 0)
	vars.Add(Samples, 0)
	vars.Set(Latency, &durationVar{})
	vars.Set(Duration, &durationVar{})
	labels[label] = vars
	return vars
}

// durationVar publishes time.Duration as a JSON string.
type durationVar struct {
	ns atomic.Int64
}

func (v *durationVar) String() string {
	return strconv.Quote(v.value().String())
}

func (v *durationVar) value() time.Duration {
	return time.Duration(v.ns.Load())
}

func (v *durationVar) add(d time.Duration) {
	v.ns.Add(int64(d))
}

func (v *durationVar) set(d time.Duration) {
	v.ns.Store(int64(d))
}
