// Package engine runs flow evaluation on a dedicated goroutine.
//
// The goroutine owns the store. Audio side requests blocks with Request
// and reads results with Read, control side pushes mutations that are
// applied between blocks. The store is never touched by any other
// goroutine, so it needs no locking.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/modular"
	"pipelined.dev/modular/log"
	"pipelined.dev/modular/metric"
	"pipelined.dev/modular/mutable"
	"pipelined.dev/modular/signal"
)

// DefaultTimeout is a default watchdog timeout of requests.
const DefaultTimeout = time.Second

var (
	// ErrStalled is returned when evaluation goroutine didn't respond
	// within timeout.
	ErrStalled = errors.New("evaluation stalled")
	// ErrClosed is returned when engine is already closed.
	ErrClosed = errors.New("engine closed")
	// ErrInputType is returned when constant doesn't match declared input.
	ErrInputType = errors.New("input type mismatch")
)

type (
	// Engine evaluates a single flow of the store on its own goroutine.
	Engine struct {
		mutable.Context
		uid        string
		store      *modular.Store
		flow       modular.FlowID
		timeout    time.Duration
		sampleRate int
		log        logrus.FieldLogger

		requests  chan request
		done      chan uint64
		mutations mutable.Destination
		stop      chan struct{}
		wg        sync.WaitGroup
		closeOnce sync.Once

		// owned by evaluation goroutine
		inputs map[signal.InputNo]signal.Buffer
		values map[signal.InputNo]signal.Value
		meter  *metric.Meter

		// guarded by mu
		mu      sync.Mutex
		outputs map[signal.OutputNo]signal.Buffer

		// owned by requesting goroutine
		seq uint64
	}

	request struct {
		seq        uint64
		bufferSize int
	}

	// Option provides a way to set functional parameters to engine.
	Option func(*Engine)
)

// WithLogger sets logger to the engine.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithTimeout sets watchdog timeout of requests.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithSampleRate sets sample rate used to measure signal duration. If
// not provided, sample rate of the first sampled output is used.
func WithSampleRate(sampleRate int) Option {
	return func(e *Engine) {
		e.sampleRate = sampleRate
	}
}

// New creates engine for the flow and starts evaluation goroutine.
// Store must not be used by the caller until engine is closed.
func New(store *modular.Store, flow modular.FlowID, options ...Option) *Engine {
	e := &Engine{
		Context:   mutable.Mutable(),
		uid:       xid.New().String(),
		store:     store,
		flow:      flow,
		timeout:   DefaultTimeout,
		requests:  make(chan request),
		done:      make(chan uint64, 1),
		mutations: mutable.NewDestination(),
		stop:      make(chan struct{}),
		inputs:    make(map[signal.InputNo]signal.Buffer),
		values:    make(map[signal.InputNo]signal.Value),
		outputs:   make(map[signal.OutputNo]signal.Buffer),
	}
	for _, option := range options {
		option(e)
	}
	if e.log == nil {
		e.log = log.GetLogger()
	}
	e.log = e.log.WithFields(logrus.Fields{"engine": e.uid, "flow": flow})
	e.syncBuffers()
	if e.sampleRate == 0 {
		e.sampleRate = firstSampleRate(store.Flow(flow).OutputTypes())
	}
	e.meter = metric.NewMeter(e.MetricLabel(), e.sampleRate)

	e.wg.Add(1)
	go e.run()
	e.log.Info("engine started")
	return e
}

// UID returns unique id of the engine.
func (e *Engine) UID() string {
	return e.uid
}

// MetricLabel returns label of engine metrics.
func (e *Engine) MetricLabel() string {
	return fmt.Sprintf("engine.%s.flow.%d", e.uid, e.flow)
}

// Destination returns channel that accepts engine mutations. It allows
// to route mutations with mutable.Pusher.
func (e *Engine) Destination() mutable.Destination {
	return e.mutations
}

// Request evaluates a block of bufferSize samples and blocks until it's
// done. ErrStalled is returned if evaluation doesn't complete within
// timeout. Request must not be called concurrently.
func (e *Engine) Request(bufferSize int) error {
	e.seq++
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case e.requests <- request{seq: e.seq, bufferSize: bufferSize}:
	case <-e.stop:
		return ErrClosed
	case <-timer.C:
		return fmt.Errorf("%w: request wasn't accepted in %v", ErrStalled, e.timeout)
	}
	for {
		select {
		case seq := <-e.done:
			// completion of previously stalled request
			if seq != e.seq {
				continue
			}
			return nil
		case <-e.stop:
			return ErrClosed
		case <-timer.C:
			return fmt.Errorf("%w: block wasn't evaluated in %v", ErrStalled, e.timeout)
		}
	}
}

// Read calls fn with output buffers of the last evaluated block. Buffers
// must not be retained after fn returns.
func (e *Engine) Read(fn func(map[signal.OutputNo]signal.Buffer)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.outputs)
}

// Push sends mutations to the evaluation goroutine. They are applied
// before the next block.
func (e *Engine) Push(mutations ...mutable.Mutation) error {
	var ms mutable.Mutations
	for _, m := range mutations {
		ms = ms.Put(m)
	}
	if ms == nil {
		return nil
	}
	select {
	case <-e.stop:
		return ErrClosed
	default:
	}
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()
	select {
	case e.mutations <- ms:
		return nil
	case <-e.stop:
		return ErrClosed
	case <-timer.C:
		return fmt.Errorf("%w: mutations weren't accepted in %v", ErrStalled, e.timeout)
	}
}

// SetInput returns mutation that feeds the flow input with a constant.
// The mutation fails with ErrInputType if value doesn't match declared
// sampled input.
func (e *Engine) SetInput(no signal.InputNo, v signal.Value) mutable.Mutation {
	return e.Mutate(func() error {
		t, ok := e.store.Flow(e.flow).InputTypes()[no]
		if !ok || t.Shape != signal.ShapeSampled || t.Prim != v.Prim() {
			return fmt.Errorf("%w: input %d doesn't accept %v", ErrInputType, no, v)
		}
		if _, ok := e.inputs[no]; !ok {
			e.inputs[no] = signal.NewBuffer(t)
		}
		e.values[no] = v
		return nil
	})
}

// ResetInput returns mutation that disconnects constant from the flow
// input.
func (e *Engine) ResetInput(no signal.InputNo) mutable.Mutation {
	return e.Mutate(func() error {
		delete(e.inputs, no)
		delete(e.values, no)
		return nil
	})
}

// Modify returns mutation that changes the structure of the store. Input
// and output buffers of the engine follow the declared flow slots after
// it's applied.
func (e *Engine) Modify(fn func(*modular.Store) error) mutable.Mutation {
	return e.Mutate(func() error {
		defer e.syncBuffers()
		return fn(e.store)
	})
}

// Close stops evaluation goroutine. Store can be used by the caller
// after Close returns.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.stop)
		e.wg.Wait()
		e.log.Info("engine closed")
	})
	return nil
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case ms := <-e.mutations:
			e.apply(ms)
		case r := <-e.requests:
			// mutations pushed before request are applied first
			select {
			case ms := <-e.mutations:
				e.apply(ms)
			default:
			}
			e.compute(r.bufferSize)
			select {
			case e.done <- r.seq:
			case <-e.stop:
				return
			}
		case <-e.stop:
			return
		}
	}
}

func (e *Engine) apply(ms mutable.Mutations) {
	if err := ms.ApplyTo(e.Context); err != nil {
		e.log.WithError(err).Error("mutation failed")
	}
}

func (e *Engine) compute(bufferSize int) {
	for no, v := range e.values {
		b := e.inputs[no]
		b.UpdateSize(bufferSize)
		signal.FillValue(b, v)
	}
	e.mu.Lock()
	e.store.Compute(e.flow, e.outputs, e.inputs, bufferSize)
	e.mu.Unlock()
	e.meter.Measure(bufferSize)
}

// syncBuffers makes engine buffers follow declared flow slots.
func (e *Engine) syncBuffers() {
	f := e.store.Flow(e.flow)
	inputTypes := f.InputTypes()
	for no, b := range e.inputs {
		if t, ok := inputTypes[no]; !ok || !signal.Matches(b, t) || t.Shape != signal.ShapeSampled {
			delete(e.inputs, no)
			delete(e.values, no)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	outputTypes := f.OutputTypes()
	for no, b := range e.outputs {
		if t, ok := outputTypes[no]; !ok || !signal.Matches(b, t) {
			delete(e.outputs, no)
		}
	}
	for no, t := range outputTypes {
		if _, ok := e.outputs[no]; !ok {
			e.outputs[no] = signal.NewBuffer(t)
		}
	}
}

func firstSampleRate(types map[signal.OutputNo]signal.Type) int {
	var (
		rate  int
		first signal.OutputNo
		found bool
	)
	for no, t := range types {
		if t.Shape != signal.ShapeSampled {
			continue
		}
		if !found || no < first {
			rate, first, found = t.SampleRate(), no, true
		}
	}
	if !found {
		return 44100
	}
	return rate
}
