package hostaudio

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Info describes an audio output's fixed configuration.
type Info struct {
	Name       string
	SampleRate uint32
	Channels   int
	Frames     int // frames per output period
}

type connection struct {
	mixers uint32
	cb     MixCallback
}

// Output is a periodic audio output. Once started, a dedicated pump
// goroutine invokes every connected MixCallback once per period and
// hands the accumulated mix buses to the attached receivers.
//
// Connected callbacks share the same per-period output buffers, so a
// callback must add into them rather than overwrite.
type Output struct {
	logger *zap.Logger
	info   Info

	mu        sync.Mutex
	conns     map[int]connection
	nextConn  int
	receivers []MixReceiver
	running   bool
	done      chan struct{}
	wg        sync.WaitGroup

	// Owned by the pump goroutine (or RenderOnce callers in tests);
	// reused across periods.
	buses [][][]float32
}

// OpenOutput validates info and creates a stopped output. A validation
// failure is fatal to the caller's capture: there is no handle to
// retry against.
func OpenOutput(logger *zap.Logger, info Info) (*Output, error) {
	if info.SampleRate == 0 {
		return nil, fmt.Errorf("open audio output %q: sample rate not set", info.Name)
	}
	if info.Channels <= 0 || info.Channels > MaxChannels {
		return nil, fmt.Errorf("open audio output %q: invalid channel count %d", info.Name, info.Channels)
	}
	if info.Frames <= 0 {
		info.Frames = DefaultOutputFrames
	}

	buses := make([][][]float32, MaxMixes)
	for mix := range buses {
		buses[mix] = make([][]float32, info.Channels)
		for ch := range buses[mix] {
			buses[mix][ch] = make([]float32, info.Frames)
		}
	}

	logger.Info("audio output opened",
		zap.String("name", info.Name),
		zap.Uint32("sample_rate", info.SampleRate),
		zap.Int("channels", info.Channels),
		zap.Int("frames_per_period", info.Frames))

	return &Output{
		logger: logger,
		info:   info,
		conns:  make(map[int]connection),
		buses:  buses,
	}, nil
}

// Info returns the output's configuration.
func (o *Output) Info() Info {
	return o.info
}

// Connect registers cb to be invoked each period for the mix buses in
// mixers. It returns a disconnect func; disconnect is idempotent.
func (o *Output) Connect(mixers uint32, cb MixCallback) (disconnect func()) {
	o.mu.Lock()
	id := o.nextConn
	o.nextConn++
	o.conns[id] = connection{mixers: mixers, cb: cb}
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.conns, id)
			o.mu.Unlock()
		})
	}
}

// AddReceiver attaches r to receive every active bus after each period.
func (o *Output) AddReceiver(r MixReceiver) {
	o.mu.Lock()
	o.receivers = append(o.receivers, r)
	o.mu.Unlock()
}

// Start launches the pump goroutine. Starting a running output is a
// no-op.
func (o *Output) Start() {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	o.running = true
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()

	period := time.Duration(o.info.Frames) * time.Second / time.Duration(o.info.SampleRate)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		ts := uint64(time.Now().UnixNano())
		step := uint64(period.Nanoseconds())
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				o.RenderOnce(ts)
				ts += step
			}
		}
	}()

	o.logger.Info("audio output started",
		zap.String("name", o.info.Name),
		zap.Duration("period", period))
}

// Stop halts the pump goroutine and waits for the in-flight period to
// finish. Stopping a stopped output is a no-op.
func (o *Output) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	close(o.done)
	o.mu.Unlock()

	o.wg.Wait()
	o.logger.Info("audio output stopped", zap.String("name", o.info.Name))
}

// RenderOnce drives exactly one output period synchronously: zeroes the
// active buses, runs every connected callback, and delivers the result
// to the receivers. The pump goroutine calls this each tick; offline
// rendering and tests call it directly on a stopped output.
func (o *Output) RenderOnce(timestampNS uint64) {
	o.mu.Lock()
	conns := make([]connection, 0, len(o.conns))
	for _, c := range o.conns {
		conns = append(conns, c)
	}
	receivers := append([]MixReceiver(nil), o.receivers...)
	o.mu.Unlock()

	var active uint32
	for _, c := range conns {
		active |= c.mixers
	}

	for mix := range o.buses {
		if active&(1<<uint(mix)) == 0 {
			continue
		}
		for _, ch := range o.buses[mix] {
			for i := range ch {
				ch[i] = 0
			}
		}
	}

	for _, c := range conns {
		c.cb.MixOutput(timestampNS, c.mixers, o.buses)
	}

	for mix := range o.buses {
		if active&(1<<uint(mix)) == 0 {
			continue
		}
		for _, r := range receivers {
			r(mix, o.buses[mix], timestampNS)
		}
	}
}
