package activity

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Output receives serialized events on a topic.
type Output interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// Recorder stamps, serializes and writes events. Write failures are logged and never
// reach the caller: activity is best effort.
type Recorder struct {
	mu     *sync.Mutex
	output Output
	device string
	now    func() time.Time
	log    *zap.Logger
}

func NewRecorder(output Output, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		mu:     &sync.Mutex{},
		output: output,
		now:    time.Now,
		log:    logger.Named("activity"),
	}
}

// WithDevice returns a recorder sharing the output that tags events with device.
func (r *Recorder) WithDevice(device string) *Recorder {
	if r == nil {
		return nil
	}
	return &Recorder{mu: r.mu, output: r.output, device: device, now: r.now, log: r.log}
}

func (r *Recorder) Record(ev Event) {
	if r == nil || r.output == nil {
		return
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = r.now().Unix()
	}
	if ev.Device == "" {
		ev.Device = r.device
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		r.log.Warn("serialize event", zap.String("event_type", ev.EventType), zap.Error(err))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.output.WriteMessage(ev.Topic(), msg); err != nil {
		r.log.Warn("write event", zap.String("event_type", ev.EventType), zap.Error(err))
	}
}

func (r *Recorder) Close() error {
	if r == nil || r.output == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output.Close()
}
