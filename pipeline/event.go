package pipeline

import "time"

// Event describes one finished prediction attempt.
type Event struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs float64   `json:"latency_ms"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
}

func NewEvent(requestID string, started time.Time, result *Result, err error) Event {
	event := Event{
		RequestID: requestID,
		Timestamp: started,
		LatencyMs: float64(time.Since(started).Microseconds()) / 1000,
		Result:    result,
	}
	if err != nil {
		event.Error = err.Error()
		event.ErrorKind = ErrorKind(err)
	}
	return event
}

// Observer is notified after every prediction. Implementations must not
// block for long; they run on the request goroutine.
type Observer interface {
	Observe(event Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(event Event) { f(event) }
