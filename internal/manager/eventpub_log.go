package manager

import "github.com/rs/zerolog"

// LogPublisher writes events to a zerolog logger, errors at warn level and
// everything else at debug.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher returns a publisher that logs through l.
func NewLogPublisher(l zerolog.Logger) *LogPublisher { return &LogPublisher{log: l} }

// Publish logs e with its model and fields.
func (p *LogPublisher) Publish(e Event) {
	ev := p.log.Debug()
	if e.Name == EventStreamError {
		ev = p.log.Warn()
	}
	ev.Str("event", e.Name).Str("model", e.ModelID).Fields(e.Fields).Msg("stream event")
}
