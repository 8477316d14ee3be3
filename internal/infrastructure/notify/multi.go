package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

// Sink is a named notifier inside a Multi
type Sink struct {
	Name     string
	Notifier copilot.Notifier
}

// Multi publishes to every sink. One failing sink does not stop the others;
// their errors are joined.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s.Notifier != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Publish(ctx context.Context, event copilot.Event) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Notifier.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
