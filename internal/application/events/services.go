package events

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/aegis-api/internal/application"
	domain "github.com/bryanwahyu/aegis-api/internal/domain/events"
)

// Service implements use-cases untuk scan events.
// Every call runs in its own unit of work, so Service is safe for concurrent use.
type Service struct {
	UoW   domain.UnitOfWork
	Clock application.Clock
}

func NewService(uow domain.UnitOfWork, clock application.Clock) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{UoW: uow, Clock: clock}
}

// CreateEventCommand is a finding as reported by the scanner. Timestamp is
// the raw string sent by the client.
type CreateEventCommand struct {
	Timestamp   string
	ProjectName string
	FilePath    string
	SecretType  string
	Confidence  float64
	LineNumber  int
	Preview     *string
}

// Create stores one event. An unparseable timestamp is replaced with the
// current time instead of being rejected.
func (s *Service) Create(ctx context.Context, cmd CreateEventCommand) (*domain.ScanEvent, error) {
	now := s.Clock.Now()

	ts, err := domain.ParseTimestamp(cmd.Timestamp)
	if err != nil {
		ts = now
	}

	e := &domain.ScanEvent{
		Timestamp:   ts,
		ProjectName: cmd.ProjectName,
		FilePath:    cmd.FilePath,
		SecretType:  cmd.SecretType,
		Confidence:  cmd.Confidence,
		LineNumber:  cmd.LineNumber,
		Preview:     cmd.Preview,
		CreatedAt:   now,
	}

	err = s.UoW.Do(ctx, func(repo domain.Repository) error {
		return repo.Insert(ctx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("insert scan event: %w", err)
	}
	return e, nil
}

// List returns one page of events, newest timestamp first.
func (s *Service) List(ctx context.Context, f domain.ListFilter) ([]*domain.ScanEvent, error) {
	var out []*domain.ScanEvent
	err := s.UoW.Do(ctx, func(repo domain.Repository) error {
		var err error
		out, err = repo.List(ctx, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list scan events: %w", err)
	}
	if out == nil {
		out = []*domain.ScanEvent{}
	}
	return out, nil
}

// Stats rekap jumlah event: total, per project, per secret type
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	err := s.UoW.Do(ctx, func(repo domain.Repository) error {
		var err error
		if st.TotalEvents, err = repo.Count(ctx); err != nil {
			return err
		}
		if st.ByProject, err = repo.CountByProject(ctx); err != nil {
			return err
		}
		st.BySecretType, err = repo.CountBySecretType(ctx)
		return err
	})
	if err != nil {
		return domain.Stats{}, fmt.Errorf("scan event stats: %w", err)
	}
	if st.ByProject == nil {
		st.ByProject = []domain.ProjectCount{}
	}
	if st.BySecretType == nil {
		st.BySecretType = []domain.SecretTypeCount{}
	}
	return st, nil
}
