package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sfhouse/intake/internal/domain"
	"github.com/sfhouse/intake/internal/repository"
	"github.com/sfhouse/intake/pkg/events"
	"github.com/sfhouse/intake/pkg/logger"
)

// ClientService carries the intake desk operations: lookup, record
// editing, check-in/out with visit capture, and the ban flag.
type ClientService struct {
	clients   repository.ClientRepository
	visits    repository.VisitRepository
	publisher events.Publisher
}

func NewClientService(clients repository.ClientRepository, visits repository.VisitRepository, publisher events.Publisher) *ClientService {
	return &ClientService{
		clients:   clients,
		visits:    visits,
		publisher: publisher,
	}
}

func (s *ClientService) Search(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.Client, error) {
	clients, err := s.clients.Search(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	return clients, nil
}

func (s *ClientService) Create(ctx context.Context, rec domain.ClientRecord) (*domain.Client, error) {
	client, err := s.clients.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.publish(ctx, events.ClientCreated, events.ClientCreatedEvent{
		ClientID:  client.ID,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		CreatedAt: client.CreatedAt,
	})

	return client, nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// Put overwrites the record at id; the whole document is replaced, so
// the latest write wins field by field.
func (s *ClientService) Put(ctx context.Context, id string, c domain.Client) (*domain.Client, error) {
	before, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if before == nil {
		return nil, nil
	}

	updated, err := s.clients.Put(ctx, id, c)
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	if changes := detectChanges(before, updated); len(changes) > 0 {
		s.publish(ctx, events.ClientUpdated, events.ClientUpdatedEvent{
			ClientID:  id,
			Changes:   changes,
			UpdatedAt: updated.UpdatedAt,
		})
	}

	return updated, nil
}

// CheckIn records a visit with the client's requests and flips the
// checked-in flag. The visit is written first so a failure between the
// two writes never loses the visit.
func (s *ClientService) CheckIn(ctx context.Context, clientID string, rec domain.VisitRecord) (*domain.Client, *domain.Visit, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client == nil {
		return nil, nil, nil
	}

	visit, err := s.visits.Create(ctx, clientID, rec)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record visit: %w", err)
	}

	client, err = s.clients.SetCheckedIn(ctx, clientID, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check in client: %w", err)
	}

	s.publish(ctx, events.VisitCreated, events.VisitCreatedEvent{
		VisitID:   visit.ID,
		ClientID:  clientID,
		Timestamp: visit.Timestamp,
	})
	s.publish(ctx, events.ClientCheckedIn, events.ClientCheckedInEvent{
		ClientID:    clientID,
		VisitID:     visit.ID,
		CheckedInAt: time.Now(),
	})

	return client, visit, nil
}

func (s *ClientService) CheckOut(ctx context.Context, clientID string) (*domain.Client, error) {
	client, err := s.clients.SetCheckedIn(ctx, clientID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to check out client: %w", err)
	}
	if client == nil {
		return nil, nil
	}

	s.publish(ctx, events.ClientCheckedOut, events.ClientCheckedOutEvent{
		ClientID:     clientID,
		CheckedOutAt: time.Now(),
	})

	return client, nil
}

func (s *ClientService) SetBanned(ctx context.Context, clientID string, banned bool) (*domain.Client, error) {
	client, err := s.clients.SetBanned(ctx, clientID, banned)
	if err != nil {
		return nil, fmt.Errorf("failed to set ban flag: %w", err)
	}
	if client == nil {
		return nil, nil
	}

	subject := events.ClientBanned
	if !banned {
		subject = events.ClientUnbanned
	}
	s.publish(ctx, subject, events.ClientBannedEvent{
		ClientID: clientID,
		Banned:   banned,
		At:       time.Now(),
	})

	return client, nil
}

func (s *ClientService) ListVisits(ctx context.Context, clientID string, limit int) ([]domain.Visit, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client == nil {
		return nil, nil
	}

	visits, err := s.visits.ListByClient(ctx, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	if visits == nil {
		visits = []domain.Visit{}
	}
	return visits, nil
}

func (s *ClientService) GetVisit(ctx context.Context, clientID, visitID string) (*domain.Visit, error) {
	visit, err := s.visits.GetByID(ctx, clientID, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return visit, nil
}

// publish sends a domain event; delivery is best effort and failures
// only log.
func (s *ClientService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

func detectChanges(before, after *domain.Client) []string {
	var changes []string
	add := func(field string, changed bool) {
		if changed {
			changes = append(changes, field)
		}
	}
	add("first_name", before.FirstName != after.FirstName)
	add("last_name", before.LastName != after.LastName)
	add("middle_initial", before.MiddleInitial != after.MiddleInitial)
	add("birthday", before.Birthday != after.Birthday)
	add("gender", before.Gender != after.Gender)
	add("race", before.Race != after.Race)
	add("postal_code", before.PostalCode != after.PostalCode)
	add("num_kids", before.NumKids != after.NumKids)
	add("notes", before.Notes != after.Notes)
	add("is_checked_in", before.IsCheckedIn != after.IsCheckedIn)
	add("is_banned", before.IsBanned != after.IsBanned)
	return changes
}
