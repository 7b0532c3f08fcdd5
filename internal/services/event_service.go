package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/scheduleu-web/internal/models"
)

const eventTimeLayout = "2006-01-02 15:04:05"

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, userID *string) error
	GetEventsForUser(userID string, limit int) ([]models.Event, error)
	PruneBefore(cutoff time.Time) (int64, error)
}

// EventService provides business logic for event management.
type EventService struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(eventType, level, message string, userID *string) error {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Level:   level,
		Message: message,
		UserID:  userID,
	}

	stmt, err := s.db.Prepare("INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(event.ID, event.Type, event.Level, event.Message, event.UserID, s.now().UTC().Format(eventTimeLayout))
	return err
}

// GetEventsForUser retrieves the most recent events recorded for one user.
func (s *EventService) GetEventsForUser(userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, user_id, created_at FROM events WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?", userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// PruneBefore deletes events created before cutoff and reports how many went.
func (s *EventService) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM events WHERE created_at < ?", cutoff.UTC().Format(eventTimeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var createdAt any
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &createdAt); err != nil {
			return nil, err
		}
		event.CreatedAt = parseEventTime(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}

// parseEventTime accepts both driver representations of a DATETIME column.
func parseEventTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		parsed, _ := time.ParseInLocation(eventTimeLayout, t, time.UTC)
		return parsed
	case []byte:
		parsed, _ := time.ParseInLocation(eventTimeLayout, string(t), time.UTC)
		return parsed
	}
	return time.Time{}
}
