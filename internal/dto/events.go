package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventKind - тип изменения сотрудника.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventPatched EventKind = "patched"
	EventDeleted EventKind = "deleted"
)

// Valid сообщает, что тип события известен.
func (k EventKind) Valid() bool {
	switch k {
	case EventCreated, EventUpdated, EventPatched, EventDeleted:
		return true
	}

	return false
}

// EmployeeEnvelope - сообщение об изменении сотрудника в Kafka.
type EmployeeEnvelope struct {
	Kind       EventKind `json:"kind" example:"created"`                                     // Тип события
	MessageID  uuid.UUID `json:"message_id" example:"c7e06db5-4b71-4c54-9334-3f9a6e6c5d0e"` // Идентификатор события (UUID v4)
	EmployeeID string    `json:"employee_id" example:"00000000-0000-0000-0000-000000000001"` // Идентификатор сотрудника
	Payload    Employee  `json:"payload"`                                                    // Данные сотрудника после изменения
	Timestamp  time.Time `json:"timestamp" example:"2025-10-19T12:34:56Z"`                   // Время формирования события
	Source     string    `json:"source" example:"employee-service"`                         // Сервис-источник
}

// EmployeeEvent - запись журнала событий.
type EmployeeEvent struct {
	ID         int64           `json:"id"`
	MessageID  uuid.UUID       `json:"message_id"`
	Kind       EventKind       `json:"kind"`
	EmployeeID string          `json:"employee_id"`
	Topic      string          `json:"topic"`
	Partition  int             `json:"partition"`
	Offset     int64           `json:"offset"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt string          `json:"received_at"`
}

// EmployeeEventDLQ - сообщение, которое не удалось записать в журнал.
type EmployeeEventDLQ struct {
	ID         int64  `json:"id"`
	Topic      string `json:"topic"`
	Key        string `json:"key"`
	Payload    string `json:"payload"` // Исходное сообщение как есть, может быть не JSON
	Error      string `json:"error"`
	ReceivedAt string `json:"received_at"`
}
