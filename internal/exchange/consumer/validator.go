package consumer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Artexxx/employee-service/internal/dto"
)

func validateEnvelope(env dto.EmployeeEnvelope) string {
	if env.MessageID == uuid.Nil {
		return "missing required field message_id"
	}

	if !env.Kind.Valid() {
		return fmt.Sprintf("invalid enum value: kind %q not in [created updated patched deleted]", env.Kind)
	}

	if strings.TrimSpace(env.EmployeeID) == "" {
		// удаление по email приходит без идентификатора
		if env.Kind == dto.EventDeleted && strings.TrimSpace(env.Payload.Email) != "" {
			return ""
		}
		return "missing required field employee_id"
	}

	if !dto.ValidID(env.EmployeeID) {
		return fmt.Sprintf("invalid value in field 'employee_id'=%s", env.EmployeeID)
	}

	if env.Payload.ID != "" && env.Payload.ID != env.EmployeeID {
		return fmt.Sprintf("invalid value in field 'payload.id'=%s, expected %s", env.Payload.ID, env.EmployeeID)
	}

	return ""
}
