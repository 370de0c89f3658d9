package dto

import (
	"regexp"
	"slices"
)

const hexPattern = `[\dA-Fa-f]`

// IDPattern - шаблон идентификатора сотрудника (UUID вида 8-4-4-4-12).
const IDPattern = hexPattern + `{8}-` + hexPattern + `{4}-` + hexPattern + `{4}-` + hexPattern + `{4}-` + hexPattern + `{12}`

const (
	lastnamePrefix = `o'|von|von der|von und zu|van`
	namePattern    = `[A-ZÄÖÜ][a-zäöüß]+`
)

// LastnamePattern - шаблон фамилии: необязательная приставка, слово с заглавной буквы,
// необязательная вторая часть через дефис.
const LastnamePattern = `(?:` + lastnamePrefix + `)?` + namePattern + `(?:-` + namePattern + `)?`

var (
	regexID       = regexp.MustCompile(`^` + IDPattern + `$`)
	regexLastname = regexp.MustCompile(`^` + LastnamePattern + `$`)
)

// ValidID проверяет, что строка соответствует IDPattern.
func ValidID(id string) bool {
	return regexID.MatchString(id)
}

// ValidLastname проверяет, что строка соответствует LastnamePattern.
func ValidLastname(lastname string) bool {
	return regexLastname.MatchString(lastname)
}

// Link - одна HATEOAS-ссылка, например {"href": "https://localhost:8080/"}.
type Link map[string]string

// Employee - данные сотрудника. Значение неизменяемое: все изменения
// выполняются над копией (см. Clone).
type Employee struct {
	ID       string  `json:"id,omitempty" validate:"omitempty,employeeid" example:"00000000-0000-0000-0000-000000000001"` // Идентификатор, отсутствует до создания
	Lastname string  `json:"lastname" validate:"required,lastname" example:"Müller"`                                    // Фамилия
	Birthday *Date   `json:"birthday,omitempty" validate:"omitempty,past" example:"1990-05-17"`                         // Дата рождения (YYYY-MM-DD)
	Skills   []Skill `json:"skills,omitempty" validate:"unique" example:"J,A"`                                          // Навыки без повторов
	Email    string  `json:"email" validate:"required,email" example:"mueller@firma.de"`                                // Почта, ключ равенства

	// SingleLinks заполняется, если в ответе ровно один сотрудник.
	SingleLinks map[string]Link `json:"_links,omitempty" validate:"-"`
	// ItemLinks заполняется для элементов списка.
	ItemLinks []Link `json:"links,omitempty" validate:"-"`
}

// Equal сравнивает сотрудников только по email.
func (e Employee) Equal(other Employee) bool {
	return e.Email == other.Email
}

// Key возвращает ключ равенства (email).
func (e Employee) Key() string {
	return e.Email
}

// Clone возвращает независимую копию без ссылок.
func (e Employee) Clone() Employee {
	out := e
	out.Skills = slices.Clone(e.Skills)
	if e.Birthday != nil {
		b := *e.Birthday
		out.Birthday = &b
	}
	out.SingleLinks = nil
	out.ItemLinks = nil

	return out
}

// HasSkill сообщает, есть ли навык у сотрудника.
func (e Employee) HasSkill(s Skill) bool {
	return slices.Contains(e.Skills, s)
}
