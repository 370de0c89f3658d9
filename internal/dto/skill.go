package dto

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Skill - навык сотрудника. Значение хранится в виде однобуквенного кода.
type Skill string

const (
	SkillKotlin          Skill = "K"
	SkillJava            Skill = "J"
	SkillApacheCassandra Skill = "A"
)

var skillNames = map[Skill]string{
	SkillKotlin:          "KOTLIN",
	SkillJava:            "JAVA",
	SkillApacheCassandra: "APACHE_CASSANDRA",
}

// Skills возвращает все навыки в порядке объявления.
func Skills() []Skill {
	return []Skill{SkillKotlin, SkillJava, SkillApacheCassandra}
}

// Name возвращает имя навыка, например JAVA.
func (s Skill) Name() string {
	return skillNames[s]
}

func (s Skill) String() string {
	return string(s)
}

// ParseSkill ищет навык по коду или имени без учёта регистра.
func ParseSkill(value string) (Skill, bool) {
	for _, s := range Skills() {
		if strings.EqualFold(value, string(s)) || strings.EqualFold(value, s.Name()) {
			return s, true
		}
	}

	return "", false
}

func (s Skill) MarshalJSON() ([]byte, error) {
	if _, ok := skillNames[s]; !ok {
		return nil, fmt.Errorf("unknown skill %q", string(s))
	}

	return json.Marshal(string(s))
}

func (s *Skill) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, ok := ParseSkill(raw)
	if !ok {
		return &SkillDecodeError{Value: raw}
	}
	*s = parsed

	return nil
}

// SkillDecodeError - в JSON передан неизвестный навык.
type SkillDecodeError struct {
	Value string
}

func (e *SkillDecodeError) Error() string {
	return fmt.Sprintf("invalid skill %q", e.Value)
}
