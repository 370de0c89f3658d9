// Package patcher применяет операции PATCH (add, remove, replace) к сотруднику.
package patcher

import (
	"fmt"
	"slices"

	"github.com/Artexxx/employee-service/internal/dto"
)

// InvalidSkillError - значение операции над /skills не является навыком.
type InvalidSkillError struct {
	Value string
}

func (e *InvalidSkillError) Error() string {
	return fmt.Sprintf("%s is not a valid skill", e.Value)
}

// Apply возвращает копию employee с применёнными операциями. Порядок фиксирован
// и не зависит от порядка в ops: все replace, затем все add, затем все remove.
// Операции одного вида применяются в порядке следования, каждая к результату
// предыдущей. Неизвестные операции и пути игнорируются. Поля не валидируются.
func Apply(employee dto.Employee, ops []dto.PatchOperation) (dto.Employee, error) {
	out := employee.Clone()

	for _, op := range ops {
		if op.Op == dto.OpReplace {
			out = replace(out, op)
		}
	}

	for _, op := range ops {
		if op.Op != dto.OpAdd || op.Path != dto.PathSkills {
			continue
		}

		skill, err := resolve(op.Value)
		if err != nil {
			return dto.Employee{}, err
		}
		out.Skills = append(slices.Clone(out.Skills), skill)
	}

	for _, op := range ops {
		if op.Op != dto.OpRemove || op.Path != dto.PathSkills {
			continue
		}

		skill, err := resolve(op.Value)
		if err != nil {
			return dto.Employee{}, err
		}
		out.Skills = slices.DeleteFunc(slices.Clone(out.Skills), func(s dto.Skill) bool { return s == skill })
	}

	return out, nil
}

func replace(employee dto.Employee, op dto.PatchOperation) dto.Employee {
	switch op.Path {
	case dto.PathLastname:
		employee.Lastname = op.Value
	case dto.PathEmail:
		employee.Email = op.Value
	}

	return employee
}

func resolve(value string) (dto.Skill, error) {
	skill, ok := dto.ParseSkill(value)
	if !ok {
		return "", &InvalidSkillError{Value: value}
	}

	return skill, nil
}
