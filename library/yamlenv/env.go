// Package yamlenv позволяет задавать значения конфигурации в YAML либо литералом,
// либо ссылкой на переменную окружения вида ${NAME} или ${NAME:default}.
package yamlenv

import (
	"fmt"
	"os"
	"reflect"
	"regexp"

	"gopkg.in/yaml.v3"
)

var regexRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)(?::(.*))?\}$`)

// Env - значение конфигурации с возможной подстановкой из окружения.
type Env[T any] struct {
	Value T
	// Name - имя переменной окружения, если значение задано ссылкой.
	Name string
}

// New возвращает Env с литеральным значением.
func New[T any](v T) *Env[T] {
	return &Env[T]{Value: v}
}

// Get безопасен для nil и возвращает нулевое значение T.
func (e *Env[T]) Get() T {
	if e == nil {
		var zero T
		return zero
	}

	return e.Value
}

// GetOr возвращает def, если значение не задано.
func (e *Env[T]) GetOr(def T) T {
	if e == nil {
		return def
	}

	if reflect.ValueOf(&e.Value).Elem().IsZero() {
		return def
	}

	return e.Value
}

func (e *Env[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return node.Decode(&e.Value)
	}

	m := regexRef.FindStringSubmatch(node.Value)
	if m == nil {
		return node.Decode(&e.Value)
	}

	e.Name = m[1]
	raw, ok := os.LookupEnv(e.Name)
	if !ok {
		raw = m[2]
	}

	if raw == "" {
		var zero T
		e.Value = zero
		return nil
	}

	var resolved yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &resolved); err != nil || len(resolved.Content) == 0 {
		resolved = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: raw}
	} else {
		resolved = *resolved.Content[0]
	}

	if err := resolved.Decode(&e.Value); err != nil {
		// строковые поля получают значение как есть, например пароль "123"
		str := yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: raw}
		if strErr := str.Decode(&e.Value); strErr != nil {
			return fmt.Errorf("env %s: %w", e.Name, err)
		}
	}

	return nil
}
