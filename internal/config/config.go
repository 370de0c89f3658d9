package config

import (
	"github.com/Artexxx/employee-service/library/pg"
	"github.com/Artexxx/employee-service/library/yamlenv"
)

type Config struct {
	Postgres  pg.PostgresConfig `yaml:"postgres"`
	Kafka     KafkaConfig       `yaml:"kafka"`
	UserAPI   ApiConfig         `yaml:"userAPI"`
	Security  SecurityConfig    `yaml:"security"`
	Generator GeneratorConfig   `yaml:"generator"`
	Log       LogConfig         `yaml:"log"`
}

type KafkaConfig struct {
	Bootstrap        *yamlenv.Env[string] `yaml:"bootstrap"`
	ProducerClientID *yamlenv.Env[string] `yaml:"producer_client_id"`
	Topic            *yamlenv.Env[string] `yaml:"topic"`
	GroupID          *yamlenv.Env[string] `yaml:"group_id"`
}

// Enabled сообщает, что задан адрес брокера.
func (c KafkaConfig) Enabled() bool {
	return c.Bootstrap.Get() != ""
}

type ApiConfig struct {
	Port    *yamlenv.Env[int]    `yaml:"port"`
	Profile *yamlenv.Env[string] `yaml:"profile"` // dev включает подробный лог запросов
	Name    *yamlenv.Env[string] `yaml:"name"`
}

type SecurityConfig struct {
	Realm         *yamlenv.Env[string] `yaml:"realm"`
	AdminPassword *yamlenv.Env[string] `yaml:"admin_password"`
	AlphaPassword *yamlenv.Env[string] `yaml:"alpha_password"`
	BcryptCost    *yamlenv.Env[int]    `yaml:"bcrypt_cost"`
}

type GeneratorConfig struct {
	Seed         *yamlenv.Env[int64] `yaml:"seed"` // 0 - от текущего времени
	MaxEmployees *yamlenv.Env[int]   `yaml:"max_employees"`
}

type LogConfig struct {
	Level   *yamlenv.Env[string] `yaml:"level"`
	Console *yamlenv.Env[bool]   `yaml:"console"`
}
