package dto

// Операции PATCH.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// Пути PATCH.
const (
	PathLastname = "/nachname"
	PathEmail    = "/email"
	PathSkills   = "/skills"
)

// PatchOperation - одна операция PATCH, например
// {"op": "replace", "path": "/email", "value": "new.email@test.de"}.
type PatchOperation struct {
	Op    string `json:"op" example:"replace"`         // add | remove | replace
	Path  string `json:"path" example:"/email"`        // /nachname | /email | /skills
	Value string `json:"value" example:"new@firma.de"` // Новое значение или код навыка
}
