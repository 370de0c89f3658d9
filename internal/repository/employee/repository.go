// Package employee - источник данных сотрудников без хранения: каждый запрос
// генерирует новые записи.
package employee

import (
	"context"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Artexxx/employee-service/internal/dto"
)

const (
	DefaultMaxEmployees = 8
	maxAgeYears         = 60
	emailDomain         = "@firma.de"
)

var lastnames = []string{"Ulrich", "Ogbe", "Müller", "Schmidt", "Nochjemand"}

type Config struct {
	MaxEmployees int
}

type Repository struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	now   func() time.Time
	limit int
	log   zerolog.Logger
	newID func() string
}

// NewRepository создаёт генератор. rnd используется под мьютексом, now задаёт
// текущую дату для дат рождения.
func NewRepository(cfg Config, rnd *rand.Rand, now func() time.Time, log zerolog.Logger) *Repository {
	if cfg.MaxEmployees <= 0 {
		cfg.MaxEmployees = DefaultMaxEmployees
	}
	if now == nil {
		now = time.Now
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(now().UnixNano()))
	}

	return &Repository{
		rnd:   rnd,
		now:   now,
		limit: cfg.MaxEmployees,
		log:   log.With().Str("component", "EmployeeRepository").Logger(),
		newID: uuid.NewString,
	}
}

// FindByID возвращает dto.ErrNotFound для идентификаторов, начинающихся с 'f' или 'F'.
func (r *Repository) FindByID(_ context.Context, id string) (*dto.Employee, error) {
	if notFound(id) {
		return nil, dto.ErrNotFound
	}

	employee := r.generate(id, r.randomLastname())

	return &employee, nil
}

// Find ищет по параметрам запроса: email или lastname. Пустой запрос - все сотрудники.
func (r *Repository) Find(ctx context.Context, query map[string][]string) ([]dto.Employee, error) {
	if len(query) == 0 {
		return r.FindAll(ctx)
	}

	for _, key := range slices.Sorted(maps.Keys(query)) {
		values := query[key]
		if len(values) != 1 {
			return nil, nil
		}

		switch key {
		case "email":
			employee := r.findByEmail(values[0])
			return []dto.Employee{employee}, nil
		case "lastname":
			return r.findByLastname(ctx, values[0])
		}
	}

	return nil, nil
}

func (r *Repository) FindAll(_ context.Context) ([]dto.Employee, error) {
	out := make([]dto.Employee, 0, r.limit)
	for range r.limit {
		out = append(out, r.generate(r.existingID(), r.randomLastname()))
	}

	return out, nil
}

func (r *Repository) findByLastname(ctx context.Context, lastname string) ([]dto.Employee, error) {
	if strings.TrimSpace(lastname) == "" {
		return r.FindAll(ctx)
	}

	if strings.HasPrefix(lastname, "Z") {
		return nil, nil
	}

	count := len([]rune(lastname))
	out := make([]dto.Employee, 0, count)
	for range count {
		out = append(out, r.generate(r.existingID(), lastname))
	}

	return out, nil
}

func (r *Repository) findByEmail(email string) dto.Employee {
	employee := r.generate(r.existingID(), r.randomLastname())
	employee.Email = email

	return employee
}

// Create присваивает новому сотруднику идентификатор.
func (r *Repository) Create(_ context.Context, e dto.Employee) (*dto.Employee, error) {
	created := e.Clone()
	created.ID = r.newID()

	r.log.Debug().Str("employee_id", created.ID).Msg("employee created")

	return &created, nil
}

// Update возвращает e с идентификатором id или dto.ErrNotFound.
func (r *Repository) Update(ctx context.Context, e dto.Employee, id string) (*dto.Employee, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}

	updated := e.Clone()
	updated.ID = id

	r.log.Debug().Str("employee_id", id).Msg("employee updated")

	return &updated, nil
}

// DeleteByID всегда успешен: удаление идемпотентно.
func (r *Repository) DeleteByID(_ context.Context, id string) error {
	r.log.Debug().Str("employee_id", id).Msg("employee deleted")
	return nil
}

func (r *Repository) DeleteByEmail(_ context.Context, email string) error {
	r.log.Debug().Str("email", email).Msg("employee deleted by email")
	return nil
}

func (r *Repository) generate(id, lastname string) dto.Employee {
	birthday := dto.DateOf(r.now()).AddYears(-r.randomYears())

	return dto.Employee{
		ID:       id,
		Lastname: lastname,
		Birthday: &birthday,
		Skills:   []dto.Skill{dto.SkillJava, dto.SkillApacheCassandra},
		Email:    lastname + emailDomain,
	}
}

// existingID генерирует идентификатор, который FindByID не сочтёт отсутствующим.
func (r *Repository) existingID() string {
	id := r.newID()
	if notFound(id) {
		id = "1" + id[1:]
	}

	return id
}

func (r *Repository) randomLastname() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lastnames[r.rnd.Intn(len(lastnames))]
}

func (r *Repository) randomYears() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rnd.Intn(maxAgeYears) + 1
}

func notFound(id string) bool {
	return id == "" || id[0] == 'f' || id[0] == 'F'
}
