package schema

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// Statement is one additive DDL step with a stable name for logging.
type Statement struct {
	Name string
	SQL  string
}

// Executor abstracts statement execution so the engine can be exercised
// without a live database.
type Executor interface {
	Exec(sql string) error
}

type gormExecutor struct {
	db *gorm.DB
}

func (g gormExecutor) Exec(sql string) error {
	return g.db.Exec(sql).Error
}

// NewExecutor wraps a GORM handle as an Executor.
func NewExecutor(db *gorm.DB) Executor {
	return gormExecutor{db: db}
}

// Ensure applies each statement independently and swallows individual
// failures: the statements are additive and naturally idempotent, so an
// "already exists" error means the schema is already converged for that
// step. Returns the number of statements that executed without error.
func Ensure(ex Executor, statements []Statement) int {
	applied := 0
	for _, stmt := range statements {
		if err := ex.Exec(stmt.SQL); err != nil {
			log.Warnf("[SchemaEnsure] Statement %s skipped: %v", stmt.Name, err)
			continue
		}
		applied++
	}
	return applied
}

// EnsureDB is Ensure over a GORM handle.
func EnsureDB(db *gorm.DB, statements []Statement) int {
	return Ensure(NewExecutor(db), statements)
}

// Ensurer remembers which endpoints already converged during this process so
// the per-request ensure call costs a map lookup after the first pass. The
// statements stay idempotent, so losing this cache on restart is safe.
type Ensurer struct {
	mu   sync.Mutex
	done map[string]bool
}

// NewEnsurer creates an empty per-process convergence cache.
func NewEnsurer() *Ensurer {
	return &Ensurer{done: make(map[string]bool)}
}

// EnsureOnce runs Ensure for the endpoint the first time it is seen and is a
// no-op afterwards.
func (e *Ensurer) EnsureOnce(endpoint string, ex Executor, statements []Statement) {
	e.mu.Lock()
	if e.done[endpoint] {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	Ensure(ex, statements)

	e.mu.Lock()
	e.done[endpoint] = true
	e.mu.Unlock()
}
