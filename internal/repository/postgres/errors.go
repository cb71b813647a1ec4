package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation: код ошибки PostgreSQL для нарушения уникальности
const pgUniqueViolation = "23505"

// isUniqueViolation распознает нарушение уникального ограничения.
// gorm с TranslateError возвращает ErrDuplicatedKey, без него приходит *pgconn.PgError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// byOrder строит ORDER BY "order", id для таблицы. Имя колонки order экранируется диалектом.
func byOrder(table string) clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Table: table, Name: "order"}},
		{Column: clause.Column{Table: table, Name: "id"}},
	}}
}
