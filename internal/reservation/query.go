package reservation

import (
	"time"

	"github.com/Masterminds/squirrel"
)

var reservationColumns = []string{
	"rv.id", "rv.resource_id", "rs.name", "rv.user_id",
	"rv.start_time", "rv.end_time", "rv.created_at", "rv.updated_at",
}

// queryBuilder produces the statements shared by the Postgres and SQLite stores.
// timeArg converts a time into the representation the store keeps on disk.
type queryBuilder struct {
	sb      squirrel.StatementBuilderType
	timeArg func(time.Time) any
}

func (q queryBuilder) selectReservations(f Filter) squirrel.SelectBuilder {
	query := q.sb.Select(reservationColumns...).
		From("reservations rv").
		Join("resources rs ON rs.id = rv.resource_id")

	query = q.applyFilter(query, f).OrderBy("rv.created_at DESC", "rv.id DESC")
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}
	return query
}

func (q queryBuilder) countReservations(f Filter) squirrel.SelectBuilder {
	return q.applyFilter(q.sb.Select("count(*)").From("reservations rv"), f)
}

func (q queryBuilder) applyFilter(query squirrel.SelectBuilder, f Filter) squirrel.SelectBuilder {
	if f.ID != "" {
		query = query.Where(squirrel.Eq{"rv.id": f.ID})
	}
	if f.OwnerID != "" {
		query = query.Where(squirrel.Eq{"rv.user_id": f.OwnerID})
	}
	if f.ResourceID != "" {
		query = query.Where(squirrel.Eq{"rv.resource_id": f.ResourceID})
	}
	if f.Before != nil {
		query = query.Where(q.before(*f.Before))
	}
	return query
}

// before matches rows that sort strictly after c in (created_at DESC, id DESC) order.
func (q queryBuilder) before(c Cursor) squirrel.Sqlizer {
	createdAt := q.timeArg(c.CreatedAt)
	if c.ID == "" {
		return squirrel.Lt{"rv.created_at": createdAt}
	}
	return squirrel.Or{
		squirrel.Lt{"rv.created_at": createdAt},
		squirrel.And{
			squirrel.Eq{"rv.created_at": createdAt},
			squirrel.Lt{"rv.id": c.ID},
		},
	}
}

// overlapping selects reservations on resourceID whose window intersects w:
// existing.start < w.end AND existing.end > w.start.
func (q queryBuilder) overlapping(resourceID string, w Window, excludeID string) squirrel.SelectBuilder {
	query := q.sb.Select(reservationColumns...).
		From("reservations rv").
		Join("resources rs ON rs.id = rv.resource_id").
		Where(squirrel.Eq{"rv.resource_id": resourceID}).
		Where(squirrel.Lt{"rv.start_time": q.timeArg(w.End)}).
		Where(squirrel.Gt{"rv.end_time": q.timeArg(w.Start)}).
		OrderBy("rv.start_time ASC")

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"rv.id": excludeID})
	}
	return query
}

func (q queryBuilder) deleteReservation(id, ownerID string) squirrel.DeleteBuilder {
	query := q.sb.Delete("reservations").Where(squirrel.Eq{"id": id})
	if ownerID != "" {
		query = query.Where(squirrel.Eq{"user_id": ownerID})
	}
	return query
}
