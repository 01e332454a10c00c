package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"todolists/internal/adapter/database/sqlite"
	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	tel "todolists/internal/core/telemetry"
)

type TodoRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) *TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

var _ port.TodoStore = (*TodoRepository)(nil)

func (tr *TodoRepository) InsertListAtEnd(ctx context.Context, list domain.TodoList) (int64, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "InsertListAtEnd", "todo_list", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_list",
		"db.operation": "INSERT",
	})

	var id int64

	err := tr.write(ctx, func(tx *sql.Tx) error {
		position, err := tr.nextPosition(ctx, op, tx, "todo_list", nil)
		if err != nil {
			return err
		}

		columns := reminderColumns(list.Reminder)
		columns["name"] = list.Name
		columns["position"] = position

		id, err = tr.insert(ctx, op, tx, tr.db.QueryBuilder.Insert("todo_list").SetMap(columns))
		return err
	})

	if err == nil {
		op.SetAttributes(map[string]interface{}{"todo_list.id": id})
		tr.telemetry.RecordBusinessEvent(ctx, "created", "todo_list", id, map[string]interface{}{"name": list.Name})
	}

	return id, op.End(err)
}

func (tr *TodoRepository) GetList(ctx context.Context, id int64) (domain.TodoList, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "GetList", "todo_list", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_list",
		"todo_list.id": id,
	})

	var list domain.TodoList

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		list, err = tr.getList(ctx, op, tx, id)
		return err
	})

	return list, op.End(err)
}

func (tr *TodoRepository) GetLists(ctx context.Context) ([]domain.TodoList, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "GetLists", "todo_list", map[string]interface{}{
		"db.system": "sqlite",
		"db.table":  "todo_list",
	})

	var lists []domain.TodoList

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		lists, err = tr.queryLists(ctx, op, tx, tr.db.QueryBuilder.Select(listColumns...).
			From("todo_list").
			OrderBy("position ASC, id ASC"))
		return err
	})

	op.SetAttributes(map[string]interface{}{"db.rows_returned": len(lists)})

	return lists, op.End(err)
}

func (tr *TodoRepository) GetListsWithReminder(ctx context.Context, kind domain.ReminderKind) ([]domain.TodoList, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "GetListsWithReminder", "todo_list", map[string]interface{}{
		"db.system":     "sqlite",
		"db.table":      "todo_list",
		"reminder.kind": string(kind),
	})

	var lists []domain.TodoList

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		lists, err = tr.queryLists(ctx, op, tx, tr.db.QueryBuilder.Select(listColumns...).
			From("todo_list").
			Where(sq.Eq{"reminder_kind": string(kind)}).
			OrderBy("position ASC, id ASC"))
		return err
	})

	op.SetAttributes(map[string]interface{}{"db.rows_returned": len(lists)})

	return lists, op.End(err)
}

func (tr *TodoRepository) RenameList(ctx context.Context, id int64, name string) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "RenameList", "todo_list", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_list",
		"db.operation": "UPDATE",
		"todo_list.id": id,
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		affected, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_list").
			Set("name", name).
			Where(sq.Eq{"id": id}))

		if err == nil && affected == 0 {
			return listNotFound(id)
		}

		return err
	})

	return op.End(err)
}

// MoveList shifts every other list at or after newPosition up by one and
// places the list at newPosition.
func (tr *TodoRepository) MoveList(ctx context.Context, id int64, newPosition int) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "MoveList", "todo_list", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_list",
		"db.operation": "UPDATE",
		"todo_list.id": id,
		"position.new": newPosition,
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		if _, err := tr.getList(ctx, op, tx, id); err != nil {
			return err
		}

		if _, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_list").
			Set("position", sq.Expr("position + 1")).
			Where(sq.GtOrEq{"position": newPosition}).
			Where(sq.NotEq{"id": id})); err != nil {
			return err
		}

		_, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_list").
			Set("position", newPosition).
			Where(sq.Eq{"id": id}))
		return err
	})

	return op.End(err)
}

// DeleteList removes the list and, through the foreign keys, its items. The
// notification records they held are released by triggers.
func (tr *TodoRepository) DeleteList(ctx context.Context, id int64) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "DeleteList", "todo_list", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_list",
		"db.operation": "DELETE",
		"todo_list.id": id,
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		affected, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Delete("todo_list").Where(sq.Eq{"id": id}))

		if err == nil && affected == 0 {
			return listNotFound(id)
		}

		return err
	})

	if err == nil {
		tr.telemetry.RecordBusinessEvent(ctx, "deleted", "todo_list", id, nil)
	}

	return op.End(err)
}

func (tr *TodoRepository) SetReminder(ctx context.Context, listID int64, reminder domain.Reminder) error {
	kind := domain.ReminderKindNone
	if reminder != nil {
		kind = reminder.Kind()
	}

	ctx, op := tel.StartOperation(tr.telemetry, ctx, "SetReminder", "todo_list", map[string]interface{}{
		"db.system":     "sqlite",
		"db.table":      "todo_list",
		"db.operation":  "UPDATE",
		"todo_list.id":  listID,
		"reminder.kind": string(kind),
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		affected, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_list").
			SetMap(reminderColumns(reminder)).
			Where(sq.Eq{"id": listID}))

		if err == nil && affected == 0 {
			return listNotFound(listID)
		}

		return err
	})

	return op.End(err)
}

func (tr *TodoRepository) InsertItemAtEnd(ctx context.Context, listID int64, item domain.TodoItem) (int64, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "InsertItemAtEnd", "todo_item", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_item",
		"db.operation": "INSERT",
		"todo_list.id": listID,
	})

	var id int64

	err := tr.write(ctx, func(tx *sql.Tx) error {
		if _, err := tr.getList(ctx, op, tx, listID); err != nil {
			return err
		}

		position, err := tr.nextPosition(ctx, op, tx, "todo_item", sq.Eq{"list_id": listID})
		if err != nil {
			return err
		}

		id, err = tr.insertItem(ctx, op, tx, listID, item, position)
		return err
	})

	if err == nil {
		tr.telemetry.RecordBusinessEvent(ctx, "created", "todo_item", id, map[string]interface{}{"list_id": listID})
	}

	return id, op.End(err)
}

// InsertItemAfter inserts the item at afterPosition+1, shifting the siblings
// at or after that position up by one.
func (tr *TodoRepository) InsertItemAfter(ctx context.Context, listID int64, item domain.TodoItem, afterPosition int) (int64, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "InsertItemAfter", "todo_item", map[string]interface{}{
		"db.system":      "sqlite",
		"db.table":       "todo_item",
		"db.operation":   "INSERT",
		"todo_list.id":   listID,
		"position.after": afterPosition,
	})

	var id int64
	position := afterPosition + 1

	err := tr.write(ctx, func(tx *sql.Tx) error {
		if _, err := tr.getList(ctx, op, tx, listID); err != nil {
			return err
		}

		if _, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_item").
			Set("position", sq.Expr("position + 1")).
			Where(sq.Eq{"list_id": listID}).
			Where(sq.GtOrEq{"position": position})); err != nil {
			return err
		}

		var err error
		id, err = tr.insertItem(ctx, op, tx, listID, item, position)
		return err
	})

	if err == nil {
		tr.telemetry.RecordBusinessEvent(ctx, "created", "todo_item", id, map[string]interface{}{"list_id": listID})
	}

	return id, op.End(err)
}

func (tr *TodoRepository) GetItem(ctx context.Context, id int64) (domain.TodoItem, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "GetItem", "todo_item", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_item",
		"todo_item.id": id,
	})

	var item domain.TodoItem

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = tr.getItem(ctx, op, tx, id)
		return err
	})

	return item, op.End(err)
}

func (tr *TodoRepository) GetItems(ctx context.Context, listID int64) ([]domain.TodoItem, error) {
	return tr.getItems(ctx, "GetItems", listID, nil)
}

func (tr *TodoRepository) GetIncompleteItems(ctx context.Context, listID int64) ([]domain.TodoItem, error) {
	return tr.getItems(ctx, "GetIncompleteItems", listID, sq.Eq{"completed": false})
}

func (tr *TodoRepository) getItems(ctx context.Context, operation string, listID int64, filter sq.Sqlizer) ([]domain.TodoItem, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, operation, "todo_item", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_item",
		"todo_list.id": listID,
	})

	var items []domain.TodoItem

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		items, err = tr.queryItems(ctx, op, tx, tr.db.QueryBuilder.Select(itemColumns...).
			From("todo_item").
			Where(sq.Eq{"list_id": listID}).
			Where(filter).
			OrderBy("position ASC, id ASC"))
		return err
	})

	op.SetAttributes(map[string]interface{}{"db.rows_returned": len(items)})

	return items, op.End(err)
}

func (tr *TodoRepository) UpdateItemSummary(ctx context.Context, id int64, summary string) error {
	return tr.updateItem(ctx, "UpdateItemSummary", id, map[string]interface{}{"summary": summary})
}

func (tr *TodoRepository) SetItemCompleted(ctx context.Context, id int64, completed bool) error {
	return tr.updateItem(ctx, "SetItemCompleted", id, map[string]interface{}{"completed": completed})
}

func (tr *TodoRepository) updateItem(ctx context.Context, operation string, id int64, changes map[string]interface{}) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, operation, "todo_item", map[string]interface{}{
		"db.system":           "sqlite",
		"db.table":            "todo_item",
		"db.operation":        "UPDATE",
		"todo_item.id":        id,
		"update.fields_count": len(changes),
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		affected, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_item").
			SetMap(changes).
			Where(sq.Eq{"id": id}))

		if err == nil && affected == 0 {
			return itemNotFound(id)
		}

		return err
	})

	return op.End(err)
}

// MoveItem shifts the other items of the same list at or after newPosition up
// by one and places the item at newPosition.
func (tr *TodoRepository) MoveItem(ctx context.Context, id int64, newPosition int) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "MoveItem", "todo_item", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_item",
		"db.operation": "UPDATE",
		"todo_item.id": id,
		"position.new": newPosition,
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		item, err := tr.getItem(ctx, op, tx, id)
		if err != nil {
			return err
		}

		if _, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_item").
			Set("position", sq.Expr("position + 1")).
			Where(sq.Eq{"list_id": item.ListID}).
			Where(sq.GtOrEq{"position": newPosition}).
			Where(sq.NotEq{"id": id})); err != nil {
			return err
		}

		_, err = tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update("todo_item").
			Set("position", newPosition).
			Where(sq.Eq{"id": id}))
		return err
	})

	return op.End(err)
}

func (tr *TodoRepository) DeleteItem(ctx context.Context, id int64) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "DeleteItem", "todo_item", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_item",
		"db.operation": "DELETE",
		"todo_item.id": id,
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		affected, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Delete("todo_item").Where(sq.Eq{"id": id}))

		if err == nil && affected == 0 {
			return itemNotFound(id)
		}

		return err
	})

	if err == nil {
		tr.telemetry.RecordBusinessEvent(ctx, "deleted", "todo_item", id, nil)
	}

	return op.End(err)
}

// DeleteCompleted removes the completed items of a list. Completed items hold
// no live notification so nothing needs reconciling.
func (tr *TodoRepository) DeleteCompleted(ctx context.Context, listID int64) (int64, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "DeleteCompleted", "todo_item", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "todo_item",
		"db.operation": "DELETE",
		"todo_list.id": listID,
	})

	var deleted int64

	err := tr.write(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = tr.exec(ctx, op, tx, tr.db.QueryBuilder.Delete("todo_item").
			Where(sq.Eq{"list_id": listID, "completed": true}))
		return err
	})

	op.SetAttributes(map[string]interface{}{"db.rows_affected": deleted})

	return deleted, op.End(err)
}

// AllocateNotificationID records a notification id for the owner. An owner
// that already holds one keeps it, so posting again replaces the notification.
func (tr *TodoRepository) AllocateNotificationID(ctx context.Context, owner domain.NotificationOwner) (int, error) {
	table, notFound := ownerTable(owner)

	ctx, op := tel.StartOperation(tr.telemetry, ctx, "AllocateNotificationID", "notification", map[string]interface{}{
		"db.system":  "sqlite",
		"db.table":   "notification",
		"owner.kind": string(owner.Kind),
		"owner.id":   owner.ID,
	})

	var notificationID int

	err := tr.write(ctx, func(tx *sql.Tx) error {
		query, args, err := tr.db.QueryBuilder.Select("notification_id").
			From(table).
			Where(sq.Eq{"id": owner.ID}).
			ToSql()
		if err != nil {
			return err
		}

		op.Query(query, args)

		var current sql.NullInt64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%s %d: %w", owner.Kind, owner.ID, notFound)
			}

			return err
		}

		if current.Valid {
			notificationID = int(current.Int64)
			return nil
		}

		id, err := tr.insert(ctx, op, tx, tr.db.QueryBuilder.Insert("notification").Columns("id").Values(nil))
		if err != nil {
			return err
		}

		notificationID = int(id)

		_, err = tr.exec(ctx, op, tx, tr.db.QueryBuilder.Update(table).
			Set("notification_id", notificationID).
			Where(sq.Eq{"id": owner.ID}))
		return err
	})

	op.SetAttributes(map[string]interface{}{"notification.id": notificationID})

	return notificationID, op.End(err)
}

// ClearNotification frees the id; the foreign keys null it on its owner.
func (tr *TodoRepository) ClearNotification(ctx context.Context, notificationID int) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "ClearNotification", "notification", map[string]interface{}{
		"db.system":       "sqlite",
		"db.table":        "notification",
		"db.operation":    "DELETE",
		"notification.id": notificationID,
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		_, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Delete("notification").Where(sq.Eq{"id": notificationID}))
		return err
	})

	return op.End(err)
}

func (tr *TodoRepository) ClearAllNotifications(ctx context.Context) error {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "ClearAllNotifications", "notification", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "notification",
		"db.operation": "DELETE",
	})

	err := tr.write(ctx, func(tx *sql.Tx) error {
		cleared, err := tr.exec(ctx, op, tx, tr.db.QueryBuilder.Delete("notification"))
		op.SetAttributes(map[string]interface{}{"db.rows_affected": cleared})
		return err
	})

	return op.End(err)
}

// ObserveLists emits the ordered lists now and after every committed change.
// The channel is closed when ctx ends.
func (tr *TodoRepository) ObserveLists(ctx context.Context) <-chan []domain.TodoList {
	out := make(chan []domain.TodoList, 1)
	changes, release := tr.db.Changes.Subscribe()

	go func() {
		defer close(out)
		defer release()

		for {
			lists, err := tr.GetLists(ctx)

			if err != nil {
				if ctx.Err() != nil {
					return
				}

				slog.Error("Error observing lists", "error", err)
			} else {
				select {
				case out <- lists:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}

// ObserveList emits the list with its items now and after every committed
// change. The channel is closed when ctx ends or the list is deleted.
func (tr *TodoRepository) ObserveList(ctx context.Context, listID int64) <-chan domain.ListSnapshot {
	out := make(chan domain.ListSnapshot, 1)
	changes, release := tr.db.Changes.Subscribe()

	go func() {
		defer close(out)
		defer release()

		for {
			snapshot, err := tr.snapshot(ctx, listID)

			switch {
			case errors.Is(err, domain.ErrListNotFound):
				return
			case err != nil:
				if ctx.Err() != nil {
					return
				}

				slog.Error("Error observing list", "list_id", listID, "error", err)
			default:
				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}

func (tr *TodoRepository) snapshot(ctx context.Context, listID int64) (domain.ListSnapshot, error) {
	ctx, op := tel.StartOperation(tr.telemetry, ctx, "Snapshot", "todo_list", map[string]interface{}{
		"db.system":    "sqlite",
		"todo_list.id": listID,
	})

	var snapshot domain.ListSnapshot

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		list, err := tr.getList(ctx, op, tx, listID)
		if err != nil {
			return err
		}

		items, err := tr.queryItems(ctx, op, tx, tr.db.QueryBuilder.Select(itemColumns...).
			From("todo_item").
			Where(sq.Eq{"list_id": listID}).
			OrderBy("position ASC, id ASC"))
		if err != nil {
			return err
		}

		snapshot = domain.ListSnapshot{List: list, Items: items}
		return nil
	})

	return snapshot, op.End(err)
}

// write runs fn in a transaction and wakes the observers once it committed.
func (tr *TodoRepository) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := tr.db.WithTx(ctx, fn); err != nil {
		return err
	}

	tr.db.Changes.Publish()

	return nil
}

func (tr *TodoRepository) getList(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, id int64) (domain.TodoList, error) {
	lists, err := tr.queryLists(ctx, op, tx, tr.db.QueryBuilder.Select(listColumns...).
		From("todo_list").
		Where(sq.Eq{"id": id}).
		Limit(1))

	if err != nil {
		return domain.TodoList{}, err
	}

	if len(lists) == 0 {
		return domain.TodoList{}, listNotFound(id)
	}

	return lists[0], nil
}

func (tr *TodoRepository) getItem(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, id int64) (domain.TodoItem, error) {
	items, err := tr.queryItems(ctx, op, tx, tr.db.QueryBuilder.Select(itemColumns...).
		From("todo_item").
		Where(sq.Eq{"id": id}).
		Limit(1))

	if err != nil {
		return domain.TodoItem{}, err
	}

	if len(items) == 0 {
		return domain.TodoItem{}, itemNotFound(id)
	}

	return items[0], nil
}

func (tr *TodoRepository) queryLists(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, builder sq.SelectBuilder) ([]domain.TodoList, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	op.Query(query, args)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var records []listRow
	if err := tr.scanner.ScanRowsToSlice(rows, &records); err != nil {
		return nil, err
	}

	lists := make([]domain.TodoList, 0, len(records))
	for _, record := range records {
		list, err := record.toDomain()
		if err != nil {
			return nil, err
		}

		lists = append(lists, list)
	}

	return lists, nil
}

func (tr *TodoRepository) queryItems(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, builder sq.SelectBuilder) ([]domain.TodoItem, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	op.Query(query, args)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var records []itemRow
	if err := tr.scanner.ScanRowsToSlice(rows, &records); err != nil {
		return nil, err
	}

	items := make([]domain.TodoItem, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}

	return items, nil
}

func (tr *TodoRepository) insertItem(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, listID int64, item domain.TodoItem, position int) (int64, error) {
	return tr.insert(ctx, op, tx, tr.db.QueryBuilder.Insert("todo_item").
		Columns("list_id", "summary", "completed", "position").
		Values(listID, item.Summary, item.Completed, position))
}

// nextPosition returns max(position)+1 over the matching rows, or 0 when there are none.
func (tr *TodoRepository) nextPosition(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, table string, filter sq.Sqlizer) (int, error) {
	query, args, err := tr.db.QueryBuilder.Select("COALESCE(MAX(position) + 1, 0)").
		From(table).
		Where(filter).
		ToSql()
	if err != nil {
		return 0, err
	}

	op.Query(query, args)

	var position int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&position); err != nil {
		return 0, err
	}

	return position, nil
}

func (tr *TodoRepository) insert(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, builder sq.InsertBuilder) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	op.Query(query, args)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

func (tr *TodoRepository) exec(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, builder sq.Sqlizer) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	op.Query(query, args)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func ownerTable(owner domain.NotificationOwner) (string, error) {
	if owner.Kind == domain.NotificationOwnerList {
		return "todo_list", domain.ErrListNotFound
	}

	return "todo_item", domain.ErrItemNotFound
}

func listNotFound(id int64) error {
	return fmt.Errorf("todo list with id %d: %w", id, domain.ErrListNotFound)
}

func itemNotFound(id int64) error {
	return fmt.Errorf("todo item with id %d: %w", id, domain.ErrItemNotFound)
}
