package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/asquebay/shop-gateway/internal/model"
)

// OrderRepository инкапсулирует логику работы с заказами в БД
type OrderRepository struct {
	db *pgxpool.Pool
	sq squirrel.StatementBuilderType
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{
		db: db,
		// использую плейсхолдеры в стиле PostgreSQL ($1, $2, $3,...)
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var orderColumns = []string{"id", "user_id", "transaction_id", "datetime", "total::text", "items"}

// CreateOrder сохраняет заказ и возвращает его с id, выданным БД
// позиции хранятся одним JSONB-столбцом, как они пришли от шлюза
func (r *OrderRepository) CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	const op = "repository.postgres.order.CreateOrder"

	sql, args, err := r.insertQuery(req)
	if err != nil {
		return model.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return model.Order{}, fmt.Errorf("%s: failed to insert into orders: %w", op, err)
	}

	return req.ToOrder(id), nil
}

func (r *OrderRepository) insertQuery(req model.OrderRequest) (string, []any, error) {
	items, err := json.Marshal(req.Items)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal items: %w", err)
	}

	sql, args, err := r.sq.Insert("orders").
		Columns("user_id", "transaction_id", "datetime", "total", "items").
		Values(
			int64(*req.UserID),
			req.TransactionID,
			req.DateTime.UTC(),
			squirrel.Expr("?::numeric", req.Total.StringFixed(2)),
			squirrel.Expr("?::jsonb", string(items)),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build orders insert query: %w", err)
	}
	return sql, args, nil
}

// GetAllOrders извлекает все заказы из базы данных
// этот метод может быть ресурсоёмким на больших объемах данных
// он предназначен для восстановления кэша при старте
func (r *OrderRepository) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	const op = "repository.postgres.order.GetAllOrders"

	sql, args, err := r.sq.Select(orderColumns...).From("orders").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build select query: %w", op, err)
	}

	orders, err := r.queryOrders(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// GetOrdersByUser извлекает заказы одного пользователя в порядке создания
func (r *OrderRepository) GetOrdersByUser(ctx context.Context, userID model.UserID) ([]model.Order, error) {
	const op = "repository.postgres.order.GetOrdersByUser"

	sql, args, err := r.sq.Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"user_id": int64(userID)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build select query: %w", op, err)
	}

	orders, err := r.queryOrders(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]model.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to scan order row: %w", err)
	}
	if orders == nil {
		orders = []model.Order{} // нет заказов: возвращаем пустой слайс
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (model.Order, error) {
	var (
		o        model.Order
		userID   int64
		dt       time.Time
		totalStr string
		items    []byte
	)
	if err := row.Scan(&o.ID, &userID, &o.TransactionID, &dt, &totalStr, &items); err != nil {
		return model.Order{}, err
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return model.Order{}, fmt.Errorf("order %d: bad total %q: %w", o.ID, totalStr, err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return model.Order{}, fmt.Errorf("order %d: bad items: %w", o.ID, err)
	}

	o.UserID = model.UserID(userID)
	o.DateTime = dt.UTC()
	o.Total = model.MoneyFromDecimal(total)
	return o, nil
}
