// Package migrations: SQL-схема сервиса заказов, вшитая в бинарник
package migrations

import _ "embed"

// Orders создаёт таблицу заказов, если её ещё нет
//
//go:embed orders.sql
var Orders string
