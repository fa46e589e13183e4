package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asquebay/shop-gateway/internal/config"
	"github.com/asquebay/shop-gateway/internal/model"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.Postgres{
		User: "shop", Password: "secret", Host: "localhost", Port: "5432", DBName: "orders", SSLMode: "disable",
	})
	assert.Equal(t, "user=shop password=secret host=localhost port=5432 dbname=orders sslmode=disable", dsn)
}

func TestInsertQuery(t *testing.T) {
	repo := NewOrderRepository(nil)
	uid := model.UserID(1)
	total := model.NewMoney("159.8")
	req := model.OrderRequest{
		UserID:        &uid,
		Items:         []model.CartItem{{ID: 1, Title: "Clavier mécanique", Price: model.NewMoney("79.90"), Qty: 2, Subtotal: total}},
		Total:         &total,
		TransactionID: "tx-1700000000",
		DateTime:      time.Unix(1700000000, 0),
	}

	sql, args, err := repo.insertQuery(req)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO orders (user_id,transaction_id,datetime,total,items) VALUES ($1,$2,$3,$4::numeric,$5::jsonb) RETURNING id",
		sql,
	)
	require.Len(t, args, 5)
	assert.Equal(t, int64(1), args[0])
	assert.Equal(t, "tx-1700000000", args[1])
	assert.Equal(t, "159.80", args[3])
	assert.JSONEq(t,
		`[{"id":1,"title":"Clavier mécanique","price":79.90,"qty":2,"subtotal":159.80}]`,
		args[4].(string),
	)
}
