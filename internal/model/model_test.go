package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_MarshalJSONKeepsTwoDecimals(t *testing.T) {
	total := NewMoney("79.9").Mul(2)

	data, err := json.Marshal(map[string]Money{"total": total})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 159.80}`, string(data))
	assert.Equal(t, "159.80", total.String())
}

func TestMoney_UnmarshalNumberAndString(t *testing.T) {
	var fromNumber, fromString Money
	require.NoError(t, json.Unmarshal([]byte(`229.00`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"229"`), &fromString))
	assert.True(t, fromNumber.Equal(fromString))

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`null`), &bad))
}

func TestUserID_UnmarshalNumberOrString(t *testing.T) {
	var payload struct {
		A UserID `json:"a"`
		B UserID `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 7, "b": "7"}`), &payload))
	assert.Equal(t, UserID(7), payload.A)
	assert.Equal(t, payload.A, payload.B)

	var id UserID
	assert.Error(t, json.Unmarshal([]byte(`"seven"`), &id))
}

func TestOrderRequest_Validate(t *testing.T) {
	uid := UserID(1)
	total := NewMoney("79.90")
	valid := OrderRequest{
		UserID:        &uid,
		Items:         []CartItem{{ID: 1, Title: "Clavier mécanique", Price: total, Qty: 1, Subtotal: total}},
		Total:         &total,
		TransactionID: "tx-1",
		DateTime:      time.Now().UTC(),
	}
	require.NoError(t, valid.Validate())

	missingUser := valid
	missingUser.UserID = nil
	assert.Error(t, missingUser.Validate())

	noItems := valid
	noItems.Items = nil
	assert.Error(t, noItems.Validate())

	noTotal := valid
	noTotal.Total = nil
	assert.Error(t, noTotal.Validate())

	negative := valid
	neg := NewMoney("-1")
	negative.Total = &neg
	assert.ErrorIs(t, negative.Validate(), ErrNegativeTotal)
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := &Session{ID: "s1", Cart: []int{1, 2}, LastOrder: &Confirmation{TransactionID: "tx"}}
	c := s.Clone()

	c.Cart[0] = 9
	c.LastOrder.TransactionID = "other"

	assert.Equal(t, []int{1, 2}, s.Cart)
	assert.Equal(t, "tx", s.LastOrder.TransactionID)
}

func TestSession_ClearKeepsID(t *testing.T) {
	s := &Session{ID: "s1", AccessToken: "a", RefreshToken: "r", UserID: 3, Username: "u", Cart: []int{1}}
	s.Clear()

	assert.Equal(t, "s1", s.ID)
	assert.Empty(t, s.AccessToken)
	assert.Empty(t, s.RefreshToken)
	assert.False(t, s.HasUser())
	assert.Empty(t, s.Cart)
}
