package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Articles(t *testing.T) {
	c := Default()

	all := c.All()
	require.Len(t, all, 15)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 15, all[len(all)-1].ID)

	a, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Clavier mécanique", a.Title)
	assert.Equal(t, "79.90", a.Price.String())
}

func TestGet_Unknown(t *testing.T) {
	_, err := Default().Get(999)
	assert.ErrorIs(t, err, ErrArticleNotFound)
	assert.False(t, Default().Has(999))
}

func TestAll_ReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Title = "changed"

	a, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Clavier mécanique", a.Title)
	assert.Equal(t, "Clavier mécanique", c.All()[0].Title)
}
