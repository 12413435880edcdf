package cart

import (
	"fmt"
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("line-%d", n)
	}
}

func ptr(s string) *string {
	return &s
}

func TestAddMergesSameTriple(t *testing.T) {
	c := &Cart{}
	newID := sequentialIDs()

	_, err := c.Add("C01", 2, ptr("hot"), []string{"oat", "extra shot"}, newID)
	require.NoError(t, err)
	line, err := c.Add("C01", 3, ptr("hot"), []string{"extra shot", "oat"}, newID)
	require.NoError(t, err)

	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(5), c.Lines[0].Quantity)
	assert.Equal(t, "line-1", line.ItemID)
}

func TestAddDistinctTriples(t *testing.T) {
	c := &Cart{}
	newID := sequentialIDs()

	_, err := c.Add("C01", 1, ptr("hot"), nil, newID)
	require.NoError(t, err)
	_, err = c.Add("C01", 1, ptr("iced"), nil, newID)
	require.NoError(t, err)
	_, err = c.Add("C01", 1, nil, nil, newID)
	require.NoError(t, err)
	_, err = c.Add("C01", 1, ptr("hot"), []string{"oat"}, newID)
	require.NoError(t, err)

	require.Len(t, c.Lines, 4)
	assert.Equal(t, []string{}, c.Lines[0].Option2)
	assert.Equal(t, "line-4", c.Lines[3].ItemID)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := &Cart{}
	_, err := c.Add("C01", 0, nil, nil, sequentialIDs())
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, c.Lines)
}

func TestSetQuantityFirstMatchOnly(t *testing.T) {
	c := &Cart{}
	newID := sequentialIDs()
	_, _ = c.Add("C01", 1, ptr("hot"), nil, newID)
	_, _ = c.Add("C01", 1, ptr("iced"), nil, newID)

	found, err := c.SetQuantity("C01", 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(7), c.Lines[0].Quantity)
	assert.Equal(t, int64(1), c.Lines[1].Quantity)

	found, err = c.SetQuantity("X99", 2)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = c.SetQuantity("C01", -1)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRemove(t *testing.T) {
	c := &Cart{}
	newID := sequentialIDs()
	_, _ = c.Add("C01", 1, nil, nil, newID)
	_, _ = c.Add("S01", 1, nil, nil, newID)

	assert.True(t, c.Remove("line-1"))
	assert.False(t, c.Remove("line-1"))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "S01", c.Lines[0].MenuID)
}

func TestResolveMarksStaleLines(t *testing.T) {
	lines := []Line{
		{ItemID: "a", MenuID: "C01", Quantity: 2, Option2: []string{"oat", "ice"}},
		{ItemID: "b", MenuID: "GONE", Quantity: 1},
	}
	items := map[string]menu.MenuItem{
		"C01": {MenuID: "C01", Name: "Latte", PriceMinor: 15000, ImageRef: "latte.png"},
	}

	view, priced := Resolve(lines, items)

	require.Len(t, view, 2)
	assert.Equal(t, "Latte", view[0].Name)
	assert.Equal(t, int64(30000), view[0].LineTotal)
	assert.Equal(t, "oat, ice", view[0].Option2Joined)
	assert.Empty(t, view[0].Error)
	assert.NotEmpty(t, view[1].Error)
	assert.Zero(t, view[1].LineTotal)

	require.Len(t, priced, 1)
	assert.Equal(t, "C01", priced[0].MenuID)
}
