package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

func TestWriteShoppingList(t *testing.T) {
	list := shopping.List{
		Plan: planner.Plan{
			ID:        3,
			StartDate: planner.DateOf(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)),
			EndDate:   planner.DateOf(time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)),
		},
		Ingredients: []shopping.Entry{
			{Name: "eggs", Amount: "2"},
			{Name: "milk", Amount: "1L", Checked: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteShoppingList(&buf, list))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Plan 2026-10-19 to 2026-10-25"}, rows[0])
	assert.Equal(t, []string{"Ingredient", "Amount", "Checked"}, rows[2])
	assert.Equal(t, []string{"eggs", "2"}, rows[3])
	assert.Equal(t, []string{"milk", "1L", "x"}, rows[4])

	assert.Equal(t, "shopping-list-2026-10-19.xlsx", Filename(list))
}

func TestWriteShoppingListWithoutDates(t *testing.T) {
	list := shopping.List{Plan: planner.Plan{ID: 9}}

	var buf bytes.Buffer
	require.NoError(t, WriteShoppingList(&buf, list))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ingredient", "Amount", "Checked"}}, rows)
	assert.Equal(t, "shopping-list-9.xlsx", Filename(list))
}
