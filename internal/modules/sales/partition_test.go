package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPartition_BoundaryBelongsToTestPeriod(t *testing.T) {
	boundary := day(2024, 2, 1)
	rows := []Transaction{
		{Date: day(2024, 1, 31), Amount: 10},
		{Date: boundary, Amount: 20},
		{Date: day(2024, 2, 2), Amount: 30},
	}

	reference, test := Partition(rows, boundary)

	require.Len(t, reference, 1)
	require.Len(t, test, 2)
	assert.Equal(t, 10.0, reference[0].Amount)
	assert.Equal(t, 20.0, test[0].Amount)
}

func TestPartition_EveryRowLandsExactlyOnce(t *testing.T) {
	boundary := day(2024, 2, 1)
	rows := []Transaction{
		{Date: day(2024, 1, 1), Amount: 1},
		{Date: day(2024, 1, 15), Amount: 2},
		{Date: day(2024, 2, 1), Amount: 3},
		{Date: day(2024, 3, 1), Amount: 4},
	}

	reference, test := Partition(rows, boundary)
	assert.Equal(t, len(rows), len(reference)+len(test))
}

func TestPartition_BoundaryBeforeAllData(t *testing.T) {
	rows := []Transaction{
		{Date: day(2024, 5, 1), Amount: 1},
		{Date: day(2024, 5, 2), Amount: 2},
	}

	reference, test := Partition(rows, day(2024, 1, 1))
	assert.Empty(t, reference)
	assert.Len(t, test, 2)
}

func TestPartition_BoundaryAfterAllData(t *testing.T) {
	rows := []Transaction{
		{Date: day(2024, 5, 1), Amount: 1},
		{Date: day(2024, 5, 2), Amount: 2},
	}

	reference, test := Partition(rows, day(2025, 1, 1))
	assert.Len(t, reference, 2)
	assert.Empty(t, test)
}

func TestPartition_Empty(t *testing.T) {
	reference, test := Partition(nil, day(2024, 1, 1))
	assert.Empty(t, reference)
	assert.Empty(t, test)
}
