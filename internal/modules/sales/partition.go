package sales

import "time"

// Partition splits transactions at the advertising start date. Rows dated
// strictly before the boundary form the reference period, rows on or after
// it form the test period. Half-open intervals keep the boundary day from
// being counted twice.
//
// An empty side is not an error here: the partitioner has a filtering role
// only, degenerate samples are detected by the significance engine.
func Partition(rows []Transaction, boundary time.Time) (reference, test []Transaction) {
	for _, row := range rows {
		if row.Date.Before(boundary) {
			reference = append(reference, row)
		} else {
			test = append(test, row)
		}
	}
	return reference, test
}
