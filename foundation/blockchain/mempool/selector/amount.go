package selector

import (
	"sort"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// amountSelect returns transactions with the largest amounts first while
// respecting the arrival order for each sender.
var amountSelect = func(trans []database.Tx, howMany int) []database.Tx {

	/*
		Bob:   {To: Linda, Amount: 10}, {To: John, Amount: 90}
		Linda: {To: Omar, Amount: 40}
		Eve:   {To: Bob, Amount: 5}, {To: Jiro, Amount: 70}
	*/

	// Group the transactions by sender keeping the arrival order. The order
	// of the senders is the order their first transaction arrived.
	var senders []string
	m := make(map[string][]database.Tx)
	for _, tx := range trans {
		if _, exists := m[tx.From]; !exists {
			senders = append(senders, tx.From)
		}
		m[tx.From] = append(m[tx.From], tx)
	}

	// Pick the first transaction in the slice for each sender. Each
	// iteration represents a new row of selections. Keep doing that until
	// all the transactions have been selected.
	var rows [][]database.Tx
	for {
		var row []database.Tx
		for _, from := range senders {
			if len(m[from]) > 0 {
				row = append(row, m[from][0])
				m[from] = m[from][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	/*
		0: Bob:   {To: Linda, Amount: 10}
		0: Linda: {To: Omar, Amount: 40}
		0: Eve:   {To: Bob, Amount: 5}
		1: Bob:   {To: John, Amount: 90}
		1: Eve:   {To: Jiro, Amount: 70}
	*/

	// Sort each row by amount and keep pulling rows until the number of
	// requested transactions is fulfilled.
	final := []database.Tx{}
done:
	for _, row := range rows {
		sort.Stable(byAmount(row))

		need := howMany - len(final)
		if len(row) >= need {
			final = append(final, row[:need]...)
			break done
		}
		final = append(final, row...)
	}

	/*
		0: Linda: {To: Omar, Amount: 40}
		1: Bob:   {To: Linda, Amount: 10}
		2: Eve:   {To: Bob, Amount: 5}
		3: Bob:   {To: John, Amount: 90}
	*/

	return final
}
