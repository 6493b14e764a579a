package mempool_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestMempool(t *testing.T) {
	type table struct {
		name string
		txs  []database.Tx
		best []database.Tx
	}

	tt := []table{
		{
			name: "fifo",
			txs: []database.Tx{
				database.NewTx("Bob", "Linda", 10, 1700000000),
				database.NewTx("Eve", "Omar", 20, 1700000001),
				database.NewTx("Bob", "Linda", 10, 1700000000),
				database.NewTx("Jiro", "Grace", 5.5, 1700000002),
			},
			best: []database.Tx{
				database.NewTx("Bob", "Linda", 10, 1700000000),
				database.NewTx("Eve", "Omar", 20, 1700000001),
				database.NewTx("Bob", "Linda", 10, 1700000000),
			},
		},
	}

	t.Log("Given the need to validate mempool functionality.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen working with a set of transactions.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for _, tx := range tst.txs {
						mp.Add(tx)
						t.Logf("\t%s\tTest %d:\tShould be able to add new transaction: %s", success, testID, tx)
					}

					if mp.Count() != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould keep duplicate transactions: got %d, exp %d", failed, testID, mp.Count(), len(tst.txs))
					}
					t.Logf("\t%s\tTest %d:\tShould keep duplicate transactions.", success, testID)

					for i, tx := range mp.Copy() {
						if tx != tst.txs[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.txs[i])
							t.Fatalf("\t%s\tTest %d:\tShould get back the arrival order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get back the arrival order.", success, testID)

					best := mp.PickBest(len(tst.best))
					if len(best) != len(tst.best) {
						t.Fatalf("\t%s\tTest %d:\tShould pick %d transactions: got %d", failed, testID, len(tst.best), len(best))
					}
					for i, tx := range best {
						if tx != tst.best[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.best[i])
							t.Fatalf("\t%s\tTest %d:\tShould pick the oldest transactions.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould pick the oldest transactions.", success, testID)

					if all := mp.PickBest(-1); len(all) != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould pick all transactions with -1: got %d", failed, testID, len(all))
					}
					t.Logf("\t%s\tTest %d:\tShould pick all transactions with -1.", success, testID)

					if !mp.Delete(tst.txs[0]) {
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove a transaction.", failed, testID)
					}
					if mp.Count() != len(tst.txs)-1 || mp.Copy()[1] != tst.txs[2] {
						t.Fatalf("\t%s\tTest %d:\tShould remove only one copy of a duplicate: %v", failed, testID, mp.Copy())
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove a transaction.", success, testID)

					if mp.Delete(database.NewTx("Nobody", "Bob", 1, 1)) {
						t.Fatalf("\t%s\tTest %d:\tShould not remove an unknown transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not remove an unknown transaction.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestUnknownStrategy(t *testing.T) {
	t.Log("Given the need to configure the select strategy.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asking for a strategy that doesn't exist.", testID)
		{
			if _, err := mempool.NewWithStrategy("tip"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould get an error.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get an error.", success, testID)
		}
	}
}
