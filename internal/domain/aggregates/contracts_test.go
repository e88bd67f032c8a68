package aggregates

import "testing"

func TestFocusContractsOwnTheirTransactions(t *testing.T) {
	for _, c := range []Contract{FocusSessionAggregateContract, FocusCompletionAggregateContract} {
		if !c.RequiresAggregateOwnedTx() {
			t.Fatalf("%s should own its write transaction", c.Name)
		}
		if c.Concurrency == "" {
			t.Fatalf("%s should declare its concurrency control", c.Name)
		}
	}
}
