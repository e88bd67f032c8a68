package aggregates

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods start and manage their own transactions.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ConcurrencyControl names how an aggregate protects concurrent writers.
type ConcurrencyControl string

const (
	// ConcurrencyOptimisticVersion compares and swaps a version column and
	// retries the whole read-decide-write cycle on conflict.
	ConcurrencyOptimisticVersion ConcurrencyControl = "optimistic_version"
	// ConcurrencyTransactional relies on a single transaction plus row locks.
	ConcurrencyTransactional ConcurrencyControl = "transactional"
)

// Contract describes aggregate-level policy expectations.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	Concurrency      ConcurrencyControl
	Notes            string
}

// Aggregate is the common marker for all aggregate contracts.
type Aggregate interface {
	Contract() Contract
}

// RequiresAggregateOwnedTx returns true when write transaction ownership is aggregate-owned.
func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}
