package node

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zialiel",
		Name:      "batches_created_total",
		Help:      "Number of batches created and admitted to the local DAG store.",
	})

	checkpointsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zialiel",
		Name:      "checkpoints_applied_total",
		Help:      "Number of finalized checkpoints applied to the local ledger.",
	})

	transactionsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zialiel",
		Name:      "transactions_applied_total",
		Help:      "Number of transactions successfully applied to the local ledger.",
	})

	transactionsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zialiel",
		Name:      "transactions_skipped_total",
		Help:      "Number of transactions skipped during checkpoint application.",
	}, []string{"reason"})

	feesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zialiel",
		Name:      "fees_collected_total",
		Help:      "Total fee value routed into the pools.",
	})
)
