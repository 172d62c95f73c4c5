package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

var (
	CartsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "created_total",
		Help:      "Carts created, labeled by owner kind.",
	}, []string{"owner"})

	CartMerges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "merges_total",
		Help:      "Login cart merges, labeled by outcome.",
	}, []string{"outcome"})

	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "created_total",
		Help:      "Orders created, labeled by owner kind.",
	}, []string{"owner"})

	PaymentIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "payment_intents_total",
		Help:      "Payment intent requests to the processor, labeled by result.",
	}, []string{"result"})

	CheckoutsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "completed_total",
		Help:      "Orders whose payment was confirmed.",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notification",
		Name:      "order_paid_total",
		Help:      "Order paid events handled by the notification listener, labeled by result.",
	}, []string{"result"})
)

const (
	OwnerAnonymous = "anonymous"
	OwnerUser      = "user"

	OutcomeMerged    = "merged"
	OutcomeNoop      = "noop"
	OutcomeDiscarded = "discarded"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)
