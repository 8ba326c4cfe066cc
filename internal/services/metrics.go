package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BetsPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrf_flip_bets_placed_total",
			Help: "Bets accepted, by game",
		},
		[]string{"game"},
	)

	AmountWagered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrf_flip_wagered_base_units_total",
			Help: "Base units wagered, by game",
		},
		[]string{"game"},
	)

	Settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrf_flip_settlements_total",
			Help: "Settled rounds, by game and outcome",
		},
		[]string{"game", "outcome"},
	)

	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrf_flip_rejections_total",
			Help: "Rejected engine operations, by operation and error code",
		},
		[]string{"operation", "code"},
	)

	HouseVaultBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrf_flip_house_vault_base_units",
			Help: "House vault balance after the last committed operation",
		},
	)

	OracleDispatchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vrf_flip_oracle_dispatch_failures_total",
			Help: "Randomness requests that could not be handed to the oracle",
		},
	)

	registerOnce sync.Once
)

func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(BetsPlaced, AmountWagered, Settlements, Rejections, HouseVaultBalance, OracleDispatchFailures)
	})
}
