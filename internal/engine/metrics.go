package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics - счетчики игрового процесса для Prometheus.
type Metrics struct {
	StoriesStarted      prometheus.Counter
	EndingsReached      prometheus.Counter
	AchievementsGranted prometheus.Counter
	CountdownsExpired   prometheus.Counter
}

// NewMetrics создает счетчики и регистрирует их, если передан registerer
// (в тестах можно передать nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoriesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstory_stories_started_total",
			Help: "Number of story sessions started.",
		}),
		EndingsReached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstory_endings_reached_total",
			Help: "Number of endings reached across all players.",
		}),
		AchievementsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstory_achievements_granted_total",
			Help: "Number of achievements granted.",
		}),
		CountdownsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quickstory_countdowns_expired_total",
			Help: "Number of scene countdowns that expired into the default choice.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.StoriesStarted, m.EndingsReached, m.AchievementsGranted, m.CountdownsExpired)
	}
	return m
}
