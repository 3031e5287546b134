// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts the events worth watching in production: auth outcomes,
// the session core's stale-fetch discards, and marketplace write activity.
type Collector struct {
	registry *prometheus.Registry

	signIns         *prometheus.CounterVec
	signUps         prometheus.Counter
	fetchDiscarded  prometheus.Counter
	fetchFailed     prometheus.Counter
	applications    prometheus.Counter
	internshipPosts prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrole_sign_ins_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		signUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrole_sign_ups_total",
			Help: "Successful sign-ups.",
		}),
		fetchDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrole_profile_fetch_discarded_total",
			Help: "Profile fetches discarded because their generation went stale.",
		}),
		fetchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrole_profile_fetch_failed_total",
			Help: "Profile fetches that returned an error.",
		}),
		applications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrole_applications_submitted_total",
			Help: "Internship applications submitted.",
		}),
		internshipPosts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrole_internships_posted_total",
			Help: "Internship listings posted.",
		}),
	}
	c.registry.MustRegister(c.signIns, c.signUps, c.fetchDiscarded, c.fetchFailed,
		c.applications, c.internshipPosts)
	return c
}

func (c *Collector) SignIn(outcome string)  { c.signIns.WithLabelValues(outcome).Inc() }
func (c *Collector) SignUp()                { c.signUps.Inc() }
func (c *Collector) ProfileFetchDiscarded() { c.fetchDiscarded.Inc() }
func (c *Collector) ProfileFetchFailed()    { c.fetchFailed.Inc() }
func (c *Collector) ApplicationSubmitted()  { c.applications.Inc() }
func (c *Collector) InternshipPosted()      { c.internshipPosts.Inc() }

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
