package metrics

import "time"

// Stats is the minimal surface a *machine.Machine exposes for periodic
// metrics collection. Defined here, rather than importing pkg/machine,
// so metrics stays a leaf package with no dependency on the rest of the
// tree.
type Stats interface {
	OpenSilos() int
	OpenChannels() int
	PendingQuestions() int
	RunsInFlight() int
}

// Collector polls a Stats source on a fixed interval and updates gauges.
type Collector struct {
	source Stats
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector for the given stats source.
func NewCollector(source Stats) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	SilosOpen.Set(float64(c.source.OpenSilos()))
	ChannelsOpen.Set(float64(c.source.OpenChannels()))
	QuestionsPending.Set(float64(c.source.PendingQuestions()))
	RunsInFlight.Set(float64(c.source.RunsInFlight()))
}
