package agent_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/sarchlab/dramcache/agent"
	"github.com/sarchlab/dramcache/cache"
	"github.com/sarchlab/dramcache/dram"
	"github.com/sarchlab/dramcache/funccache"
)

// buildSystem wires a small cache in front of a model DRAM together
// with the functional oracle the agent checks against.
func buildSystem(seed int64) (*agent.Agent, *cache.Controller) {
	port, err := dram.NewNativePort(20, 32)
	Expect(err).ToNot(HaveOccurred())

	ctrl, err := cache.NewController(port, cache.Config{
		Size:      64,
		DataWidth: 16,
	})
	Expect(err).ToNot(HaveOccurred())

	device, err := dram.NewController(port, dram.DefaultTiming())
	Expect(err).ToNot(HaveOccurred())

	layout := ctrl.Layout()
	lineBytes := ctrl.Config().DataWidth / 8 * layout.Ratio
	backing := funccache.NewStorageBacking(mem.NewStorage(1 << 16))
	oracle := funccache.New(layout.NumLines, lineBytes, backing)

	return agent.New(ctrl, device, oracle, backing, seed), ctrl
}

var _ = Describe("Agent", func() {
	It("should observe no read mismatches over a long random run", func() {
		traffic, ctrl := buildSystem(1)
		traffic.Run(20000)

		Expect(traffic.Errors()).To(BeEmpty())
		Expect(traffic.Acks()).To(BeNumerically(">", 1000))

		// The window aliases, so the run must exercise misses and
		// evictions, not just hits.
		Expect(ctrl.Stats().Misses).To(BeNumerically(">", 0))
		Expect(ctrl.Stats().Evictions).To(BeNumerically(">", 0))
	})

	It("should leave both models coherent after the run", func() {
		traffic, _ := buildSystem(2)
		traffic.Run(20000)

		Expect(traffic.Errors()).To(BeEmpty())
		Expect(traffic.CheckCoherence()).To(Succeed())
	})

	It("should stay coherent across seeds", func() {
		for seed := int64(10); seed < 14; seed++ {
			traffic, _ := buildSystem(seed)
			traffic.Run(5000)

			Expect(traffic.Errors()).To(BeEmpty(),
				fmt.Sprintf("seed %d", seed))
			Expect(traffic.CheckCoherence()).To(Succeed(),
				fmt.Sprintf("seed %d", seed))
		}
	})
})
