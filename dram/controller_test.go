package dram_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dramcache/dram"
)

var _ = Describe("Controller", func() {
	var (
		port   *dram.NativePort
		device *dram.Controller
	)

	build := func(timing dram.Timing) {
		var err error
		port, err = dram.NewNativePort(8, 32)
		Expect(err).ToNot(HaveOccurred())

		device, err = dram.NewController(port, timing)
		Expect(err).ToNot(HaveOccurred())
	}

	It("should reject invalid timing", func() {
		port, err := dram.NewNativePort(8, 32)
		Expect(err).ToNot(HaveOccurred())

		_, err = dram.NewController(port, dram.Timing{})
		Expect(err).To(MatchError(ContainSubstring("invalid DRAM timing")))
	})

	Describe("write access", func() {
		It("should commit once both command and beat are accepted", func() {
			build(dram.Timing{
				CmdAcceptLatency:   1,
				WriteAcceptLatency: 1,
				ReadLatency:        1,
			})

			port.Cmd.Valid = true
			port.Cmd.We = true
			port.Cmd.Addr = 5
			port.W.Valid = true
			port.W.Data = []byte{0x11, 0x22, 0x33, 0x44}
			port.W.Mask = 0b1111

			device.Tick()
			Expect(port.Cmd.Ready).To(BeFalse())
			Expect(port.W.Ready).To(BeFalse())

			device.Tick()
			Expect(port.Cmd.Ready).To(BeTrue())
			Expect(port.W.Ready).To(BeTrue())

			port.Cmd.Valid = false
			port.W.Valid = false
			device.Tick()
			Expect(port.Cmd.Ready).To(BeFalse())

			word, err := device.Storage().Read(5*4, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(word).To(Equal([]byte{0x11, 0x22, 0x33, 0x44}))
		})

		It("should merge under the byte mask", func() {
			build(dram.DefaultTiming())

			err := device.Storage().Write(5*4, []byte{0xA0, 0xA1, 0xA2, 0xA3})
			Expect(err).ToNot(HaveOccurred())

			port.Cmd.Valid = true
			port.Cmd.We = true
			port.Cmd.Addr = 5
			port.W.Valid = true
			port.W.Data = []byte{0x11, 0x22, 0x33, 0x44}
			port.W.Mask = 0b0101

			for i := 0; i < 2; i++ {
				device.Tick()
			}
			Expect(port.Cmd.Fire()).To(BeTrue())
			port.Cmd.Valid = false
			port.W.Valid = false

			word, err := device.Storage().Read(5*4, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(word).To(Equal([]byte{0x11, 0xA1, 0x33, 0xA3}))
		})

		It("should join a beat that arrives before its command", func() {
			build(dram.Timing{
				CmdAcceptLatency:   4,
				WriteAcceptLatency: 0,
				ReadLatency:        1,
			})

			port.Cmd.Valid = true
			port.Cmd.We = true
			port.Cmd.Addr = 2
			port.W.Valid = true
			port.W.Data = []byte{0xDE, 0xAD, 0xBE, 0xEF}
			port.W.Mask = 0b1111

			device.Tick()
			Expect(port.W.Fire()).To(BeTrue())
			Expect(port.Cmd.Fire()).To(BeFalse())
			port.W.Valid = false

			// Nothing lands until the command is in.
			word, err := device.Storage().Read(2*4, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(word).To(Equal([]byte{0, 0, 0, 0}))

			for i := 0; i < 4; i++ {
				device.Tick()
			}
			Expect(port.Cmd.Fire()).To(BeTrue())
			port.Cmd.Valid = false

			word, err = device.Storage().Read(2*4, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(word).To(Equal([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
		})
	})

	Describe("read access", func() {
		It("should answer after the configured latency", func() {
			build(dram.Timing{
				CmdAcceptLatency:   0,
				WriteAcceptLatency: 0,
				ReadLatency:        2,
			})

			err := device.Storage().Write(7*4, []byte{0xCA, 0xFE, 0xBA, 0xBE})
			Expect(err).ToNot(HaveOccurred())

			port.Cmd.Valid = true
			port.Cmd.We = false
			port.Cmd.Addr = 7
			port.R.Ready = true

			device.Tick()
			Expect(port.Cmd.Fire()).To(BeTrue())
			port.Cmd.Valid = false

			device.Tick()
			Expect(port.R.Valid).To(BeFalse())

			device.Tick()
			Expect(port.R.Valid).To(BeTrue())
			Expect(port.R.Data).To(Equal([]byte{0xCA, 0xFE, 0xBA, 0xBE}))

			port.R.Ready = false
			device.Tick()
			Expect(port.R.Valid).To(BeFalse())
		})

		It("should hold the read beat until the consumer is ready", func() {
			build(dram.Timing{
				CmdAcceptLatency:   0,
				WriteAcceptLatency: 0,
				ReadLatency:        1,
			})

			port.Cmd.Valid = true
			port.Cmd.We = false
			port.Cmd.Addr = 3

			device.Tick()
			port.Cmd.Valid = false

			device.Tick()
			Expect(port.R.Valid).To(BeTrue())

			// The consumer stalls; the beat must stay parked.
			for i := 0; i < 5; i++ {
				device.Tick()
				Expect(port.R.Valid).To(BeTrue())
			}

			port.R.Ready = true
			device.Tick()
			Expect(port.R.Fire()).To(BeTrue())

			port.R.Ready = false
			device.Tick()
			Expect(port.R.Valid).To(BeFalse())
		})
	})
})
