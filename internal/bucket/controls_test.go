package bucket_test

import (
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bucketsim/internal/bucket"
)

var _ = Describe("Controls", func() {
	It("rejects harmonic numbers without a map variant", func() {
		for _, h := range []int{0, 1, 3, 5, 8} {
			_, err := bucket.NewControls(h, 0, 0, scale)
			Expect(err).To(MatchError(bucket.ErrUnsupportedHarmonic))
		}
	})

	It("stores the initial settings as given", func() {
		c, err := bucket.NewControls(4, 0.1, volts0, scale)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Harmonic()).To(Equal(4))
		Expect(c.Snapshot()).To(Equal(bucket.Params{SyncPhase: 0.1, Voltage: volts0}))
		Expect(c.RFVoltageKilovolts()).To(BeNumerically("~", 19, 1e-12))
	})

	It("converts degrees and scaled kilovolts", func() {
		c, err := bucket.NewControls(2, 0, 0, scale)
		Expect(err).NotTo(HaveOccurred())

		deg := 30.0
		c.SetSynchronousPhase(deg)
		c.SetRFVoltageAmplitude(19)

		snap := c.Snapshot()
		Expect(snap.SyncPhase).To(Equal(deg * math.Pi / 180))
		Expect(snap.Voltage).To(Equal(19 * 1e3 * scale))
		Expect(c.SynchronousPhaseDegrees()).To(BeNumerically("~", 30, 1e-12))
	})

	It("accepts out-of-range values without complaint", func() {
		c, err := bucket.NewControls(2, 0, 0, scale)
		Expect(err).NotTo(HaveOccurred())
		c.SetRFVoltageAmplitude(-50)
		deg := 720.0
		c.SetSynchronousPhase(deg)
		Expect(c.Snapshot().Voltage).To(Equal(-50 * 1e3 * scale))
		Expect(c.Snapshot().SyncPhase).To(Equal(deg * math.Pi / 180))
	})

	It("never hands out a torn pair while a writer is busy", func() {
		c, err := bucket.NewControls(2, 1, 1, scale)
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		stop := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				v := float64(i%2 + 1)
				c.Apply(bucket.Params{SyncPhase: v, Voltage: v})
			}
		}()

		for i := 0; i < 10000; i++ {
			s := c.Snapshot()
			Expect(s.SyncPhase).To(Equal(s.Voltage))
		}
		close(stop)
		wg.Wait()
	})
})
