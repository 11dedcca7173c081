package bucket_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bucketsim/internal/bucket"
)

const (
	ke0    = 70.44e6
	twoPi  = 2 * math.Pi
	scale  = 20.0
	volts0 = 19e3 * scale
)

// drift mirrors the phase advance of one turn: gamma from the energy at
// the start of the turn, applied to the kicked energy.
func drift(m bucket.Machine, start, ke, kicked float64) float64 {
	gamma := (start+ke)/m.RestEnergy + 1
	beta := math.Sqrt(1 - 1/(gamma*gamma))
	slip := 1/(gamma*gamma) - 1/(m.TransitionGamma*m.TransitionGamma)
	return (twoPi * float64(m.Harmonic) * slip) / (m.RestEnergy * beta * beta * gamma) * kicked
}

var _ = Describe("Machine", func() {
	var m bucket.Machine

	BeforeEach(func() {
		m = bucket.NewMachine(2, bucket.ProtonRestEnergy, bucket.ISISTransitionGamma)
	})

	Describe("Turn", func() {
		It("leaves a particle untouched when there is no kick and no energy offset", func() {
			p := bucket.Particle{Phase: 0.5, Energy: 0}
			Expect(m.Turn(&p, ke0, bucket.Params{})).To(Succeed())
			Expect(p.Phase).To(Equal(0.5))
			Expect(p.Energy).To(Equal(0.0))
			Expect(m.KineticGain(bucket.Params{})).To(Equal(0.0))
		})

		It("holds for the dual-harmonic variant too", func() {
			m.Harmonic = 4
			p := bucket.Particle{Phase: -1.2, Energy: 0}
			Expect(m.Turn(&p, ke0, bucket.Params{SyncPhase: 0.3})).To(Succeed())
			Expect(p.Phase).To(Equal(-1.2))
			Expect(p.Energy).To(Equal(0.0))
		})

		It("kicks with the single-harmonic voltage", func() {
			prm := bucket.Params{SyncPhase: math.Pi / 6, Voltage: volts0}
			p := bucket.Particle{Phase: 1.0, Energy: 1e5}
			want := 1e5 + volts0*(math.Sin(1.0)-math.Sin(math.Pi/6))

			Expect(m.Turn(&p, ke0, prm)).To(Succeed())
			Expect(p.Energy).To(Equal(want))
			Expect(m.KineticGain(prm)).To(Equal(volts0 * math.Sin(math.Pi/6)))
		})

		It("kicks with the second harmonic in antiphase when h=4", func() {
			m.Harmonic = 4
			phi, phiS := 1.0, math.Pi/6
			prm := bucket.Params{SyncPhase: phiS, Voltage: volts0}
			p := bucket.Particle{Phase: phi, Energy: 1e5}
			want := 1e5 + (volts0*(math.Sin(phi)-math.Sin(phiS)) +
				volts0*(math.Sin(2*phi+math.Pi)-math.Sin(2*phiS+math.Pi)))

			Expect(m.Turn(&p, ke0, prm)).To(Succeed())
			Expect(p.Energy).To(Equal(want))
			Expect(m.KineticGain(prm)).To(BeNumerically("~",
				volts0*(math.Sin(phiS)+math.Sin(2*phiS)), 1e-6))
		})

		It("drifts using the updated energy", func() {
			prm := bucket.Params{SyncPhase: 0, Voltage: volts0}
			p := bucket.Particle{Phase: 0.4, Energy: 5e5}
			kicked := 5e5 + volts0*math.Sin(0.4)

			Expect(m.Turn(&p, ke0, prm)).To(Succeed())
			Expect(p.Phase).To(Equal(0.4 - drift(m, 5e5, ke0, kicked)))
		})

		It("teleports an overshoot past +2pi to exactly -2pi", func() {
			energy := 1e5
			p := bucket.Particle{Phase: twoPi + 0.37 + drift(m, energy, ke0, energy), Energy: energy}
			Expect(m.Turn(&p, ke0, bucket.Params{})).To(Succeed())
			Expect(p.Phase).To(Equal(-twoPi))
		})

		It("teleports an overshoot past -2pi to exactly +2pi", func() {
			energy := -1e5
			p := bucket.Particle{Phase: -twoPi - 0.37 + drift(m, energy, ke0, energy), Energy: energy}
			Expect(m.Turn(&p, ke0, bucket.Params{})).To(Succeed())
			Expect(p.Phase).To(Equal(twoPi))
		})

		It("refuses states with no real gamma and leaves them untouched", func() {
			p := bucket.Particle{Phase: 0.2, Energy: -ke0 - 2*bucket.ProtonRestEnergy}
			before := p
			Expect(m.Turn(&p, ke0, bucket.Params{Voltage: volts0})).To(MatchError(bucket.ErrDomain))
			Expect(p).To(Equal(before))
		})

		It("refuses the sub-unity gamma range where beta is imaginary", func() {
			p := bucket.Particle{Phase: 0.2, Energy: -ke0 - 1e6}
			Expect(m.Turn(&p, ke0, bucket.Params{})).To(MatchError(bucket.ErrDomain))
		})

		It("refuses NaN energies", func() {
			p := bucket.Particle{Energy: math.NaN()}
			Expect(m.Turn(&p, ke0, bucket.Params{})).To(MatchError(bucket.ErrDomain))
		})

		It("refuses an infinite gamma", func() {
			p := bucket.Particle{Phase: 0.4, Energy: math.Inf(1)}
			before := p
			Expect(m.Turn(&p, ke0, bucket.Params{})).To(MatchError(bucket.ErrDomain))
			Expect(p).To(Equal(before))
		})

		It("refuses a kick that overflows the energy and leaves the particle untouched", func() {
			p := bucket.Particle{Phase: math.Pi / 2, Energy: 1.7e308}
			before := p
			Expect(m.Turn(&p, ke0, bucket.Params{Voltage: 1e308})).To(MatchError(bucket.ErrDomain))
			Expect(p).To(Equal(before))
		})
	})

	DescribeTable("WrapPhase",
		func(in, want float64) {
			Expect(bucket.WrapPhase(in)).To(Equal(want))
		},
		Entry("inside", 1.0, 1.0),
		Entry("upper edge is kept", twoPi, twoPi),
		Entry("lower edge is kept", -twoPi, -twoPi),
		Entry("small overshoot", twoPi+0.37, -twoPi),
		Entry("large overshoot", 5*twoPi, -twoPi),
		Entry("small undershoot", -twoPi-0.37, twoPi),
		Entry("large undershoot", -7*twoPi, twoPi),
	)
})
