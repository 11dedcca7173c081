package bucket_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bucketsim/internal/bucket"
)

func newEnsemble(h int, seed int64, n int, phiS, volts float64) *bucket.Ensemble {
	GinkgoHelper()
	c, err := bucket.NewControls(h, phiS, volts, scale)
	Expect(err).NotTo(HaveOccurred())
	m := bucket.NewMachine(h, bucket.ProtonRestEnergy, bucket.ISISTransitionGamma)
	e, err := bucket.NewEnsemble(m, c, n, ke0, rand.New(rand.NewSource(seed)))
	Expect(err).NotTo(HaveOccurred())
	return e
}

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

var _ = Describe("Ensemble", func() {
	Describe("seeding", func() {
		It("draws phase and energy inside the seeding window", func() {
			e := newEnsemble(4, 7, 1000, 0, volts0)
			Expect(e.Len()).To(Equal(1000))
			Expect(e.KineticEnergy()).To(Equal(ke0))
			for _, p := range e.Particles() {
				Expect(p.Phase).To(BeNumerically(">=", -0.75*math.Pi))
				Expect(p.Phase).To(BeNumerically("<=", 0.75*math.Pi))
				Expect(p.Energy).To(BeNumerically(">=", -2e6))
				Expect(p.Energy).To(BeNumerically("<=", 2e6))
				Expect(p.Lost).To(BeFalse())
			}
		})

		It("maps the source onto the window edges", func() {
			ps := bucket.SeedParticles(constSource(0), 2)
			Expect(ps[0].Phase).To(Equal(-bucket.SeedPhaseSpan))
			Expect(ps[0].Energy).To(Equal(-bucket.SeedEnergySpan))

			ps = bucket.SeedParticles(constSource(0.5), 1)
			Expect(ps[0].Phase).To(BeNumerically("~", 0, 1e-15))
			Expect(ps[0].Energy).To(BeNumerically("~", 0, 1e-9))
		})

		It("rejects a harmonic mismatch between machine and controls", func() {
			c, err := bucket.NewControls(2, 0, 0, scale)
			Expect(err).NotTo(HaveOccurred())
			m := bucket.NewMachine(4, bucket.ProtonRestEnergy, bucket.ISISTransitionGamma)
			_, err = bucket.NewEnsembleFrom(m, c, nil, ke0)
			Expect(err).To(MatchError(bucket.ErrUnsupportedHarmonic))
		})
	})

	Describe("Step", func() {
		It("leaves everything still with no voltage and no energy offsets", func() {
			c, err := bucket.NewControls(2, 0, 0, scale)
			Expect(err).NotTo(HaveOccurred())
			m := bucket.NewMachine(2, bucket.ProtonRestEnergy, bucket.ISISTransitionGamma)
			start := []bucket.Particle{{Phase: 0.5}, {Phase: -3}, {Phase: 6}}
			e, err := bucket.NewEnsembleFrom(m, c, start, ke0)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				Expect(e.Step()).To(Succeed())
			}
			Expect(e.Particles()).To(Equal(start))
			Expect(e.KineticEnergy()).To(Equal(ke0))
			Expect(e.Turn()).To(Equal(10))
		})

		It("keeps every phase inside [-2pi, 2pi]", func() {
			e := newEnsemble(4, 11, 500, bucket.DegreesToRadians(30), 150e3*scale)
			for i := 0; i < 300; i++ {
				_ = e.Step()
				for _, p := range e.Particles() {
					if p.Lost {
						continue
					}
					Expect(p.Phase).To(BeNumerically(">=", -twoPi))
					Expect(p.Phase).To(BeNumerically("<=", twoPi))
				}
			}
		})

		It("diverges between the single and dual harmonic maps", func() {
			phiS := bucket.DegreesToRadians(20)
			h2 := newEnsemble(2, 3, 50, phiS, volts0)
			h4 := newEnsemble(4, 3, 50, phiS, volts0)
			Expect(h2.Particles()).To(Equal(h4.Particles()))

			Expect(h2.Step()).To(Succeed())
			Expect(h4.Step()).To(Succeed())
			Expect(h2.Particles()).NotTo(Equal(h4.Particles()))
			Expect(h2.KineticEnergy()).NotTo(Equal(h4.KineticEnergy()))
		})

		It("reproduces a run bit for bit from the same seed and control sequence", func() {
			run := func() ([]bucket.Particle, []float64) {
				e := newEnsemble(4, 42, 200, 0, volts0)
				var kes []float64
				for turn := 1; turn <= 400; turn++ {
					switch turn {
					case 100:
						e.Controls().SetSynchronousPhase(15)
					case 250:
						e.Controls().SetRFVoltageAmplitude(60)
					}
					_ = e.Step()
					kes = append(kes, e.KineticEnergy())
				}
				return e.Particles(), kes
			}
			p1, k1 := run()
			p2, k2 := run()
			Expect(p1).To(Equal(p2))
			Expect(k1).To(Equal(k2))
		})

		It("applies a control change from the next turn on only", func() {
			a := newEnsemble(2, 5, 20, 0, volts0)
			b := newEnsemble(2, 5, 20, 0, volts0)

			Expect(a.Step()).To(Succeed())
			Expect(b.Step()).To(Succeed())
			afterFirst := b.Particles()

			b.Controls().SetSynchronousPhase(30)
			Expect(b.Particles()).To(Equal(afterFirst))
			Expect(b.KineticEnergy()).To(Equal(a.KineticEnergy()))

			keBefore := b.KineticEnergy()
			Expect(a.Step()).To(Succeed())
			Expect(b.Step()).To(Succeed())
			Expect(b.Particles()).NotTo(Equal(a.Particles()))
			Expect(b.KineticEnergy()).To(Equal(keBefore + volts0*math.Sin(bucket.DegreesToRadians(30))))
		})

		It("freezes a particle that leaves the physical domain and keeps the rest going", func() {
			c, err := bucket.NewControls(2, 0, volts0, scale)
			Expect(err).NotTo(HaveOccurred())
			m := bucket.NewMachine(2, bucket.ProtonRestEnergy, bucket.ISISTransitionGamma)
			bad := bucket.Particle{Phase: 0.3, Energy: -ke0 - 2*bucket.ProtonRestEnergy}
			e, err := bucket.NewEnsembleFrom(m, c, []bucket.Particle{{Phase: 0.3, Energy: 1e5}, bad}, ke0)
			Expect(err).NotTo(HaveOccurred())

			err = e.Step()
			Expect(err).To(MatchError(bucket.ErrDomain))
			var perr *bucket.ParticleError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Index).To(Equal(1))
			Expect(perr.Turn).To(Equal(1))

			Expect(e.Lost()).To(Equal(1))
			frozen := e.Particle(1)
			Expect(frozen.Lost).To(BeTrue())
			Expect(frozen.Phase).To(Equal(bad.Phase))
			Expect(frozen.Energy).To(Equal(bad.Energy))
			Expect(e.Particle(0).Energy).NotTo(Equal(1e5))

			Expect(e.Step()).To(Succeed())
			Expect(e.Lost()).To(Equal(1))
			Expect(e.Particle(1).Energy).To(Equal(bad.Energy))
		})

		It("freezes an overflowing particle before any NaN reaches the ensemble", func() {
			c, err := bucket.NewControls(2, 0, 1e308, scale)
			Expect(err).NotTo(HaveOccurred())
			m := bucket.NewMachine(2, bucket.ProtonRestEnergy, bucket.ISISTransitionGamma)
			start := bucket.Particle{Phase: math.Pi / 2, Energy: 1.7e308}
			e, err := bucket.NewEnsembleFrom(m, c, []bucket.Particle{start}, ke0)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Step()).To(MatchError(bucket.ErrDomain))
			for i := 0; i < 2; i++ {
				Expect(e.Step()).To(Succeed())
			}
			p := e.Particle(0)
			Expect(p.Lost).To(BeTrue())
			Expect(p.Phase).To(Equal(start.Phase))
			Expect(p.Energy).To(Equal(start.Energy))
			Expect(math.IsNaN(p.Phase) || math.IsNaN(p.Energy)).To(BeFalse())
		})

		It("notifies observers with the updated state", func() {
			e := newEnsemble(4, 1, 10, 0, volts0)
			var turns []int
			var seen []bucket.Particle
			e.AddObserver(bucket.ObserverFunc(func(turn int, ps []bucket.Particle, ke float64) {
				turns = append(turns, turn)
				seen = append(seen[:0], ps...)
				Expect(ke).To(Equal(ke0))
			}))
			Expect(e.Step()).To(Succeed())
			Expect(e.Step()).To(Succeed())
			Expect(turns).To(Equal([]int{1, 2}))
			Expect(seen).To(Equal(e.Particles()))
		})
	})
})
