package control

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fuzzy", func() {
	const dt = 0.001

	Describe("Memberships", func() {
		It("partitions unity across the input range", func() {
			for x := -1.0; x <= 1.0; x += 0.05 {
				mu := Memberships(x)
				sum := 0.0
				for _, m := range mu {
					Expect(m).To(BeNumerically(">=", 0))
					sum += m
				}
				Expect(sum).To(BeNumerically("~", 1, 1e-9))
			}
		})

		It("gives full membership at term centers", func() {
			Expect(Memberships(0)[ZE]).To(Equal(1.0))
			Expect(Memberships(0.5)[PS]).To(Equal(1.0))
			Expect(Memberships(-1)[NB]).To(Equal(1.0))
		})
	})

	Describe("Infer", func() {
		DescribeTable("rule base outputs",
			func(e, de, want float64) {
				Expect(Infer(e, de)).To(BeNumerically("~", want, 1e-9))
			},
			Entry("zero error holds", 0.0, 0.0, 0.0),
			Entry("large error pushes hard", 1.0, 0.0, 1.0),
			Entry("opposing rate cancels", 1.0, -1.0, 0.0),
			Entry("both positive saturate", 0.5, 0.5, 1.0),
			Entry("interpolates between terms", 0.25, 0.0, 0.25),
		)

		It("is odd-symmetric", func() {
			for _, p := range [][2]float64{{0.3, 0.1}, {-0.7, 0.4}, {0.9, -0.2}} {
				Expect(Infer(-p[0], -p[1])).To(BeNumerically("~", -Infer(p[0], p[1]), 1e-12))
			}
		})

		It("stays within [-1, 1]", func() {
			for e := -1.0; e <= 1.0; e += 0.1 {
				for de := -1.0; de <= 1.0; de += 0.1 {
					Expect(math.Abs(Infer(e, de))).To(BeNumerically("<=", 1+1e-12))
				}
			}
		})
	})

	Describe("Compute", func() {
		It("ramps torque up while below the setpoint", func() {
			f := NewFuzzy(10, 0.5, dt)
			u1 := f.Compute(dynamo.State{0}, 0)[0]
			u2 := f.Compute(dynamo.State{0}, dt)[0]
			Expect(u1).To(BeNumerically(">", 0))
			Expect(u2).To(BeNumerically(">", u1))
			Expect(u1).To(BeNumerically("~", DefaultFuzzyGain*0.5*dt, 1e-12))
		})

		It("never exceeds the torque limit", func() {
			f := NewFuzzy(10, 0.5, dt)
			for i := 0; i < 5000; i++ {
				u := f.Compute(dynamo.State{0}, float64(i)*dt)[0]
				Expect(math.Abs(u)).To(BeNumerically("<=", 0.5))
			}
			Expect(f.Output()).To(Equal(0.5))
		})

		It("forgets accumulated torque on Reset", func() {
			f := NewFuzzy(10, 0.5, dt)
			f.Compute(dynamo.State{0}, 0)
			f.Reset()
			Expect(f.Output()).To(Equal(0.0))
		})

		It("defaults scales from the setpoint", func() {
			f := NewFuzzy(-20, 0.5, dt)
			Expect(f.GetParams()).To(HaveKeyWithValue("ErrorScale", 20.0))
			Expect(NewFuzzy(0.2, 0.5, dt).GetParams()).To(HaveKeyWithValue("ErrorScale", 1.0))
		})

		It("rejects unknown or out-of-range parameters", func() {
			f := NewFuzzy(1, 1, dt)
			Expect(f.SetParam("Gain", -1)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(f.SetParam("Foo", 1)).To(MatchError(dynamo.ErrUnknownParam))
			Expect(f.SetParam("Gain", 2)).To(Succeed())
			Expect(f.Gain).To(Equal(2.0))
		})
	})

	It("labels terms", func() {
		Expect(TermName(PS)).To(Equal("PS"))
		Expect(TermName(7)).To(Equal("?"))
	})
})

var _ = Describe("None", func() {
	It("returns a zero control of the requested dimension", func() {
		u := NewNone(2).Compute(dynamo.State{1, 2}, 0)
		Expect(u).To(Equal(dynamo.Control{0, 0}))
	})

	It("falls back to a single zero torque without a dimension", func() {
		Expect((&None{}).Compute(dynamo.State{3}, 1)).To(Equal(dynamo.Control{0}))
	})
})
