package control

import (
	"github.com/san-kum/wheelsim/internal/dynamo"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PID", func() {
	const dt = 0.001

	It("outputs proportional torque for a pure P controller", func() {
		pid := NewPID(0.02, 0, 0, 10, 0.5, dt)
		u := pid.Compute(dynamo.State{0}, 0)
		Expect(u).To(HaveLen(1))
		Expect(u[0]).To(BeNumerically("~", 0.2, 1e-12))
	})

	It("clamps the output to the torque limit", func() {
		pid := NewPID(10, 0, 0, 10, 0.5, dt)
		Expect(pid.Compute(dynamo.State{0}, 0)[0]).To(Equal(0.5))
		Expect(pid.Compute(dynamo.State{20}, dt)[0]).To(Equal(-0.5))
	})

	It("accumulates the integral before computing the output", func() {
		pid := NewPID(0, 1, 0, 10, 100, dt)
		Expect(pid.Compute(dynamo.State{0}, 0)[0]).To(BeNumerically("~", 0.01, 1e-12))
		Expect(pid.Compute(dynamo.State{0}, dt)[0]).To(BeNumerically("~", 0.02, 1e-12))
	})

	It("takes the first derivative against a zero previous error", func() {
		pid := NewPID(0, 0, 0.001, 10, 100, dt)
		Expect(pid.Compute(dynamo.State{0}, 0)[0]).To(BeNumerically("~", 10, 1e-9))
		Expect(pid.Compute(dynamo.State{0}, dt)[0]).To(BeNumerically("~", 0, 1e-9))
	})

	It("forgets history on Reset", func() {
		pid := NewPID(0, 1, 0, 10, 100, dt)
		pid.Compute(dynamo.State{0}, 0)
		pid.Compute(dynamo.State{0}, dt)
		pid.Reset()
		Expect(pid.Compute(dynamo.State{0}, 0)[0]).To(BeNumerically("~", 0.01, 1e-12))
	})

	It("supports live tuning", func() {
		pid := NewPID(1, 0, 0, 0, 1, dt)
		Expect(pid.SetParam("Kp", 2)).To(Succeed())
		Expect(pid.GetParams()).To(HaveKeyWithValue("Kp", 2.0))
		Expect(pid.SetParam("Limit", -1)).To(MatchError(dynamo.ErrParameterBounds))
		Expect(pid.SetParam("Kx", 1)).To(MatchError(dynamo.ErrUnknownParam))
	})

	It("returns zero control for an empty state", func() {
		pid := NewPID(1, 1, 1, 1, 1, dt)
		Expect(pid.Compute(dynamo.State{}, 0)).To(Equal(dynamo.Control{0}))
	})
})
