package script_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.starlark.net/starlark"

	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/script"
)

func intOf(value starlark.Value) int {
	n, err := starlark.AsInt32(value)
	Expect(err).ToNot(HaveOccurred())
	return n
}

var _ = Describe("Script", func() {
	var (
		machine *script.Machine
		printed *bytes.Buffer
	)

	BeforeEach(func() {
		machine = script.NewMachine()
		printed = &bytes.Buffer{}
		machine.Print = printed
	})

	exec := func(src string) (starlark.StringDict, error) {
		return machine.Exec("test.star", src)
	}

	Describe("assemble and run", func() {
		It("should produce the object words and execute them", func() {
			globals, err := exec(`
words = lc3.assemble("""
.ORIG x3000
        ADD R2, R2, #-5
        ADD R2, R2, R2
        HALT
.END
""")
ticks = lc3.run()
r2 = lc3.reg(2)
cond = lc3.cond()
done = lc3.halted()
`)
			Expect(err).ToNot(HaveOccurred())

			words := globals["words"].(*starlark.List)
			Expect(words.Len()).To(Equal(4))
			Expect(intOf(words.Index(0))).To(Equal(0x3000))
			Expect(intOf(words.Index(1))).To(Equal(0x14BB))
			Expect(intOf(words.Index(2))).To(Equal(0x1482))
			Expect(intOf(words.Index(3))).To(Equal(0xF025))

			Expect(intOf(globals["ticks"])).To(Equal(3))
			Expect(intOf(globals["r2"])).To(Equal(0xFFF6))
			Expect(globals["cond"]).To(Equal(starlark.String("n")))
			Expect(globals["done"]).To(Equal(starlark.True))
			Expect(machine.Emulator.Register(cpu.REG_R2)).To(Equal(uint16(0xFFF6)))
		})

		It("should reset to the assembled program", func() {
			_, err := exec(`
lc3.assemble(".ORIG x3000\nADD R1, R1, #7\nHALT\n")
lc3.run()
lc3.reset()
if lc3.reg(1) != 0 or lc3.pc() != 0x3000:
    print("not reset")
lc3.run()
print(lc3.reg(1))
`)
			Expect(err).ToNot(HaveOccurred())
			Expect(printed.String()).To(Equal("7\n"))
		})

		It("should report assembly errors with the line", func() {
			_, err := exec(`lc3.assemble(".ORIG x3000\nADD R1, R1, #99\n")`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 2"))
		})
	})

	Describe("load and step", func() {
		It("should skip an instruction on a taken branch", func() {
			globals, err := exec(`
lc3.load([0x3000, 0x1261, 0x0201, 0x14A1, 0x16E1])
addrs = [lc3.step() for i in range(3)]
r1, r2, r3 = lc3.reg(1), lc3.reg(2), lc3.reg(3)
pc = lc3.pc()
`)
			Expect(err).ToNot(HaveOccurred())
			Expect(globals["addrs"].String()).To(Equal("[None, None, None]"))
			Expect(intOf(globals["r1"])).To(Equal(1))
			Expect(intOf(globals["r2"])).To(Equal(0))
			Expect(intOf(globals["r3"])).To(Equal(1))
			Expect(intOf(globals["pc"])).To(Equal(0x3004))
		})

		It("should return the load address", func() {
			globals, err := exec(`
lc3.poke(0x3100, 42)
lc3.load([0x3000, 0x20FF])
addr = lc3.step()
r0 = lc3.reg(0)
mem = lc3.peek(0x3100)
`)
			Expect(err).ToNot(HaveOccurred())
			Expect(intOf(globals["addr"])).To(Equal(0x3100))
			Expect(intOf(globals["r0"])).To(Equal(42))
			Expect(intOf(globals["mem"])).To(Equal(42))
		})

		It("should fail on a reserved opcode", func() {
			_, err := exec(`
lc3.load([0x3000, 0xD000])
lc3.step()
`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("x3000"))
		})

		It("should forget the assembled listing", func() {
			_, err := exec(`
lc3.assemble(".ORIG x3000\nADD R1, R1, #1\nHALT\n")
lc3.load([0x3000, 0xD000])
lc3.step()
`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("runtime: x3000"))
			Expect(machine.Emulator.Program.Len()).To(Equal(0))
		})

		It("should reject an empty object", func() {
			_, err := exec(`lc3.load([])`)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("registers and memory", func() {
		It("should truncate negative words", func() {
			globals, err := exec(`
lc3.set_reg(1, -1)
r1 = lc3.reg(1)
`)
			Expect(err).ToNot(HaveOccurred())
			Expect(intOf(globals["r1"])).To(Equal(0xFFFF))
		})

		It("should reject invalid registers", func() {
			_, err := exec(`lc3.reg(9)`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(cpu.ErrRegisterInvalid.Error()))

			_, err = exec(`lc3.set_reg(8, 1)`)
			Expect(err).To(HaveOccurred())
		})

		It("should reject out of range words", func() {
			_, err := exec(`lc3.poke(0x10000, 1)`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(script.ErrWordRange.Error()))
		})
	})

	Describe("console", func() {
		It("should service console traps", func() {
			globals, err := exec(`
lc3.assemble("""
.ORIG x3000
        LEA R0, MSG
        PUTS
        GETC
        OUT
        HALT
MSG     .STRINGZ "hi "
.END
""")
lc3.input("z")
lc3.run()
text = lc3.output()
`)
			Expect(err).ToNot(HaveOccurred())
			Expect(globals["text"]).To(Equal(starlark.String("hi z")))
		})
	})

	Describe("console stepping", func() {
		It("should service a console trap when stepping", func() {
			globals, err := exec(`
lc3.assemble("""
.ORIG x3000
        LD R0, CH
        OUT
        HALT
CH      .FILL x41
""")
addr = lc3.step()
out = lc3.step()
pc = lc3.pc()
text = lc3.output()
`)
			Expect(err).ToNot(HaveOccurred())
			Expect(intOf(globals["addr"])).To(Equal(0x3003))
			Expect(globals["out"]).To(Equal(starlark.None))
			Expect(intOf(globals["pc"])).To(Equal(0x3002))
			Expect(globals["text"]).To(Equal(starlark.String("A")))
			Expect(machine.Emulator.Register(cpu.REG_LINK)).To(Equal(uint16(0x3002)))
		})
	})

	Describe("limits", func() {
		It("should stop a runaway program", func() {
			_, err := exec(`
lc3.assemble(".ORIG x3000\nLOOP BR LOOP\n")
lc3.run(limit=100)
`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(cpu.ErrTickLimit.Error()))
			Expect(machine.Emulator.Cpu.Ticks).To(Equal(100))
			Expect(machine.Emulator.MaxTicks).To(Equal(0))
		})
	})
})
