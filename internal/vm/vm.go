package vm

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// maxSteps bounds a single Run call against a runaway program (e.g. a
// miscompiled infinite loop in a test fixture); it is far above anything a
// spec-sized test program needs.
const maxSteps = 1_000_000

// VM executes an assembled Program against stdin/stdout. Register 0 is the
// program counter (component design's register convention); registers 1-7
// are general purpose, manipulated only by the instructions themselves.
type VM struct {
	prog *Program
	reg  [8]int
	mem  []int
	in   *bufio.Reader
	out  io.Writer
}

// New creates a VM over prog, ready to Run from _start.
func New(prog *Program, stdin io.Reader, stdout io.Writer) (*VM, error) {
	start, ok := prog.CodeLabels["_start"]
	if !ok {
		return nil, errors.New("program has no _start label")
	}
	mem := make([]int, len(prog.Data))
	copy(mem, prog.Data)
	m := &VM{prog: prog, mem: mem, in: bufio.NewReader(stdin), out: stdout}
	m.reg[0] = start
	return m, nil
}

// Run executes until HLT (or a fault, returned as an error).
func (m *VM) Run() error {
	for steps := 0; ; steps++ {
		if steps > maxSteps {
			return errors.New("program did not halt")
		}
		if m.reg[0] < 0 || m.reg[0] >= len(m.prog.Code) {
			return errors.Errorf("program counter %d out of range", m.reg[0])
		}
		instr := m.prog.Code[m.reg[0]]
		halt, err := m.step(instr)
		if err != nil {
			return errors.Wrapf(err, "line %d (%s)", instr.Line, instr.Mnemonic)
		}
		if halt {
			return nil
		}
	}
}

// step executes one instruction. The program counter is advanced to the
// next instruction before the body runs, so control-transfer instructions
// simply overwrite reg[0] with their target.
func (m *VM) step(instr Instruction) (halt bool, err error) {
	m.reg[0]++
	ops := instr.Operands

	switch instr.Mnemonic {
	case "MRI":
		dst, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		val, err := m.resolveImmediate(ops[1])
		if err != nil {
			return false, err
		}
		m.reg[dst] = val

	case "MRR":
		dst, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		src, err := registerIndex(ops[1])
		if err != nil {
			return false, err
		}
		m.reg[dst] = m.reg[src]

	case "MRM":
		dst, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		addr, err := m.resolveMemOperand(ops[1])
		if err != nil {
			return false, err
		}
		v, err := m.load(addr)
		if err != nil {
			return false, err
		}
		m.reg[dst] = v

	case "MMR":
		addr, err := m.resolveMemOperand(ops[0])
		if err != nil {
			return false, err
		}
		src, err := registerIndex(ops[1])
		if err != nil {
			return false, err
		}
		if err := m.store(addr, m.reg[src]); err != nil {
			return false, err
		}

	case "ADD", "SUB", "MUL", "DIV", "MOD":
		dst, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		a, err := registerIndex(ops[1])
		if err != nil {
			return false, err
		}
		b, err := registerIndex(ops[2])
		if err != nil {
			return false, err
		}
		v, err := arith(instr.Mnemonic, m.reg[a], m.reg[b])
		if err != nil {
			return false, err
		}
		m.reg[dst] = v

	case "NEG":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		m.reg[r] = -m.reg[r]

	case "ISZ":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		m.reg[r] = boolInt(m.reg[r] == 0)

	case "ISN":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		m.reg[r] = boolInt(m.reg[r] < 0)

	case "JPC":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		target, ok := m.prog.CodeLabels[ops[1]]
		if !ok {
			return false, errors.Errorf("undefined code label %q", ops[1])
		}
		if m.reg[r] == 0 {
			m.reg[0] = target
		}

	case "JMP":
		target, ok := m.prog.CodeLabels[ops[0]]
		if !ok {
			return false, errors.Errorf("undefined code label %q", ops[0])
		}
		m.reg[0] = target

	case "CAL":
		target, ok := m.prog.CodeLabels[ops[0]]
		if !ok {
			return false, errors.Errorf("undefined code label %q", ops[0])
		}
		if err := m.push(m.reg[0]); err != nil {
			return false, err
		}
		m.reg[0] = target

	case "CLR":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		target := m.reg[r]
		if err := m.push(m.reg[0]); err != nil {
			return false, err
		}
		m.reg[0] = target

	case "JPR":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		m.reg[0] = m.reg[r]

	case "PSH":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		if err := m.push(m.reg[r]); err != nil {
			return false, err
		}

	case "POP":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		m.reg[r] = v

	case "RDC":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		ch, _, err := m.in.ReadRune()
		if err != nil {
			m.reg[r] = -1
			break
		}
		m.reg[r] = int(ch)

	case "WRC":
		r, err := registerIndex(ops[0])
		if err != nil {
			return false, err
		}
		if _, err := io.WriteString(m.out, string(rune(m.reg[r]))); err != nil {
			return false, err
		}

	case "HLT":
		return true, nil

	default:
		return false, errors.Errorf("unknown mnemonic %q", instr.Mnemonic)
	}
	return false, nil
}

// push/pop manipulate the data-space stack addressed by R2, the emitter's
// stack pointer convention; the VM itself only moves the word, the
// emitted code is solely responsible for keeping R2 meaningful.
func (m *VM) push(v int) error {
	if err := m.store(m.reg[2], v); err != nil {
		return err
	}
	m.reg[2]++
	return nil
}

func (m *VM) pop() (int, error) {
	m.reg[2]--
	return m.load(m.reg[2])
}

func (m *VM) load(addr int) (int, error) {
	if addr < 0 || addr >= len(m.mem) {
		return 0, errors.Errorf("data address %d out of range", addr)
	}
	return m.mem[addr], nil
}

func (m *VM) store(addr, v int) error {
	if addr < 0 || addr >= len(m.mem) {
		return errors.Errorf("data address %d out of range", addr)
	}
	m.mem[addr] = v
	return nil
}

func arith(mnemonic string, a, b int) (int, error) {
	switch mnemonic {
	case "ADD":
		return a + b, nil
	case "SUB":
		return a - b, nil
	case "MUL":
		return a * b, nil
	case "DIV":
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		return a / b, nil
	case "MOD":
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		return a % b, nil
	default:
		return 0, errors.Errorf("not an arithmetic mnemonic: %q", mnemonic)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// resolveImmediate resolves an MRI operand: a decimal literal, or a label
// naming a DATA-space address (component design: MRI's label operand
// always resolves in DATA space).
func (m *VM) resolveImmediate(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	addr, ok := m.prog.DataLabels[s]
	if !ok {
		return 0, errors.Errorf("undefined data label %q", s)
	}
	return addr, nil
}

// resolveMemOperand resolves an "offset(register)" operand to a concrete
// data-space address.
func (m *VM) resolveMemOperand(s string) (int, error) {
	open := strings.IndexByte(s, '(')
	shut := strings.IndexByte(s, ')')
	if open < 0 || shut < 0 || shut < open {
		return 0, errors.Errorf("malformed memory operand %q", s)
	}
	offset, err := strconv.Atoi(strings.TrimSpace(s[:open]))
	if err != nil {
		return 0, errors.Wrapf(err, "memory operand %q", s)
	}
	reg, err := registerIndex(strings.TrimSpace(s[open+1 : shut]))
	if err != nil {
		return 0, err
	}
	return m.reg[reg] + offset, nil
}
