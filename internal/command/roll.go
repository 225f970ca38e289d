package command

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/keshon/domme-dispatch/pkg/cmd"
)

const (
	maxDice    = 100
	maxSides   = 1000
	maxLiteral = 1_000_000
)

var (
	tokenRegex = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-*/])`)
	diceRegex  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
	validOps   = map[string]bool{"+": true, "-": true, "*": true, "/": true}
)

type term struct {
	value int
	desc  string
	op    string
}

func rollCommand(intN func(int) int) *cmd.Node {
	return cmd.New("roll", func(_ context.Context, _ cmd.Message, args []string) (cmd.Result, error) {
		formula := strings.Join(args, "")
		if formula == "" {
			return cmd.Ephemeral("Usage: `roll <formula>`, for example `roll 2d6+1d4*2-3`"), nil
		}
		total, calc, err := roll(formula, intN)
		if err != nil {
			return cmd.Ephemeral(fmt.Sprintf("Can't roll `%s`: %v", formula, err)), nil
		}
		return cmd.Public(fmt.Sprintf("🎲 `%s`\n**Calculation**: %s\n**Result**: **%d**", formula, calc, total)), nil
	}).
		Describe("Roll dice like `2d20+1d6-2`").
		Args("<formula>").
		Alias("dice")
}

// roll evaluates formula: dice and integers joined by + - * /, where * and /
// bind tighter than + and -. Only the first operand may carry a sign.
func roll(formula string, intN func(int) int) (int, string, error) {
	tokens := tokenRegex.FindAllString(formula, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != formula {
		return 0, "", errors.New("use dice like `2d6`, numbers and + - * /")
	}

	var terms []term
	op := "+"
	wantOperand := true
	for i, token := range tokens {
		if validOps[token] {
			switch {
			case !wantOperand:
				op, wantOperand = token, true
			case i == 0 && token == "-":
				op = "-"
			default:
				return 0, "", fmt.Errorf("`%s` needs a number or dice before it", token)
			}
			continue
		}
		if !wantOperand {
			return 0, "", fmt.Errorf("missing an operator before `%s`", token)
		}
		val, desc, err := evaluateToken(token, intN)
		if err != nil {
			return 0, "", fmt.Errorf("`%s`: %w", token, err)
		}
		terms = append(terms, term{value: val, desc: desc, op: op})
		op, wantOperand = "+", false
	}
	if len(terms) == 0 {
		return 0, "", errors.New("nothing to roll")
	}
	if wantOperand {
		return 0, "", errors.New("the formula ends with an operator")
	}

	var merged []term
	for _, t := range terms {
		if t.op != "*" && t.op != "/" {
			merged = append(merged, t)
			continue
		}
		prev := &merged[len(merged)-1]
		if t.op == "*" {
			p, ok := mulChecked(prev.value, t.value)
			if !ok {
				return 0, "", errTooBig
			}
			prev.value = p
		} else {
			if t.value == 0 {
				return 0, "", errors.New("can't divide by zero")
			}
			prev.value /= t.value
		}
		prev.desc = fmt.Sprintf("%s %s %s", prev.desc, t.op, t.desc)
	}

	total := 0
	var calc strings.Builder
	for i, t := range merged {
		switch {
		case i == 0 && t.op == "-":
			calc.WriteString("-")
		case i > 0:
			calc.WriteString(" " + t.op + " ")
		}
		calc.WriteString(t.desc)

		v := t.value
		if t.op == "-" {
			v = -v
		}
		sum, ok := addChecked(total, v)
		if !ok {
			return 0, "", errTooBig
		}
		total = sum
	}
	return total, calc.String(), nil
}

var errTooBig = errors.New("the result is too big")

// mulChecked multiplies non-negative a and b, reporting false on overflow.
func mulChecked(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func addChecked(a, b int) (int, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func evaluateToken(token string, intN func(int) int) (int, string, error) {
	if m := diceRegex.FindStringSubmatch(token); m != nil {
		count := 1
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				return 0, "", errors.New("invalid dice count")
			}
			count = n
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil || sides < 2 {
			return 0, "", errors.New("invalid dice sides")
		}
		if count > maxDice || sides > maxSides {
			return 0, "", fmt.Errorf("too big, max %d dice with %d sides", maxDice, maxSides)
		}

		sum := 0
		rolls := make([]string, count)
		for i := range count {
			r := intN(sides) + 1
			sum += r
			rolls[i] = strconv.Itoa(r)
		}
		return sum, fmt.Sprintf("`%s` [%s]", token, strings.Join(rolls, ", ")), nil
	}

	num, err := strconv.Atoi(token)
	if err != nil || num > maxLiteral {
		return 0, "", fmt.Errorf("numbers must be between 0 and %d", maxLiteral)
	}
	return num, fmt.Sprintf("`%d`", num), nil
}
