package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrCancelled is returned when input ends or the user quits
	ErrCancelled = errors.New("input cancelled")

	// ErrSkipped is returned by optional prompts on an empty answer
	ErrSkipped = errors.New("input skipped")

	// ErrNoChoices is returned by Select when there is nothing to select
	ErrNoChoices = errors.New("nothing to select")
)

// quitWords end an interactive session from any prompt
var quitWords = map[string]struct{}{
	"q":    {},
	"quit": {},
	"exit": {},
}

// Prompter asks questions on out and reads line answers from in.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter creates a prompter over in and out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Printf writes formatted output.
func (p *Prompter) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Line prints prompt and returns the trimmed answer.
func (p *Prompter) Line(prompt string) (string, error) {
	p.Printf("%s", prompt)

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", ErrCancelled
	}

	answer := strings.TrimSpace(p.scanner.Text())
	if _, ok := quitWords[strings.ToLower(answer)]; ok {
		return "", ErrCancelled
	}
	return answer, nil
}

// Float asks until the answer parses as a number accepted by valid. A nil
// valid accepts any number.
func (p *Prompter) Float(prompt string, valid func(float64) error) (float64, error) {
	for {
		answer, err := p.Line(prompt)
		if err != nil {
			return 0, err
		}

		v, err := parseNumber(answer)
		if err != nil {
			p.Printf("Invalid number %q, try again.\n", answer)
			continue
		}
		if valid != nil {
			if err = valid(v); err != nil {
				p.Printf("%s, try again.\n", err)
				continue
			}
		}
		return v, nil
	}
}

// OptionalFloat is like Float but returns ErrSkipped on an empty answer.
func (p *Prompter) OptionalFloat(prompt string, valid func(float64) error) (float64, error) {
	for {
		answer, err := p.Line(prompt)
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return 0, ErrSkipped
		}

		v, err := parseNumber(answer)
		if err != nil {
			p.Printf("Invalid number %q, try again.\n", answer)
			continue
		}
		if valid != nil {
			if err = valid(v); err != nil {
				p.Printf("%s, try again.\n", err)
				continue
			}
		}
		return v, nil
	}
}

// Choice asks until the answer is one of options, compared case-insensitively,
// and returns the matching option.
func (p *Prompter) Choice(prompt string, options ...string) (string, error) {
	for {
		answer, err := p.Line(prompt)
		if err != nil {
			return "", err
		}
		for _, o := range options {
			if strings.EqualFold(answer, o) {
				return o, nil
			}
		}
		p.Printf("Please answer one of: %s\n", strings.Join(options, ", "))
	}
}

// Confirm asks a yes/no question. An empty answer returns def.
func (p *Prompter) Confirm(prompt string, def bool) (bool, error) {
	for {
		answer, err := p.Line(prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.Printf("Please answer y or n.\n")
	}
}

// FloatList reads numbers separated by commas or spaces. An empty answer
// returns no numbers.
func (p *Prompter) FloatList(prompt string, valid func(float64) error) ([]float64, error) {
next:
	for {
		answer, err := p.Line(prompt)
		if err != nil {
			return nil, err
		}

		fields := strings.FieldsFunc(answer, func(r rune) bool {
			return r == ',' || r == ';' || unicode.IsSpace(r)
		})
		values := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := parseNumber(f)
			if err != nil {
				p.Printf("Invalid number %q, try again.\n", f)
				continue next
			}
			if valid != nil {
				if err = valid(v); err != nil {
					p.Printf("%s, try again.\n", err)
					continue next
				}
			}
			values = append(values, v)
		}
		return values, nil
	}
}

// Resolver maps a selection to one of the listed names.
type Resolver interface {
	Propellers() ([]string, error)
	Resolve(selection string) (string, error)
}

// Select lists the propellers of r and asks until a selection resolves.
func (p *Prompter) Select(r Resolver) (string, error) {
	names, err := r.Propellers()
	if err != nil {
		return "", fmt.Errorf("listing propellers: %w", err)
	}
	if len(names) == 0 {
		return "", ErrNoChoices
	}

	p.Printf("\nAvailable propellers:\n")
	for i, name := range names {
		p.Printf("%4d. %s\n", i+1, name)
	}

	for {
		answer, err := p.Line("\nSelect propeller (number or name, q to quit): ")
		if err != nil {
			return "", err
		}
		name, err := r.Resolve(answer)
		if err != nil {
			p.Printf("%s\n", err)
			continue
		}
		return name, nil
	}
}

// parseNumber parses a finite decimal number. NaN and infinities are rejected.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
