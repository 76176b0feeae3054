package period

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
)

// Resolver produces the period a run selects.
type Resolver interface {
	Resolve(ctx context.Context) (Spec, error)
}

// Fixed resolves pre-supplied answers (flags or job config).
// Invalid answers fail immediately since there is no console to ask again.
type Fixed struct {
	Year  string
	Month string
}

// Resolve implements Resolver.
func (f Fixed) Resolve(_ context.Context) (Spec, error) {
	return Parse(f.Year, f.Month)
}

type state int

const (
	awaitYear state = iota
	awaitMonth
	done
)

// Prompt texts written to the console.
const (
	PromptYear       = "Please enter a year (yyyy):"
	RetryYear        = "Enter a proper year (digits only):"
	PromptMonth      = "Please enter a month (1-12 or a month name):"
	RetryMonthFormat = "Enter a valid month (%s):"
)

// Prompter asks for a year, then a month, repeating each question until the
// answer parses. It blocks on the reader and has no time limit.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer

	// Year and Month pre-fill answers; a non-empty valid value skips its prompt.
	Year  string
	Month string
}

// NewPrompter creates a Prompter reading answers from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Resolve implements Resolver.
// The only error is running out of input before both answers are valid.
func (p *Prompter) Resolve(ctx context.Context) (Spec, error) {
	var spec Spec
	st := awaitYear
	prompt := PromptYear
	yearAnswer, monthAnswer := p.Year, p.Month

	for st != done {
		if err := ctx.Err(); err != nil {
			return Spec{}, err
		}

		switch st {
		case awaitYear:
			answer, err := p.next(&yearAnswer, prompt)
			if err != nil {
				return Spec{}, err
			}
			y, err := ParseYear(answer)
			if err != nil {
				logger.Debug("year rejected", slog.String("input", answer))
				prompt = RetryYear
				continue
			}
			spec.Year = y
			st = awaitMonth
			prompt = PromptMonth

		case awaitMonth:
			answer, err := p.next(&monthAnswer, prompt)
			if err != nil {
				return Spec{}, err
			}
			m, err := ParseMonth(answer)
			if err != nil {
				logger.Debug("month rejected", slog.String("input", answer), slog.String("error", err.Error()))
				prompt = fmt.Sprintf(RetryMonthFormat, reason(err))
				continue
			}
			spec.Month = m
			st = done
		}
	}

	logger.Debug("period resolved",
		slog.String("label", spec.Label()),
		slog.String("mode", spec.Mode().String()),
	)
	return spec, nil
}

// next consumes a pre-filled answer once, otherwise asks on the console.
func (p *Prompter) next(prefill *string, prompt string) (string, error) {
	if *prefill != "" {
		answer := *prefill
		*prefill = ""
		return answer, nil
	}
	return p.ask(prompt)
}

func (p *Prompter) ask(prompt string) (string, error) {
	if _, err := fmt.Fprintln(p.out, prompt); err != nil {
		return "", errhandling.NewIOError("writing prompt", err)
	}
	if !p.in.Scan() {
		cause := p.in.Err()
		if cause == nil {
			cause = io.ErrUnexpectedEOF
		}
		return "", errhandling.NewInputError("console closed before a valid period was entered", cause)
	}
	return p.in.Text(), nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrMonthOutOfRange):
		return "a number from 1 to 12"
	case errors.Is(err, ErrAmbiguousMonth):
		var ce *errhandling.ClassifiedError
		if errors.As(err, &ce) {
			return ce.Message + ", which is ambiguous; type more of the name"
		}
		return "that name matches several months, type more of the name"
	default:
		return "1-12 or an English month name"
	}
}
