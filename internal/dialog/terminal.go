package dialog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roboco-io/mdimg/internal/ir"
)

// errCancelled ends a terminal dialog early.
var errCancelled = errors.New("cancelled")

// Terminal prompts on a line-oriented reader and writer. Empty answers take
// the default shown in parentheses; "q" cancels.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Prompt implements Prompter.
func (t *Terminal) Prompt(ctx context.Context, req Request) (ir.ResizeChoice, bool, error) {
	choice, err := t.prompt(ctx, req)
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(t.out, "Cancelled.")
		return ir.ResizeChoice{}, false, nil
	}
	if err != nil {
		return ir.ResizeChoice{}, false, err
	}
	return choice, true, nil
}

func (t *Terminal) prompt(ctx context.Context, req Request) (ir.ResizeChoice, error) {
	size := req.Dimensions.String()
	if req.Fallback {
		size += ", size unknown"
	}
	fmt.Fprintf(t.out, "Image: %s (%s)\n", req.Ref.SourcePath(), size)

	choice := ir.ResizeChoice{}

	if err := t.ask(ctx, "Target syntax [markdown/html]", string(ir.SyntaxHTML), func(s string) error {
		k, err := ir.ParseSyntaxKind(s)
		choice.TargetKind = k
		return err
	}); err != nil {
		return choice, err
	}

	if err := t.ask(ctx, "Alt text", req.Ref.AltText, func(s string) error {
		choice.AltText = s
		return nil
	}); err != nil {
		return choice, err
	}

	if err := t.ask(ctx, "Title (- for none)", req.Ref.Title, func(s string) error {
		if s == "-" {
			s = ""
		}
		choice.Title = s
		return nil
	}); err != nil {
		return choice, err
	}

	if choice.TargetKind == ir.SyntaxMarkdown {
		return choice, nil
	}

	mode := req.DefaultMode
	if mode == "" {
		mode = ir.ModePercentage
	}
	if err := t.ask(ctx, "Resize mode [percentage/absolute]", string(mode), func(s string) error {
		m, err := ir.ParseResizeMode(s)
		choice.Mode = m
		return err
	}); err != nil {
		return choice, err
	}

	if choice.Mode == ir.ModePercentage {
		pct := req.DefaultPercentage
		if pct <= 0 {
			pct = 100
		}
		err := t.ask(ctx, "Percentage", strconv.FormatFloat(pct, 'f', -1, 64), func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v <= 0 {
				return fmt.Errorf("percentage must be a positive number")
			}
			choice.Percentage = v
			return nil
		})
		return choice, err
	}

	if err := t.ask(ctx, "Width", strconv.Itoa(req.Dimensions.Width), func(s string) error {
		v, err := parseSide(s)
		choice.Width = v
		return err
	}); err != nil {
		return choice, err
	}
	err := t.ask(ctx, "Height (0 keeps aspect ratio)", "0", func(s string) error {
		v, err := parseSide(s)
		choice.Height = v
		return err
	})
	return choice, err
}

// ask prints a question and feeds the answer, or def when empty, to set.
// Invalid answers are reported and asked again.
func (t *Terminal) ask(ctx context.Context, question, def string, set func(string) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(t.out, "%s (%s): ", question, def)

		line, err := t.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				return errCancelled
			}
			return fmt.Errorf("failed to read answer: %w", err)
		}

		answer := strings.TrimSpace(line)
		if strings.EqualFold(answer, "q") {
			return errCancelled
		}
		if answer == "" {
			answer = def
		}
		if err := set(answer); err != nil {
			fmt.Fprintf(t.out, "Invalid answer: %v\n", err)
			continue
		}
		return nil
	}
}

func parseSide(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("expected a non-negative whole number of pixels")
	}
	return v, nil
}
