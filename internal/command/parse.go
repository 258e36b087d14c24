package command

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/turtle/internal/turtle"
)

// Parse reads one textual command: "Move 100", "Turn -90", "Pen Up",
// "Pen Down" or "SetColor Red". Keywords are case-insensitive.
func Parse(text string) (Action, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCommand)
	}

	keyword := strings.ToLower(fields[0])
	args := fields[1:]

	switch keyword {
	case "move":
		d, err := number(text, args)
		if err != nil {
			return nil, err
		}
		return Move{Distance: d}, nil
	case "turn":
		a, err := number(text, args)
		if err != nil {
			return nil, err
		}
		return Turn{Angle: a}, nil
	case "pen":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %q: want Pen Up or Pen Down", ErrInvalidCommand, text)
		}
		switch strings.ToLower(args[0]) {
		case "up":
			return PenUp{}, nil
		case "down":
			return PenDown{}, nil
		}
		return nil, fmt.Errorf("%w: %q: want Pen Up or Pen Down", ErrInvalidCommand, text)
	case "setcolor":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %q: want one color", ErrInvalidCommand, text)
		}
		c, err := turtle.ParseColor(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCommand, text, err)
		}
		return SetColor{Color: c}, nil
	}

	return nil, fmt.Errorf("%w: unknown keyword %q", ErrInvalidCommand, fields[0])
}

func number(text string, args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %q: want one number", ErrInvalidCommand, text)
	}
	f, err := strconv.ParseFloat(args[0], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q: %q is not a finite number", ErrInvalidCommand, text, args[0])
	}
	return f, nil
}

// ParseScript reads one command per line. Blank lines and lines starting
// with '#' are skipped. Errors carry the 1-based line number.
func ParseScript(r io.Reader) ([]Action, error) {
	var actions []Action

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		a, err := Parse(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		actions = append(actions, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return actions, nil
}
