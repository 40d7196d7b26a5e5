// Package console is the interactive terminal front-end: three prompts, one
// report.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/giygas/medbot/config"
	"github.com/giygas/medbot/interfaces"
	"github.com/giygas/medbot/logging"
	"golang.org/x/text/encoding/charmap"
)

const (
	Welcome   = "👋 Welcome to Symptom Cure Buddy!"
	Intro     = "I'll ask you a few questions about your symptoms.\n"
	Analyzing = "\n🔍 Analyzing symptoms...\n"

	PromptPrimary   = "👉 Enter your *primary* symptom: "
	PromptSecondary = "👉 Enter your *secondary* symptom (or press Enter to skip): "
	PromptOther     = "👉 Any other symptoms? (separated by commas, or press Enter to skip): "
)

// LogOptions sends warnings to stderr and keeps nothing on disk; the
// console holds no state beyond a single run.
func LogOptions(stderr io.Writer) logging.Options {
	return logging.Options{Env: config.EnvProduction, Level: "warn", Console: stderr}
}

// Run asks for the symptoms on in and writes the report to out.
// A closed input counts as empty answers, so a report is always printed
// unless ctx is canceled first.
func Run(ctx context.Context, in io.Reader, out io.Writer, advisor interfaces.Advisor) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, Welcome)
	fmt.Fprint(out, Intro+"\n")

	answers := make([]string, 0, 3)
	for _, prompt := range []string{PromptPrimary, PromptSecondary, PromptOther} {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, prompt)
		answer, err := readLine(reader)
		if err != nil {
			return fmt.Errorf("failed to read answer: %w", err)
		}
		answers = append(answers, answer)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	inputs := BuildInputs(answers[0], answers[1], answers[2])
	matched := advisor.Identify(inputs)
	logging.Debug("Console lookup", "inputs", len(inputs), "matched_count", len(matched))

	fmt.Fprint(out, Analyzing+"\n")
	fmt.Fprintln(out, advisor.Format(matched))
	return nil
}

// BuildInputs keeps the primary answer, the secondary one if given and each
// non-empty comma-separated part of the rest
func BuildInputs(primary, secondary, other string) []string {
	inputs := []string{strings.TrimSpace(primary)}
	if s := strings.TrimSpace(secondary); s != "" {
		inputs = append(inputs, s)
	}
	for _, part := range strings.Split(other, ",") {
		if p := strings.TrimSpace(part); p != "" {
			inputs = append(inputs, p)
		}
	}
	return inputs
}

// readLine returns one trimmed line; EOF yields whatever was read so far
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(decode(line)), nil
}

// decode treats non-UTF-8 input as ISO-8859-1, the usual legacy terminal encoding
func decode(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "")
	}
	return decoded
}
