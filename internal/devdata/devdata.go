// Package devdata generates fake journal entries for development and tests.
package devdata

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/stolasapp/journal/internal/storage"
)

// EnvSeed overrides the random seed used by [Seed].
const EnvSeed = "JOURNAL_DEV_SEED"

// Content generation constants.
const (
	minParagraphs       = 2
	maxExtraParagraphs  = 5 // 2-6 paragraphs total
	minSentences        = 2
	maxExtraSentences   = 4 // 2-5 sentences total
	minWords            = 6
	maxExtraWords       = 10 // 6-15 words total
	codeProbability     = 0.4
	crammedProbability  = 0.25
	emphasisProbability = 0.3
)

// Seed returns the seed from the JOURNAL_DEV_SEED environment variable, or a
// random value if not set.
func Seed() uint64 {
	if env := os.Getenv(EnvSeed); env != "" {
		if seed, err := strconv.ParseUint(env, 10, 64); err == nil {
			return seed
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for test data
}

// Generator produces deterministic fake entries for a seed.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a Generator for seed.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Entry returns a title and a Markdown body. Bodies start with a subheading,
// sometimes written without the space after the hashes, and may contain a
// fenced code block.
func (g *Generator) Entry() (title, text string) {
	title = g.title()

	var builder strings.Builder
	builder.WriteString("##")
	if g.faker.Float64() >= crammedProbability {
		builder.WriteString(" ")
	}
	builder.WriteString(g.title())
	builder.WriteString("\n\n")

	numParagraphs := minParagraphs + g.faker.IntN(maxExtraParagraphs)
	for i := range numParagraphs {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(g.paragraph())
	}

	if g.faker.Float64() < codeProbability {
		builder.WriteString("\n\n")
		builder.WriteString(g.codeBlock())
	}
	return title, builder.String()
}

// Populate creates count entries in the store, returning the IDs in creation
// order.
func (g *Generator) Populate(ctx context.Context, entries storage.Entries, count int) ([]int64, error) {
	ids := make([]int64, 0, count)
	for range count {
		title, text := g.Entry()
		entry, err := entries.CreateEntry(ctx, title, text)
		if err != nil {
			return ids, fmt.Errorf("failed to create fake entry: %w", err)
		}
		ids = append(ids, entry.ID)
	}
	return ids, nil
}

func (g *Generator) paragraph() string {
	numSentences := minSentences + g.faker.IntN(maxExtraSentences)
	sentences := make([]string, numSentences)
	for i := range numSentences {
		sentences[i] = g.faker.Sentence(minWords + g.faker.IntN(maxExtraWords))
	}
	if g.faker.Float64() < emphasisProbability {
		sentences[0] = "*" + strings.TrimSuffix(sentences[0], ".") + "*."
	}
	return strings.Join(sentences, " ")
}

var codeSamples = []struct {
	lang string
	code func(f *gofakeit.Faker) string
}{
	{"python", func(f *gofakeit.Faker) string {
		return fmt.Sprintf("def %s(x):\n    return x * %d\n", f.Verb(), f.IntN(100))
	}},
	{"go", func(f *gofakeit.Faker) string {
		return fmt.Sprintf("func %s(n int) int {\n\treturn n + %d\n}\n", titleCase(f.Verb()), f.IntN(100))
	}},
	{"sql", func(f *gofakeit.Faker) string {
		return fmt.Sprintf("SELECT id, title FROM entries WHERE title LIKE '%%%s%%';\n", f.Noun())
	}},
	{"bash", func(f *gofakeit.Faker) string {
		return fmt.Sprintf("echo %q | wc -w\n", f.Sentence(4))
	}},
}

func (g *Generator) codeBlock() string {
	sample := codeSamples[g.faker.IntN(len(codeSamples))]
	return "```" + sample.lang + "\n" + sample.code(g.faker) + "```"
}

func (g *Generator) title() string {
	patterns := []func(*gofakeit.Faker) string{
		func(f *gofakeit.Faker) string { return fmt.Sprintf("The %s %s", f.Adjective(), f.Noun()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("Notes on %s", f.Noun()) },
		func(f *gofakeit.Faker) string {
			return fmt.Sprintf("%s and %s", titleCase(f.Noun()), titleCase(f.Noun()))
		},
		func(f *gofakeit.Faker) string { return fmt.Sprintf("Learning to %s", f.Verb()) },
		func(f *gofakeit.Faker) string {
			return fmt.Sprintf("Today I %s a %s %s", f.Verb(), f.Adjective(), f.Noun())
		},
	}
	return patterns[g.faker.IntN(len(patterns))](g.faker)
}

func titleCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
