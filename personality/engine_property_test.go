package personality

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/types"
)

func TestClampTrait_Properties(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("result is always within [0,100]", prop.ForAll(
		func(v int) bool {
			c := types.ClampTrait(v)
			return c >= 0 && c <= 100
		},
		gen.Int(),
	))

	properties.Property("in-range values pass through", prop.ForAll(
		func(v int) bool {
			return types.ClampTrait(v) == v
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestDerive_TraitBoundsProperty(t *testing.T) {
	t.Parallel()

	e := &Engine{logger: zap.NewNop()}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("derived traits stay within [0,100]", prop.ForAll(
		func(sentiments []float64, words int) bool {
			recent := make([]types.Interaction, 0, len(sentiments))
			for _, s := range sentiments {
				recent = append(recent, types.Interaction{
					ContentSummary: wordString(words),
					SentimentScore: s,
					Topics:         []string{"tecnologia", "educação", "política", "trabalho", "jogos"},
				})
			}
			p := e.Derive(nil, recent)
			return p.Formality >= 0 && p.Formality <= 100 &&
				p.Humor >= 0 && p.Humor <= 100 &&
				p.Technicality >= 0 && p.Technicality <= 100
		},
		gen.SliceOf(gen.Float64Range(-1, 1)),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func wordString(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, 'a', ' ')
	}
	return string(out)
}
