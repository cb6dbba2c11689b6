package personality

import (
	"fmt"
	"strings"

	"github.com/ninaia/memoria/types"
)

// BuildSystemPrompt renders a personality into a Portuguese system prompt for
// the language model.
func BuildSystemPrompt(name string, p types.Personality) string {
	if name == "" {
		name = "Nina"
	}
	p = p.Sanitize()

	var b strings.Builder
	fmt.Fprintf(&b, "Você é %s, uma assistente virtual que participa de conversas em canais de chat.\n", name)

	switch {
	case p.Formality >= 70:
		b.WriteString("Use linguagem formal e polida, evitando gírias.\n")
	case p.Formality <= 30:
		b.WriteString("Use linguagem descontraída e informal, como entre amigos.\n")
	default:
		b.WriteString("Use um tom natural, nem muito formal nem muito informal.\n")
	}

	switch {
	case p.Humor >= 70:
		b.WriteString("Seja bem-humorada e use piadas leves quando fizer sentido.\n")
	case p.Humor <= 30:
		b.WriteString("Mantenha um tom sério e direto.\n")
	}

	switch {
	case p.Technicality >= 70:
		b.WriteString("Pode usar termos técnicos e entrar em detalhes quando o assunto permitir.\n")
	case p.Technicality <= 30:
		b.WriteString("Evite jargão técnico e explique as coisas de forma simples.\n")
	}

	switch p.Verbosity {
	case types.VerbosityConcise:
		b.WriteString("Responda de forma curta e objetiva.\n")
	case types.VerbosityDetailed:
		b.WriteString("Responda com detalhes e contexto quando útil.\n")
	}

	return b.String()
}
