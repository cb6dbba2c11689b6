package analyzer

// Keyword tables for the ten topic categories. Matching is substring-based
// over the lower-cased text, so multi-word entries work unchanged.
var topicKeywords = map[string][]string{
	"jogos":      {"jogo", "jogar", "game", "gaming", "console", "playstation", "xbox", "nintendo", "steam"},
	"tecnologia": {"tech", "tecnologia", "computador", "pc", "programação", "código", "software", "hardware"},
	"música":     {"música", "canção", "banda", "artista", "álbum", "spotify", "playlist", "tocar"},
	"filmes":     {"filme", "cinema", "assistir", "netflix", "série", "episódio", "temporada", "ator", "atriz"},
	"animes":     {"anime", "manga", "otaku", "japonês", "episódio", "personagem", "naruto", "one piece"},
	"esportes":   {"esporte", "futebol", "basquete", "vôlei", "time", "jogo", "campeonato", "copa"},
	"comida":     {"comida", "comer", "restaurante", "receita", "prato", "culinária", "cozinhar", "delicioso"},
	"política":   {"política", "governo", "presidente", "eleição", "partido", "congresso", "lei", "votar"},
	"educação":   {"escola", "faculdade", "universidade", "estudar", "professor", "aluno", "curso", "aula"},
	"trabalho":   {"trabalho", "emprego", "empresa", "chefe", "colega", "escritório", "reunião", "projeto"},
}

// Keyword tables for the four emotion categories, emoji included.
var emotionKeywords = map[string][]string{
	"feliz":  {"feliz", "alegre", "contente", "animado", "empolgado", "divertido", "amo", "adoro", "ótimo", "excelente", "maravilhoso", "incrível", "😊", "😄", "😁", "🙂", "😀"},
	"triste": {"triste", "chateado", "deprimido", "desanimado", "melancólico", "infeliz", "péssimo", "terrível", "😢", "😭", "😔", "😞", "😥"},
	"bravo":  {"bravo", "irritado", "furioso", "nervoso", "chateado", "frustrado", "raiva", "ódio", "😠", "😡", "🤬", "😤", "😒"},
	"neutro": {"ok", "normal", "tanto faz", "talvez", "pode ser", "mais ou menos", "médio", "moderado", "😐", "😶", "🙄"},
}

// Per-hit sentiment weight of each emotion category. Neutral hits count
// toward normalization but contribute no score.
var emotionWeights = map[string]float64{
	"feliz":  0.5,
	"triste": -0.3,
	"bravo":  -0.5,
	"neutro": 0.0,
}

// Idiomatic expressions detected verbatim (compiled as regexps so future
// entries can carry patterns, not just literals).
var commonExpressions = []string{
	`nossa senhora`,
	`caramba meu`,
	`meu deus`,
	`pelo amor`,
	`na moral`,
	`fala sério`,
	`com certeza`,
	`tipo assim`,
	`sabe como é`,
	`então né`,
	`pois é`,
	`tá ligado`,
	`vamos combinar`,
	`sei lá`,
	`enfim`,
	`basicamente`,
}
