package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights tunes the heuristic signal detectors. Points are on the same scale as MaxScore.
type Weights struct {
	Base              float64 `yaml:"base"`
	Superlative       float64 `yaml:"superlative"`
	SuperlativeCap    float64 `yaml:"superlative_cap"`
	ExclamationPer100 float64 `yaml:"exclamation_per_100_chars"`
	ExclamationCap    float64 `yaml:"exclamation_cap"`
	Caps              float64 `yaml:"caps_word"`
	CapsCap           float64 `yaml:"caps_cap"`
	Laughter          float64 `yaml:"laughter"`
	LaughterCap       float64 `yaml:"laughter_cap"`
	Mismatch          float64 `yaml:"rating_mismatch"`
	SweetSpot         float64 `yaml:"sweet_spot"`
	SweetSpotMin      int     `yaml:"sweet_spot_min_chars"`
	SweetSpotMax      int     `yaml:"sweet_spot_max_chars"`
	TooShort          float64 `yaml:"too_short"`
	TooShortMax       int     `yaml:"too_short_max_chars"`
	OwnerReply        float64 `yaml:"owner_reply"`
}

// SafetyRules lists deny-list terms per risk category.
// Terms may be single words or phrases; matching is accent and case insensitive.
type SafetyRules struct {
	Risky       map[string][]string `yaml:"risky"`
	PIIPatterns []string            `yaml:"pii_patterns"`
	Uncertain   []string            `yaml:"uncertain"`
}

// Rules holds the lexicons and weights used by the heuristic scorer.
type Rules struct {
	Weights      Weights  `yaml:"weights"`
	Superlatives []string `yaml:"superlatives"`
	Positive     []string `yaml:"positive"`
	// Laughter holds regular expressions matched against single folded words.
	Laughter []string `yaml:"laughter_words"`
	// LaughterSymbols are literal substrings counted in the raw body (emoji).
	LaughterSymbols []string    `yaml:"laughter_symbols"`
	Safety          SafetyRules `yaml:"safety"`
}

// Risk categories.
const (
	CategoryHarassment   = "harassment"
	CategoryPersonalData = "personal_data"
	CategorySlurs        = "slurs"
	CategoryLegalRisk    = "legal_risk"
	CategoryMinors       = "minors"
)

// DefaultRules returns the built-in English and Spanish lexicons.
func DefaultRules() Rules {
	return Rules{
		Weights: Weights{
			Base:              10,
			Superlative:       6,
			SuperlativeCap:    24,
			ExclamationPer100: 5,
			ExclamationCap:    15,
			Caps:              3,
			CapsCap:           12,
			Laughter:          8,
			LaughterCap:       16,
			Mismatch:          10,
			SweetSpot:         10,
			SweetSpotMin:      80,
			SweetSpotMax:      600,
			TooShort:          -10,
			TooShortMax:       20,
			OwnerReply:        5,
		},
		Superlatives: []string{
			"worst", "never", "horrible", "terrible", "disgusting", "awful", "nightmare",
			"rude", "dirty", "inedible", "disaster", "pathetic", "ridiculous", "unbelievable",
			"worst ever", "never again", "zero stars",
			"peor", "nunca", "asco", "asqueroso", "horroroso", "pesimo", "fatal", "desastre",
			"vergonzoso", "lamentable", "penoso", "nunca mas", "cero estrellas",
		},
		Positive: []string{
			"amazing", "love", "loved", "great", "wonderful", "fantastic", "perfect", "excellent",
			"delicious", "highly recommend",
			"genial", "encanta", "encanto", "maravilloso", "perfecto", "excelente", "delicioso",
			"buenisimo", "recomiendo",
		},
		Laughter: []string{
			`^(?:ha){2,}h?$`,
			`^(?:ja){2,}j?$`,
			`^(?:je){2,}j?$`,
			`^lo+l$`,
			`^lmao$`,
			`^xd+$`,
		},
		LaughterSymbols: []string{"😂", "🤣", "💀"},
		Safety: SafetyRules{
			Risky: map[string][]string{
				CategoryHarassment: {
					"kill you", "find you", "hope you die", "stalk",
					"te voy a matar", "ojala te mueras", "se donde vives",
				},
				CategoryPersonalData: {
					"his name is", "her name is", "home address", "phone number",
					"se llama", "su telefono", "su direccion",
				},
				CategorySlurs: {
					"retard", "retards", "retarded", "faggot", "faggots", "tranny", "trannies",
					"nigger", "niggers", "chink", "chinks", "kike", "kikes", "wetback", "wetbacks",
					"beaner", "beaners", "towelhead", "towelheads",
					"maricon", "maricones", "sudaca", "sudacas", "subnormal", "subnormales",
					"mongolo", "mongolos", "panchito", "panchitos",
				},
				CategoryLegalRisk: {
					"stole", "thief", "thieves", "fraud", "scam", "scammers", "robbed", "drug dealer",
					"ladron", "ladrones", "estafa", "estafadores", "robaron", "camello",
				},
				CategoryMinors: {
					"child", "children", "minor", "minors", "kid", "kids",
					"nino", "nina", "ninos", "menor", "menores", "crio",
				},
			},
			PIIPatterns: []string{
				`[\w.+-]+@[\w-]+\.[\w.]+`,
				`\+?\d[\d\s().-]{7,}\d`,
			},
			Uncertain: []string{
				"police", "hospital", "cancer", "religion", "politics", "drunk", "racist", "lawyer",
				"policia", "politica", "borracho", "racista", "abogado", "denuncia",
			},
		},
	}
}

// LoadRulesFile reads a YAML rules file on top of DefaultRules.
// Keys missing from the file keep their default values.
func LoadRulesFile(path string) (Rules, error) {
	rules := DefaultRules()

	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	return rules, nil
}
