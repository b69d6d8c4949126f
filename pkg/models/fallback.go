package models

// fallbackProfiles are substituted when the vision provider fails or
// returns an implausible record.
var fallbackProfiles = [...]AnalysisResult{
	{
		Season:      "Мягкое Лето",
		Description: "У вас благородная, слегка прохладная внешность с низким контрастом. Глаза, скорее всего, серо-голубые или зеленые, а кожа имеет розоватый подтон.",
		BestColors:  []string{"#778899", "#E6E6FA", "#BC8F8F"},
		WorstColor:  "#FF8C00",
		YogaTitle:   "Укрепление овала",
		YogaText:    "Выдвиньте подбородок вперед, положите нижнюю губу на верхнюю и улыбнитесь, поднимая уголки рта к вискам. Держите 10 секунд.",
	},
	{
		Season:      "Глубокая Зима",
		Description: "Яркая и контрастная внешность. Темные волосы и выразительные глаза создают эффектный образ, который требует насыщенных цветов.",
		BestColors:  []string{"#000080", "#DC143C", "#FFFFFF"},
		WorstColor:  "#D2B48C",
		YogaTitle:   "Сияющий взгляд",
		YogaText:    "Сделайте 'очки' из пальцев вокруг глаз. Мягко надавите и попробуйте сощуриться нижним веком. Повторите 15 раз для тонуса зоны глаз.",
	},
	{
		Season:      "Теплая Весна",
		Description: "Ваша внешность излучает свет и тепло. Кожа имеет золотистое свечение, а в волосах играют рыжеватые или медовые блики.",
		BestColors:  []string{"#FF7F50", "#40E0D0", "#F4A460"},
		WorstColor:  "#A9A9A9",
		YogaTitle:   "Разглаживание лба",
		YogaText:    "Положите ладони на лоб, зафиксировав кожу. Пытайтесь поднять брови вверх, преодолевая сопротивление рук. Расслабьтесь.",
	},
	{
		Season:      "Настоящая Осень",
		Description: "Насыщенный, теплый и уютный типаж. В вашей внешности преобладают рыжие, медные и золотисто-каштановые тона.",
		BestColors:  []string{"#8B4513", "#556B2F", "#DAA520"},
		WorstColor:  "#FF69B4",
		YogaTitle:   "Четкие скулы",
		YogaText:    "Втяните щеки внутрь, сделав губы 'рыбкой'. Попытайтесь улыбнуться в этом положении. Удерживайте 5 секунд, повторите 10 раз.",
	},
}

// FallbackProfileCount is the size of the fallback catalog.
const FallbackProfileCount = len(fallbackProfiles)

// FallbackProfiles returns copies of all fallback profiles.
func FallbackProfiles() []AnalysisResult {
	out := make([]AnalysisResult, len(fallbackProfiles))
	for i, p := range fallbackProfiles {
		out[i] = p.Clone()
	}
	return out
}

// FallbackProfile returns a copy of the i-th fallback profile. The index
// wraps around the catalog size.
func FallbackProfile(i int) AnalysisResult {
	if i < 0 {
		i = -i
	}
	return fallbackProfiles[i%len(fallbackProfiles)].Clone()
}

// RandomFallback picks a fallback profile using intn, which must return a
// uniformly distributed value in [0, n). The result is flagged as a demo.
func RandomFallback(intn func(n int) int) AnalysisResult {
	return FallbackProfile(intn(len(fallbackProfiles))).AsDemo()
}
