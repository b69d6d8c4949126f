package vision

import "strings"

const systemPrompt = `You are a professional Stylist and Face Yoga instructor.
Analyze the user's photo.
1. Determine their color season (Spring, Summer, Autumn, Winter) based on skin tone, eyes, and hair.
2. Suggest 3 best clothing colors (hex codes) and 1 worst color.
3. Suggest 1 specific Face Yoga exercise with a creative title.

Return ONLY valid JSON. Language: Russian.`

const userPrompt = `Analyze this face. Strictly follow this JSON structure:
{
  "season": "String (e.g. 'Мягкое Лето')",
  "description": "String (Russian description of features)",
  "bestColors": ["#hex", "#hex", "#hex"],
  "worstColor": "#hex",
  "yogaTitle": "String (Exercise Name)",
  "yogaText": "String (Instructions)"
}`

// geminiPrompt relies on the response schema for structure.
const geminiPrompt = `Проанализируй это лицо.
1. Определи цветотип внешности (Зима/Весна/Лето/Осень) на основе тона кожи, глаз и волос.
2. Подбери 3 идеальных цвета одежды и 1 цвет, который старит.
3. Дай 1 простое упражнение фейс-фитнеса (Face Yoga), подходящее для этого типа лица.

Верни ответ строго на русском языке.`

func withNote(prompt, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return prompt
	}
	return prompt + "\n\n" + note
}
