package llm

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
)

// GenerationVars fills the generation template. Optional fields render as
// "not provided" when empty.
type GenerationVars struct {
	ZodiacSign  string `validate:"required"`
	Date        string `validate:"required,datetime=2006-01-02"`
	DateOfBirth string `validate:"omitempty,datetime=2006-01-02"`
	BirthTime   string `validate:"omitempty,datetime=15:04:05"`
	Language    string `validate:"required"`
}

// ExtractionVars fills the score extraction template.
type ExtractionVars struct {
	HoroscopeText string `validate:"required"`
}

const generationText = `You are a professional astrologer providing personalized horoscope readings.
Generate a detailed daily horoscope for a person with the {{.ZodiacSign}} zodiac sign for {{.Date}}.
Their date of birth is {{if .DateOfBirth}}{{.DateOfBirth}}{{else}}not provided{{end}}.
Their time of birth is {{if .BirthTime}}{{.BirthTime}}{{else}}not provided{{end}}.
Use this birth information to refine the horoscope if possible, but generate a valid horoscope even if it is not available.

Write exactly five sections, in this order:
1. A general daily overview (100-150 words)
2. Love and relationships (50-75 words), focused on interpersonal connections and emotional energy without assuming a specific partner or relationship status
3. Career and studies (50-75 words)
4. Health and wellbeing (50-75 words)
5. Money and finances (50-75 words)

The tone should be insightful, motivational and specific to the traits of {{.ZodiacSign}}.
Do not include generic advice that could apply to any sign.
Do not include disclaimers or explanations about astrology.
Do not include any section titles or numbering in your response.
Separate the sections with one blank line and provide only the text of each section.

IMPORTANT: Your entire response MUST be in {{.Language}}.
`

const extractionText = `From the following horoscope text, extract numerical scores (0-100) for health, love and career.
If exact scores are not explicitly stated, infer them from the positivity or negativity of the content.

Horoscope text:
{{.HoroscopeText}}

Return ONLY a valid JSON object with exactly this format, without any additional text, markdown formatting or explanation:
{"health": <number>, "love": <number>, "career": <number>}

Replace <number> with integer values between 0 and 100.
`

var (
	generationTmpl = template.Must(template.New("generation").Option("missingkey=error").Parse(generationText))
	extractionTmpl = template.Must(template.New("extraction").Option("missingkey=error").Parse(extractionText))

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// RenderGeneration validates v and renders the generation prompt.
func RenderGeneration(v GenerationVars) (string, error) {
	return render(generationTmpl, v)
}

// RenderExtraction validates v and renders the score extraction prompt.
func RenderExtraction(v ExtractionVars) (string, error) {
	return render(extractionTmpl, v)
}

func render(t *template.Template, v any) (string, error) {
	if err := validate.Struct(v); err != nil {
		return "", fmt.Errorf("%s prompt vars: %w", t.Name(), err)
	}
	var b strings.Builder
	if err := t.Execute(&b, v); err != nil {
		return "", fmt.Errorf("%s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}
