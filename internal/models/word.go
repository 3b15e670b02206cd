package models

// Word represents a German vocabulary item
type Word struct {
	ID                 string `json:"id"`
	Word               string `json:"word"`    // German word
	Article            string `json:"article"` // der/die/das, empty for non-nouns
	Translation        string `json:"translation"`
	Example            string `json:"example"` // German sentence
	ExampleTranslation string `json:"exampleTranslation"`
	Level              string `json:"level"` // CEFR level: A1-C2
}
