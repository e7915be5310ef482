package domain

// Model — модель анализа текста, доступная для первого этапа.
type Model struct {
	// ID — идентификатор, передаваемый в поле modelId запроса.
	ID string `json:"id"`

	// Description — краткое описание модели.
	Description string `json:"description"`

	// Language — язык, на котором реализован сервис модели.
	Language string `json:"language"`

	// Type — тип анализа.
	Type string `json:"type"`
}

// DefaultModelID — модель первого этапа по умолчанию.
const DefaultModelID = "python-bert"

// Models возвращает статический каталог моделей.
func Models() []Model {
	return []Model{
		{ID: "python-bert", Language: "Python", Type: "NLP", Description: "BERT-based text analysis model"},
		{ID: "r-statistical", Language: "R", Type: "Statistical Analysis", Description: "Advanced statistical analysis model"},
		{ID: "julia-optimization", Language: "Julia", Type: "Optimization", Description: "Mathematical optimization model"},
	}
}

// FindModel ищет модель в каталоге по ID.
func FindModel(id string) (Model, bool) {
	for _, m := range Models() {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
