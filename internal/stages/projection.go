package stages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Поля ответов, которые передаются дальше по цепочке.
const (
	FieldNumericalFeatures = "numerical_features"
	FieldBasicStatistics   = "basic_statistics"
	FieldSolution          = "solution"
)

// LanguageAnalysisRequest — проекция первого этапа: {text, modelId}.
// Предыдущего ответа нет, используется исходный текст.
func LanguageAnalysisRequest(modelID string) Projection {
	return func(input string, _ json.RawMessage) (map[string]any, error) {
		if strings.TrimSpace(input) == "" {
			return nil, fmt.Errorf("%w: empty text", ErrProjection)
		}
		return map[string]any{
			"text":    input,
			"modelId": modelID,
		}, nil
	}
}

// StatisticsRequest — {data: numerical_features}.
func StatisticsRequest(_ string, previous json.RawMessage) (map[string]any, error) {
	data, err := ExtractField(previous, FieldNumericalFeatures)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": data}, nil
}

// OptimizationRequest — {data: basic_statistics}.
func OptimizationRequest(_ string, previous json.RawMessage) (map[string]any, error) {
	data, err := ExtractField(previous, FieldBasicStatistics)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": data}, nil
}

// NumericalOptimizationRequest — {data: solution, dimensions, batch_size}.
func NumericalOptimizationRequest(dimensions, batchSize int) Projection {
	return func(_ string, previous json.RawMessage) (map[string]any, error) {
		data, err := ExtractField(previous, FieldSolution)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"data":       data,
			"dimensions": dimensions,
			"batch_size": batchSize,
		}, nil
	}
}

// ExtractField достаёт поле верхнего уровня из JSON-объекта без изменения байтов.
// Отсутствующее поле и null считаются ошибкой.
func ExtractField(payload json.RawMessage, field string) (json.RawMessage, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: no previous payload", ErrProjection)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("%w: previous payload is not an object: %v", ErrProjection, err)
	}

	value, ok := obj[field]
	if !ok || isNull(value) {
		return nil, fmt.Errorf("%w: missing field %q", ErrProjection, field)
	}
	return value, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
