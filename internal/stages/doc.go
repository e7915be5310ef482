// Package stages описывает цепочку этапов pipeline.
//
// # Обзор
//
// Цепочка фиксирована и состоит из четырёх этапов:
//
//	language-analysis      POST {text, modelId}                  → numerical_features
//	statistics             POST {data: numerical_features}       → basic_statistics
//	optimization           POST {data: basic_statistics}         → solution
//	numerical-optimization POST {data: solution, dimensions, batch_size}
//
// # Descriptor
//
// Descriptor — неизменяемое описание этапа: адрес, проекция запроса,
// таймаут попытки, количество повторов, политика backoff и схема ответа
// (RequiredFields). Descriptor ничего не знает о порядке выполнения.
//
// # Projection
//
// Проекции — чистые функции, которые строят запрос этапа k из ответа
// этапа k-1. Значения полей передаются как json.RawMessage без
// перекодирования. Если нужного поля нет, проекция возвращает ErrProjection.
//
// # Table
//
// Table строится из config.Config через FromConfig. Настраиваются адреса
// и политика повторов, проекции и порядок берутся из кода.
package stages
