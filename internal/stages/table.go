package stages

import (
	"fmt"
	"net/url"

	"github.com/shaiso/Polyglot/internal/config"
	"github.com/shaiso/Polyglot/internal/domain"
)

// Table — упорядоченная таблица дескрипторов.
//
// Таблица неизменяема после построения и разделяется между runs без синхронизации.
type Table []Descriptor

// Len возвращает количество этапов.
func (t Table) Len() int {
	return len(t)
}

// At возвращает дескриптор этапа k.
func (t Table) At(k int) Descriptor {
	return t[k]
}

// Names возвращает имена этапов в порядке выполнения.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, d := range t {
		names[i] = d.Name
	}
	return names
}

// Lookup ищет дескриптор по имени.
func (t Table) Lookup(name string) (Descriptor, bool) {
	for _, d := range t {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Validate проверяет таблицу.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidTable)
	}

	seen := make(map[string]bool, len(t))
	for i, d := range t {
		if d.Name == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrInvalidTable, i)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate stage %q", ErrInvalidTable, d.Name)
		}
		seen[d.Name] = true

		u, err := url.Parse(d.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: stage %q: invalid endpoint %q", ErrInvalidTable, d.Name, d.Endpoint)
		}
		if d.BuildRequest == nil {
			return fmt.Errorf("%w: stage %q: no projection", ErrInvalidTable, d.Name)
		}
		if d.Timeout <= 0 {
			return fmt.Errorf("%w: stage %q: timeout must be positive", ErrInvalidTable, d.Name)
		}
		if d.MaxRetries < 0 {
			return fmt.Errorf("%w: stage %q: max retries must be >= 0", ErrInvalidTable, d.Name)
		}
	}
	return nil
}

// chainLink — часть дескриптора, которая не настраивается:
// проекция запроса и схема ответа.
type chainLink struct {
	projection Projection
	required   []string
}

// chain возвращает фиксированные звенья цепочки по имени этапа.
func chain(cfg *config.Config) map[string]chainLink {
	return map[string]chainLink{
		domain.StageLanguageAnalysis: {
			projection: LanguageAnalysisRequest(cfg.ModelID),
			required:   []string{FieldNumericalFeatures},
		},
		domain.StageStatistics: {
			projection: StatisticsRequest,
			required:   []string{FieldBasicStatistics},
		},
		domain.StageOptimization: {
			projection: OptimizationRequest,
			required:   []string{FieldSolution},
		},
		domain.StageNumericalOptimization: {
			projection: NumericalOptimizationRequest(cfg.Dimensions, cfg.BatchSize),
		},
	}
}

// FromConfig строит таблицу из конфигурации.
//
// Порядок этапов задаётся domain.StageNames(), из конфигурации берутся
// адреса, таймауты и политика повторов.
func FromConfig(cfg *config.Config) (Table, error) {
	links := chain(cfg)

	for _, s := range cfg.Stages {
		if _, ok := links[s.Name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, s.Name)
		}
	}

	names := domain.StageNames()
	table := make(Table, 0, len(names))
	for _, name := range names {
		sc, ok := cfg.Stage(name)
		if !ok {
			return nil, fmt.Errorf("%w: stage %q is not configured", ErrInvalidTable, name)
		}

		link := links[name]
		table = append(table, Descriptor{
			Name:         name,
			Endpoint:     sc.Endpoint,
			BuildRequest: link.projection,
			Timeout:      sc.Timeout.Duration(),
			MaxRetries:   sc.Retries(),
			Backoff: BackoffPolicy{
				Initial:    sc.Backoff.Initial.Duration(),
				Multiplier: sc.Backoff.Multiplier,
				Max:        sc.Backoff.Max.Duration(),
				Jitter:     sc.Backoff.JitterFraction(),
			},
			RequiredFields: link.required,
			Cacheable:      sc.IsCacheable(),
		})
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Default возвращает таблицу для конфигурации по умолчанию.
func Default() Table {
	table, err := FromConfig(config.Default())
	if err != nil {
		panic(fmt.Sprintf("default stage table: %v", err))
	}
	return table
}
