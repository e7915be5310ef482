// Package stageclient выполняет вызов одного этапа pipeline.
//
// # Обзор
//
// StageClient — единственный компонент, который ходит в сеть. Он получает
// дескриптор этапа и тело запроса и возвращает либо проверенный ответ,
// либо классифицированную ошибку *domain.StageError. Порядок этапов и
// состояние run ему неизвестны: этим занимается orchestrator.
//
// # Использование
//
//	client := stageclient.New(stageclient.Config{
//	    Cache:    cacheRepo,
//	    CacheTTL: time.Hour,
//	    Logger:   logger,
//	})
//
//	resp, err := client.Call(ctx, desc, request)
//	if err != nil {
//	    kind := domain.KindOf(err)
//	    ...
//	}
//
// # Попытка
//
//  1. POST desc.Endpoint с JSON-телом, таймаут desc.Timeout на попытку
//  2. Тело читается не больше MaxResponseBody байт
//  3. 2xx → проверка, что тело — JSON-объект с desc.RequiredFields
//  4. Результат классифицируется
//
// # Классификация
//
//   - Таймаут, ошибка соединения, 5xx → TRANSIENT_NETWORK (повторяется)
//   - 4xx, прочие не-2xx → PERMANENT_APPLICATION
//   - Тело не JSON-объект, нет обязательного поля → PERMANENT_APPLICATION (ErrMalformedResponse)
//   - Отмена ctx → CANCELLED
//   - Не удалось сериализовать запрос → CONFIGURATION
//
// # Retry
//
// Повторяются только TRANSIENT_NETWORK, всего не больше desc.MaxRetries + 1 попыток.
// Задержка: Initial × Multiplier^(n-1), не больше Max, ± Jitter.
// Ожидание прерывается отменой ctx.
//
// # Кэш
//
// Для этапов с Cacheable ответ ищется в Cache по ключу CacheKey(stage, body).
// Попадание возвращает Response с Cached=true и Attempts=0.
// Ошибки кэша логируются и не влияют на результат вызова.
package stageclient
