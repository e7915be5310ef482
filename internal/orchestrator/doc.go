// Package orchestrator управляет выполнением runs.
//
// Orchestrator отвечает за:
//   - Проверку ввода до создания run
//   - Вытеснение предыдущего run при запуске нового
//   - Последовательный вызов этапов через StageClient
//   - Запись результата каждого этапа в domain.Run
//   - Пропуск оставшихся этапов после отказа или отмены
//   - Передачу snapshot presenter'у при каждом переходе
//
// В каждый момент логически активен не больше одного run. Отмена
// вытесненного run не ждёт его фактического завершения.
package orchestrator
