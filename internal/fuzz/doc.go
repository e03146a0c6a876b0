// Package fuzztests houses Go fuzz harnesses that exercise the IR pipeline
// (source -> parser -> graph -> codec). Its goal is to smoke test robustness
// and guard against panics or hangs on arbitrary inputs.
//
// Назначение: запускать fuzz-обработчики, которые загружают байты в FileSet и
// прогоняют их через транслятор, построитель графа и бинарный кодек.
//
// Не делает: генерацию корпусов, запись файлов, выполнение VM.
//
// Зависимости: internal/source, internal/parser, internal/graph,
// internal/codec, internal/diag, internal/testkit.

package fuzztests
