// Package fuzztests houses Go fuzz harnesses for the shader pipeline
// (source -> preprocess -> line map -> diagnostic mapping). Its goal is to
// smoke test robustness and guard against panics or broken line maps on
// arbitrary inputs.
//
// Назначение: писать fuzz-входы во временный корень, прогонять их через
// preprocess и diag.Map и проверять инварианты testkit.
//
// Не делает: компиляцию шейдеров, запись вне t.TempDir(), выполнение CLI.
//
// Зависимости: internal/source, internal/preprocess, internal/diag,
// internal/testkit.

package fuzztests
