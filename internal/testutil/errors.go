package testutil

import "errors"

// ErrSimulated возвращают тестовые двойники, которые падают намеренно
// (например, декоратор мира или хук сканирования).
var ErrSimulated = errors.New("testutil: simulated failure")
