//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StructuredErrors flags errors built outside internal/errors in packages
// that report through it. Component and category are lost otherwise, and
// telemetry cannot group the failure.
//
// Old pattern:
//
//	return errors.New("photo not found")   // stdlib errors
//
// New pattern:
//
//	return errors.Newf("photo not found").
//		Component("photostore").
//		Category(errors.CategoryNotFound).
//		Build()
func StructuredErrors(m dsl.Matcher) {
	m.Import("errors")

	m.Match(`errors.New($msg)`).
		Where(m.File().Imports("errors") &&
			!m.File().PkgPath.Matches(`internal/errors$`)).
		Report(`use internal/errors builder instead of stdlib errors.New($msg)`)
}

// WrapWithVerb detects fmt.Errorf calls that format an error with %v or %s,
// which drops it from the errors.Is/As chain.
//
// Old pattern:
//
//	fmt.Errorf("failed to open catalog: %v", err)
//
// New pattern:
//
//	fmt.Errorf("failed to open catalog: %w", err)
func WrapWithVerb(m dsl.Matcher) {
	m.Match(`fmt.Errorf($format, $*_, $err)`).
		Where(m["err"].Type.Is("error") &&
			(m["format"].Text.Matches(`%v"$`) || m["format"].Text.Matches(`%s"$`))).
		Report(`wrap $err with %w so callers can match it`)
}

// StdlibLogging detects the log package. Output goes through the module
// loggers from internal/logger.
//
// Old pattern:
//
//	log.Printf("imported %d entries", n)
//
// New pattern:
//
//	getLogger().Info("imported entries", logger.Int("count", n))
func StdlibLogging(m dsl.Matcher) {
	m.Import("log")

	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`).
		Report(`use the internal/logger module logger instead of the log package`)

	m.Match(`log.Fatalf($*_)`, `log.Fatal($*_)`).
		Report(`return an error instead of calling log.Fatal`)
}

// SinceUntil detects manual elapsed time arithmetic.
//
// Old pattern:
//
//	elapsed := time.Now().Sub(start)
//
// New pattern:
//
//	elapsed := time.Since(start)
func SinceUntil(m dsl.Matcher) {
	m.Match(`time.Now().Sub($t)`).
		Report(`use time.Since($t)`).
		Suggest(`time.Since($t)`)

	m.Match(`$t.Sub(time.Now())`).
		Report(`use time.Until($t)`).
		Suggest(`time.Until($t)`)
}

// PoolTransaction flags repository transactions opened on the pool. They
// must start from conn(ctx) so they nest inside the caller's scope.
//
// Old pattern:
//
//	r.db.Transaction(func(tx *gorm.DB) error { ... })
//
// New pattern:
//
//	r.atomic(ctx, func(tx *gorm.DB) error { ... })
func PoolTransaction(m dsl.Matcher) {
	m.Match(`$r.db.Transaction($*_)`, `$r.db.Begin($*_)`).
		Where(m.File().PkgPath.Matches(`internal/datastore/repository`)).
		Report(`open repository transactions through atomic(ctx, ...) so they join the session scope`)
}
