package observe_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/ecaspace/observe"
)

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "ecaspace",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "zipkin"},
	}
	err := cfg.Validate()
	fmt.Println(errors.Is(err, observe.ErrInvalidTracingExporter))
	// Output:
	// true
}

func ExampleQueryMeta_SpanName() {
	fmt.Println(observe.QueryMeta{Op: "row", Rule: 30}.SpanName())
	// Output:
	// eca.row
}

func ExampleMiddleware_Wrap() {
	mw, err := observe.MiddlewareFromObserver(observe.Noop())
	if err != nil {
		panic(err)
	}

	var cell bool
	query := mw.Wrap(func(ctx context.Context, meta observe.QueryMeta) error {
		cell = true
		return nil
	})
	if err := query(context.Background(), observe.QueryMeta{Op: "cell", Rule: 110}); err != nil {
		panic(err)
	}
	fmt.Println(cell)
	// Output:
	// true
}

func ExampleParseLogLevel() {
	fmt.Println(observe.ParseLogLevel("warn"))
	fmt.Println(observe.ParseLogLevel("bogus"))
	// Output:
	// warn
	// info
}
