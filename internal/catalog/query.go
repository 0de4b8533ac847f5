package catalog

import "context"

type Status int

const (
	StatusLoading Status = iota
	StatusFailed
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "loading"
	}
}

// Result is the state of a product read as seen by a consumer.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

func Loading[T any]() Result[T] {
	return Result[T]{Status: StatusLoading}
}

func Failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

func Succeeded[T any](data T) Result[T] {
	return Result[T]{Status: StatusSuccess, Data: data}
}

func (r Result[T]) IsLoading() bool { return r.Status == StatusLoading }
func (r Result[T]) IsError() bool   { return r.Status == StatusFailed }

// Resolve turns a fetch outcome into a settled Result.
func Resolve[T any](data T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Succeeded(data)
}

// Watch runs fetch in the background. The channel yields Loading right away
// and then the settled result, unless ctx ends first, in which case the
// channel is closed without a settled result.
func Watch[T any](ctx context.Context, fetch func(context.Context) Result[T]) <-chan Result[T] {
	out := make(chan Result[T], 2)
	out <- Loading[T]()

	go func() {
		defer close(out)
		res := fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		out <- res
	}()

	return out
}
